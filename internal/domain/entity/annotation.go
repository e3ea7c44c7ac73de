package entity

import "fmt"

// AnnotationRecord is one input entry: a word, its source video and the
// time range within that video where the word is signed. Records are
// read-only for the pipeline's lifetime.
type AnnotationRecord struct {
	VideoID   string  `json:"video_id"`
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Key identifies the (video, word, range) tuple. Two records with the
// same key would produce the same segment path, so the driver treats the
// second one as a duplicate.
func (r AnnotationRecord) Key() string {
	return fmt.Sprintf("%s|%s|%.3f|%.3f", r.VideoID, r.Word, r.StartTime, r.EndTime)
}
