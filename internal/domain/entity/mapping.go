package entity

import "time"

// SegmentPoseRef is one mapping entry: where a word's pose data lives
// and which part of which video it came from.
type SegmentPoseRef struct {
	VideoID    string  `json:"video_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	PoseDir    string  `json:"pose_dir"`
	FrameCount int     `json:"frame_count"`
}

// WordPoseMapping is the final aggregated artifact: each distinct word
// mapped to its pose results in processing order.
type WordPoseMapping struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Words       map[string][]SegmentPoseRef `json:"words"`
}
