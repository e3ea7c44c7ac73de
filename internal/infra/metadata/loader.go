package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

// Loader reads the annotation metadata file. Pure read, no mutation.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

type rawRecord struct {
	VideoID   *string  `json:"video_id"`
	Word      *string  `json:"word"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

// Load parses the JSON annotation list. Any syntax error or missing
// required field makes the whole file unusable.
func (l *Loader) Load(path string) ([]entity.AnnotationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", entity.ErrMalformedMetadata, path, err)
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", entity.ErrMalformedMetadata, path, err)
	}

	records := make([]entity.AnnotationRecord, 0, len(raw))
	for i, r := range raw {
		if r.VideoID == nil || *r.VideoID == "" {
			return nil, fmt.Errorf("%w: record %d missing video_id", entity.ErrMalformedMetadata, i)
		}
		if r.Word == nil || *r.Word == "" {
			return nil, fmt.Errorf("%w: record %d missing word", entity.ErrMalformedMetadata, i)
		}
		if r.StartTime == nil || r.EndTime == nil {
			return nil, fmt.Errorf("%w: record %d missing time range", entity.ErrMalformedMetadata, i)
		}
		records = append(records, entity.AnnotationRecord{
			VideoID:   *r.VideoID,
			Word:      *r.Word,
			StartTime: *r.StartTime,
			EndTime:   *r.EndTime,
		})
	}
	return records, nil
}
