package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecordStatus string

const (
	RecordStatusCompleted RecordStatus = "COMPLETED"
	RecordStatusSkipped   RecordStatus = "SKIPPED"
	RecordStatusFailed    RecordStatus = "FAILED"
)

// Run describes one driver invocation, as stored in the ledger.
type Run struct {
	ID           uuid.UUID
	MetadataPath string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Processed    int
	Skipped      int
	Failed       int
	MappingKey   string
}

func NewRun(metadataPath string) *Run {
	return &Run{
		ID:           uuid.New(),
		MetadataPath: metadataPath,
		StartedAt:    time.Now().UTC(),
	}
}

func (r *Run) Finish(sum *RunSummary, mappingKey string) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Processed = sum.Processed
	r.Skipped = sum.Skipped
	r.Failed = len(sum.Failed)
	r.MappingKey = mappingKey
}
