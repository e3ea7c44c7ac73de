package port

import (
	"context"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/google/uuid"
)

// RunLedger records run and per-record outcomes in durable storage so
// large batches can be inspected and re-run selectively. Optional: the
// driver tolerates a nil ledger.
type RunLedger interface {
	StartRun(ctx context.Context, run *entity.Run) error
	RecordResult(ctx context.Context, runID uuid.UUID, rec entity.AnnotationRecord, status entity.RecordStatus, poseDir, errMsg string) error
	FinishRun(ctx context.Context, run *entity.Run) error
}
