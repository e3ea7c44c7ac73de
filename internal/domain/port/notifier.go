package port

import (
	"context"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

// CompletionNotifier reports the run outcome to an operator. Optional.
type CompletionNotifier interface {
	NotifySummary(ctx context.Context, to string, runID string, sum *entity.RunSummary) error
}
