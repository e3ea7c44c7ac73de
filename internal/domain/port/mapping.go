package port

import (
	"context"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

type MappingBuilder interface {
	// Record appends a pose result to the word's entry list,
	// preserving processing order.
	Record(word string, pose *entity.PoseResult)
	// Finalize persists the full mapping and returns the output path.
	Finalize(ctx context.Context) (string, error)
}
