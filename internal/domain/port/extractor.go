package port

import (
	"context"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

type SegmentTrimmer interface {
	Trim(ctx context.Context, video *entity.VideoAsset, word string, startTime, endTime float64) (*entity.SegmentAsset, error)
}

type PoseEstimator interface {
	// CheckTool verifies the external binary is configured and
	// executable. Called once before the batch starts.
	CheckTool() error
	EstimatePose(ctx context.Context, segment *entity.SegmentAsset) (*entity.PoseResult, error)
}
