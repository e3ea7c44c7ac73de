package port

import (
	"context"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

type VideoFetcher interface {
	Fetch(ctx context.Context, videoID string) (*entity.VideoAsset, error)
}
