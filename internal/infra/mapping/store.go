package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"go.uber.org/zap"
)

// Store accumulates the word → pose-result mapping in memory and
// persists it as the run's primary deliverable. Append-only; the driver
// is single-threaded so no locking is needed.
type Store struct {
	path   string
	words  map[string][]entity.SegmentPoseRef
	logger *zap.Logger
}

func NewStore(metadataDir string, logger *zap.Logger) *Store {
	return &Store{
		path:   filepath.Join(metadataDir, "word_pose_mapping.json"),
		words:  make(map[string][]entity.SegmentPoseRef),
		logger: logger,
	}
}

func (s *Store) Record(word string, pose *entity.PoseResult) {
	s.words[word] = append(s.words[word], entity.SegmentPoseRef{
		VideoID:    pose.Segment.VideoID,
		StartTime:  pose.Segment.StartTime,
		EndTime:    pose.Segment.EndTime,
		PoseDir:    pose.OutputDir,
		FrameCount: pose.FrameCount(),
	})
}

// Finalize writes the mapping file. A write failure is fatal for the
// whole run: without the mapping the dataset is unusable.
func (s *Store) Finalize(ctx context.Context) (string, error) {
	doc := entity.WordPoseMapping{
		GeneratedAt: time.Now().UTC(),
		Words:       s.words,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal mapping: %v", entity.ErrPersistence, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("%w: create metadata dir: %v", entity.ErrPersistence, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", entity.ErrPersistence, s.path, err)
	}

	s.logger.Info("mapping persisted",
		zap.String("path", s.path),
		zap.Int("words", len(s.words)),
	)
	return s.path, nil
}
