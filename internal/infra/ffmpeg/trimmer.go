package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/TheMerjin/gloss2posefull/internal/infra/metrics"
	"go.uber.org/zap"
)

// rangeTolerance absorbs container rounding when comparing the
// requested end against the probed duration.
const rangeTolerance = 0.05

// Trimmer cuts word-level segments out of source videos. Output names
// are deterministic in (video, word, range), so re-runs reuse existing
// segments instead of re-encoding.
type Trimmer struct {
	ffmpegPath  string
	ffprobePath string
	segmentsDir string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewTrimmer(ffmpegPath, ffprobePath, segmentsDir string, timeout time.Duration, logger *zap.Logger) *Trimmer {
	return &Trimmer{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		segmentsDir: segmentsDir,
		timeout:     timeout,
		logger:      logger,
	}
}

// SegmentFileName is the deterministic segment name for a
// (video, word, range) tuple.
func SegmentFileName(videoID, word string, startTime, endTime float64) string {
	return fmt.Sprintf("%s_%s_%.2f-%.2f.mp4", videoID, sanitizeWord(word), startTime, endTime)
}

func sanitizeWord(word string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, word)
}

func (t *Trimmer) Trim(ctx context.Context, video *entity.VideoAsset, word string, startTime, endTime float64) (*entity.SegmentAsset, error) {
	if startTime < 0 || startTime >= endTime {
		return nil, fmt.Errorf("%w: [%.2f, %.2f)", entity.ErrInvalidRange, startTime, endTime)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	duration, err := ProbeDuration(ctx, t.ffprobePath, video.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", entity.ErrExtraction, video.LocalPath, err)
	}
	if endTime > duration+rangeTolerance {
		return nil, fmt.Errorf("%w: end %.2f beyond video duration %.2f", entity.ErrInvalidRange, endTime, duration)
	}

	dest := filepath.Join(t.segmentsDir, SegmentFileName(video.VideoID, word, startTime, endTime))
	asset := &entity.SegmentAsset{
		VideoID:   video.VideoID,
		Word:      word,
		StartTime: startTime,
		EndTime:   endTime,
		LocalPath: dest,
	}

	if st, err := os.Stat(dest); err == nil && st.Size() > 0 {
		t.logger.Debug("segment already exists", zap.String("path", dest))
		return asset, nil
	}

	if err := os.MkdirAll(t.segmentsDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create segments dir: %v", entity.ErrExtraction, err)
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", startTime),
		"-i", video.LocalPath,
		"-t", fmt.Sprintf("%.3f", endTime-startTime),
		"-c:v", "libx264",
		"-an",
		"-y",
		dest,
	)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	metrics.StageDuration.WithLabelValues("trim").Observe(time.Since(start).Seconds())
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", entity.ErrExtraction, err, tail(output))
	}

	if st, err := os.Stat(dest); err != nil || st.Size() == 0 {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: ffmpeg produced empty output %s", entity.ErrExtraction, dest)
	}

	t.logger.Info("segment extracted",
		zap.String("video_id", video.VideoID),
		zap.String("word", word),
		zap.Float64("start", startTime),
		zap.Float64("end", endTime),
	)
	return asset, nil
}

// tail keeps error output short enough to log.
func tail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > 400 {
		s = s[len(s)-400:]
	}
	return s
}
