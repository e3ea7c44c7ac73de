package ytdlp

import (
	"bytes"
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

// Fetcher downloads source videos with yt-dlp, caching them on disk
// keyed by video ID. Fetch is idempotent: a cached file short-circuits
// the network entirely.
type Fetcher struct {
	binPath       string
	videosDir     string
	resolutionCap int
	timeout       time.Duration
	logger        *zap.Logger
}

func NewFetcher(binPath, videosDir string, resolutionCap int, timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		binPath:       binPath,
		videosDir:     videosDir,
		resolutionCap: resolutionCap,
		timeout:       timeout,
		logger:        logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*entity.VideoAsset, error) {
	dest := filepath.Join(f.videosDir, videoID+".mp4")

	if st, err := os.Stat(dest); err == nil && st.Size() > 0 {
		metrics.VideoCacheHitsTotal.Inc()
		f.logger.Debug("video cache hit", zap.String("video_id", videoID))
		return &entity.VideoAsset{VideoID: videoID, LocalPath: dest, ResolutionCap: f.resolutionCap}, nil
	}

	if err := os.MkdirAll(f.videosDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create videos dir: %v", entity.ErrDownload, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := "https://www.youtube.com/watch?v=" + videoID
	cmd := exec.CommandContext(ctx, f.binPath,
		"-f", fmt.Sprintf("best[height<=%d]", f.resolutionCap),
		"--no-playlist",
		"--no-warnings",
		"-o", dest,
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())

	if err != nil {
		// Leave no partial file behind so a re-run is not fooled
		// by the cache check.
		os.Remove(dest)
		return nil, classify(videoID, stderr.String(), err)
	}

	if st, err := os.Stat(dest); err != nil || st.Size() == 0 {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: yt-dlp produced no output for %s", entity.ErrDownload, videoID)
	}

	metrics.VideosDownloadedTotal.Inc()
	f.logger.Info("video downloaded",
		zap.String("video_id", videoID),
		zap.Int("resolution_cap", f.resolutionCap),
	)
	return &entity.VideoAsset{VideoID: videoID, LocalPath: dest, ResolutionCap: f.resolutionCap}, nil
}

// classify maps yt-dlp failure output onto the pipeline error taxonomy.
func classify(videoID, stderr string, cause error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "has been removed"),
		strings.Contains(lower, "404"):
		return fmt.Errorf("%w: %s: %s", entity.ErrVideoNotFound, videoID, firstLine(stderr))
	case strings.Contains(lower, "429"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "rate-limit"):
		return fmt.Errorf("%w: %s: %s", entity.ErrQuota, videoID, firstLine(stderr))
	default:
		return fmt.Errorf("%w: %s: %v: %s", entity.ErrDownload, videoID, cause, firstLine(stderr))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
