package openpose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/TheMerjin/gloss2posefull/internal/infra/metrics"
	"go.uber.org/zap"
)

// Runner invokes the external pose-estimation binary on a segment,
// producing one keypoint JSON per frame in a segment-specific
// subdirectory. Pose estimation is by far the most expensive stage, so
// existing output is reused instead of recomputed.
type Runner struct {
	binPath  string
	posesDir string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRunner(binPath, posesDir string, timeout time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		binPath:  binPath,
		posesDir: posesDir,
		timeout:  timeout,
		logger:   logger,
	}
}

// CheckTool verifies the binary is configured and executable. The
// driver runs this before touching any record: a misconfigured tool
// would fail every record identically.
func (r *Runner) CheckTool() error {
	if r.binPath == "" {
		return fmt.Errorf("%w: OPENPOSE_PATH not set", entity.ErrPoseToolMissing)
	}
	st, err := os.Stat(r.binPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", entity.ErrPoseToolMissing, r.binPath, err)
	}
	if st.IsDir() || st.Mode()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", entity.ErrPoseToolMissing, r.binPath)
	}
	return nil
}

func (r *Runner) EstimatePose(ctx context.Context, segment *entity.SegmentAsset) (*entity.PoseResult, error) {
	if err := r.CheckTool(); err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(segment.LocalPath), filepath.Ext(segment.LocalPath))
	outDir := filepath.Join(r.posesDir, stem)

	// Idempotence: existing keypoint files mean this segment was
	// already processed in a previous run.
	if frames, err := keypointFiles(outDir); err == nil && len(frames) > 0 {
		r.logger.Debug("pose output already exists, skipping",
			zap.String("segment", stem),
			zap.Int("frames", len(frames)),
		)
		return &entity.PoseResult{Segment: *segment, OutputDir: outDir, FramePaths: frames}, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", entity.ErrPoseExtraction, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binPath,
		"--video", segment.LocalPath,
		"--write_json", outDir,
		"--display", "0",
		"--render_pose", "0",
	)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	metrics.StageDuration.WithLabelValues("pose").Observe(time.Since(start).Seconds())
	if err != nil {
		// Drop whatever the tool managed to write: a truncated
		// output dir would pass the idempotence check on re-run.
		os.RemoveAll(outDir)
		return nil, fmt.Errorf("%w: %s: %v: %s", entity.ErrPoseExtraction, stem, err, firstLine(output))
	}

	frames, err := keypointFiles(outDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list output: %v", entity.ErrPoseExtraction, err)
	}
	if len(frames) == 0 {
		os.RemoveAll(outDir)
		return nil, fmt.Errorf("%w: no keypoint files produced for %s", entity.ErrPoseExtraction, stem)
	}

	metrics.PoseFramesTotal.Add(float64(len(frames)))
	r.logger.Info("pose extracted",
		zap.String("segment", stem),
		zap.Int("frames", len(frames)),
	)
	return &entity.PoseResult{Segment: *segment, OutputDir: outDir, FramePaths: frames}, nil
}

// keypointFiles lists the per-frame JSON outputs in frame order. The
// tool numbers files with zero-padded frame indices, so lexical order
// is frame order.
func keypointFiles(dir string) ([]string, error) {
	frames, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(frames)
	return frames, nil
}

func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
