package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fakeTool(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// fakeProbe reports a fixed duration without touching ffprobe.
func fakeProbe(t *testing.T, duration float64) string {
	return fakeTool(t, "ffprobe", fmt.Sprintf(`echo "%.1f"`, duration))
}

func testVideo(t *testing.T) *entity.VideoAsset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc123.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a real container"), 0o644))
	return &entity.VideoAsset{VideoID: "abc123", LocalPath: path, ResolutionCap: 720}
}

func TestSegmentFileNameDeterministic(t *testing.T) {
	name := SegmentFileName("abc123", "hello", 1.0, 3.0)
	assert.Equal(t, "abc123_hello_1.00-3.00.mp4", name)
	assert.Equal(t, name, SegmentFileName("abc123", "hello", 1.0, 3.0))
}

func TestSegmentFileNameSanitizesWord(t *testing.T) {
	name := SegmentFileName("abc123", "y'all/are", 0.0, 1.0)
	assert.Equal(t, "abc123_y_all_are_0.00-1.00.mp4", name)
}

func TestTrimRejectsInvertedRange(t *testing.T) {
	// No binaries needed: the range is rejected before any probe.
	tr := NewTrimmer("/nonexistent/ffmpeg", "/nonexistent/ffprobe", t.TempDir(), time.Minute, zaptest.NewLogger(t))

	_, err := tr.Trim(context.Background(), testVideo(t), "hello", 3.0, 1.0)
	require.ErrorIs(t, err, entity.ErrInvalidRange)

	_, err = tr.Trim(context.Background(), testVideo(t), "hello", 2.0, 2.0)
	require.ErrorIs(t, err, entity.ErrInvalidRange)

	_, err = tr.Trim(context.Background(), testVideo(t), "hello", -1.0, 2.0)
	require.ErrorIs(t, err, entity.ErrInvalidRange)
}

func TestTrimRejectsRangeBeyondDuration(t *testing.T) {
	tr := NewTrimmer("/nonexistent/ffmpeg", fakeProbe(t, 5.0), t.TempDir(), time.Minute, zaptest.NewLogger(t))

	_, err := tr.Trim(context.Background(), testVideo(t), "hello", 1.0, 9.0)
	require.ErrorIs(t, err, entity.ErrInvalidRange)
}

func TestTrimReusesExistingSegment(t *testing.T) {
	segmentsDir := t.TempDir()
	existing := filepath.Join(segmentsDir, SegmentFileName("abc123", "hello", 1.0, 3.0))
	require.NoError(t, os.WriteFile(existing, []byte("segment bytes"), 0o644))

	// A bogus ffmpeg path proves the tool is never invoked.
	tr := NewTrimmer("/nonexistent/ffmpeg", fakeProbe(t, 10.0), segmentsDir, time.Minute, zaptest.NewLogger(t))

	seg, err := tr.Trim(context.Background(), testVideo(t), "hello", 1.0, 3.0)
	require.NoError(t, err)
	assert.Equal(t, existing, seg.LocalPath)
	assert.Equal(t, "hello", seg.Word)
}

func TestTrimToolFailure(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `echo "conversion failed" >&2; exit 1`)
	tr := NewTrimmer(bin, fakeProbe(t, 10.0), t.TempDir(), time.Minute, zaptest.NewLogger(t))

	_, err := tr.Trim(context.Background(), testVideo(t), "hello", 1.0, 3.0)
	require.ErrorIs(t, err, entity.ErrExtraction)
}

func TestTrimEmptyOutput(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `exit 0`)
	tr := NewTrimmer(bin, fakeProbe(t, 10.0), t.TempDir(), time.Minute, zaptest.NewLogger(t))

	_, err := tr.Trim(context.Background(), testVideo(t), "hello", 1.0, 3.0)
	require.ErrorIs(t, err, entity.ErrExtraction)
}

// TestTrimRealFFmpeg verifies the duration property against the real
// tools when they are installed.
func TestTrimRealFFmpeg(t *testing.T) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not installed")
	}

	ctx := context.Background()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "abc123.mp4")
	gen := exec.CommandContext(ctx, ffmpegPath,
		"-f", "lavfi", "-i", "testsrc=duration=5:size=320x240:rate=10",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-y", src,
	)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate test video: %v: %s", err, out)
	}

	tr := NewTrimmer(ffmpegPath, ffprobePath, t.TempDir(), time.Minute, zaptest.NewLogger(t))
	video := &entity.VideoAsset{VideoID: "abc123", LocalPath: src, ResolutionCap: 720}

	seg, err := tr.Trim(ctx, video, "hello", 1.0, 3.0)
	require.NoError(t, err)

	dur, err := ProbeDuration(ctx, ffprobePath, seg.LocalPath)
	require.NoError(t, err)
	// Duration equals end-start within one frame interval (10 fps).
	assert.InDelta(t, 2.0, dur, 0.1)
}
