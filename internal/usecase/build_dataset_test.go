package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubAnnotations struct {
	records []entity.AnnotationRecord
	err     error
}

func (s *stubAnnotations) Load(string) ([]entity.AnnotationRecord, error) {
	return s.records, s.err
}

type stubFetcher struct {
	errs  map[string]error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, videoID string) (*entity.VideoAsset, error) {
	s.calls++
	if err, ok := s.errs[videoID]; ok {
		return nil, err
	}
	return &entity.VideoAsset{VideoID: videoID, LocalPath: videoID + ".mp4", ResolutionCap: 720}, nil
}

type stubTrimmer struct{}

func (s *stubTrimmer) Trim(_ context.Context, video *entity.VideoAsset, word string, startTime, endTime float64) (*entity.SegmentAsset, error) {
	if startTime < 0 || startTime >= endTime {
		return nil, fmt.Errorf("%w: [%.2f, %.2f)", entity.ErrInvalidRange, startTime, endTime)
	}
	return &entity.SegmentAsset{
		VideoID:   video.VideoID,
		Word:      word,
		StartTime: startTime,
		EndTime:   endTime,
		LocalPath: fmt.Sprintf("%s_%s.mp4", video.VideoID, word),
	}, nil
}

type stubPoser struct {
	checkErr error
	poseErr  error
}

func (s *stubPoser) CheckTool() error { return s.checkErr }

func (s *stubPoser) EstimatePose(_ context.Context, seg *entity.SegmentAsset) (*entity.PoseResult, error) {
	if s.poseErr != nil {
		return nil, s.poseErr
	}
	dir := fmt.Sprintf("poses/%s_%s", seg.VideoID, seg.Word)
	return &entity.PoseResult{
		Segment:    *seg,
		OutputDir:  dir,
		FramePaths: []string{filepath.Join(dir, "frame_000_keypoints.json")},
	}, nil
}

type recordedPose struct {
	word string
	pose *entity.PoseResult
}

type stubMapping struct {
	recorded    []recordedPose
	finalizeErr error
}

func (s *stubMapping) Record(word string, pose *entity.PoseResult) {
	s.recorded = append(s.recorded, recordedPose{word: word, pose: pose})
}

func (s *stubMapping) Finalize(context.Context) (string, error) {
	if s.finalizeErr != nil {
		return "", s.finalizeErr
	}
	return "metadata/word_pose_mapping.json", nil
}

type ledgerEntry struct {
	rec    entity.AnnotationRecord
	status entity.RecordStatus
}

type stubLedger struct {
	started  bool
	finished *entity.Run
	entries  []ledgerEntry
}

func (s *stubLedger) StartRun(context.Context, *entity.Run) error {
	s.started = true
	return nil
}

func (s *stubLedger) RecordResult(_ context.Context, _ uuid.UUID, rec entity.AnnotationRecord, status entity.RecordStatus, _, _ string) error {
	s.entries = append(s.entries, ledgerEntry{rec: rec, status: status})
	return nil
}

func (s *stubLedger) FinishRun(_ context.Context, run *entity.Run) error {
	s.finished = run
	return nil
}

func newTestUseCase(t *testing.T, annotations *stubAnnotations, fetcher *stubFetcher, poser *stubPoser, mapping *stubMapping, ledger *stubLedger) *BuildDatasetUseCase {
	t.Helper()
	uc := NewBuildDatasetUseCase(
		annotations, fetcher, &stubTrimmer{}, poser, mapping,
		nil, nil, nil,
		zaptest.NewLogger(t),
		BuildDatasetConfig{MetadataPath: "annotations.json"},
	)
	if ledger != nil {
		uc.ledger = ledger
	}
	return uc
}

func rec(videoID, word string, start, end float64) entity.AnnotationRecord {
	return entity.AnnotationRecord{VideoID: videoID, Word: word, StartTime: start, EndTime: end}
}

func TestExecuteHappyPath(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
		rec("abc123", "world", 4.0, 6.0),
	}}
	mapping := &stubMapping{}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, &stubPoser{}, mapping, nil)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 0, sum.Skipped)
	assert.Empty(t, sum.Failed)

	require.Len(t, mapping.recorded, 2)
	assert.Equal(t, "hello", mapping.recorded[0].word)
	assert.Equal(t, "world", mapping.recorded[1].word)
}

func TestExecuteUnavailableVideo(t *testing.T) {
	record := rec("abc123", "hello", 1.0, 3.0)
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{record}}
	fetcher := &stubFetcher{errs: map[string]error{
		"abc123": fmt.Errorf("%w: abc123", entity.ErrVideoNotFound),
	}}
	mapping := &stubMapping{}
	uc := newTestUseCase(t, annotations, fetcher, &stubPoser{}, mapping, nil)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 0, sum.Skipped)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, record, sum.Failed[0].Record)
	assert.ErrorIs(t, sum.Failed[0].Err, entity.ErrVideoNotFound)

	// Nothing recorded for the failed word.
	assert.Empty(t, mapping.recorded)
}

func TestExecuteInvalidRangeDoesNotStopBatch(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "broken", 3.0, 1.0),
		rec("abc123", "hello", 1.0, 3.0),
	}}
	mapping := &stubMapping{}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, &stubPoser{}, mapping, nil)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	require.Len(t, sum.Failed, 1)
	assert.ErrorIs(t, sum.Failed[0].Err, entity.ErrInvalidRange)

	require.Len(t, mapping.recorded, 1)
	assert.Equal(t, "hello", mapping.recorded[0].word)
}

func TestExecuteSkipsDuplicateTuples(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
		rec("abc123", "hello", 1.0, 3.0),
	}}
	mapping := &stubMapping{}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, &stubPoser{}, mapping, nil)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, sum.Failed)
	assert.Len(t, mapping.recorded, 1)
}

func TestExecutePoseToolMissingAborts(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
	}}
	fetcher := &stubFetcher{}
	poser := &stubPoser{checkErr: fmt.Errorf("%w: OPENPOSE_PATH not set", entity.ErrPoseToolMissing)}
	uc := newTestUseCase(t, annotations, fetcher, poser, &stubMapping{}, nil)

	_, err := uc.Execute(context.Background())
	require.ErrorIs(t, err, entity.ErrPoseToolMissing)
	// Pre-flight failure: no record was attempted.
	assert.Zero(t, fetcher.calls)
}

func TestExecuteMalformedMetadataAborts(t *testing.T) {
	annotations := &stubAnnotations{err: fmt.Errorf("%w: parse", entity.ErrMalformedMetadata)}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, &stubPoser{}, &stubMapping{}, nil)

	_, err := uc.Execute(context.Background())
	require.ErrorIs(t, err, entity.ErrMalformedMetadata)
}

func TestExecutePersistenceFailureIsFatal(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
	}}
	mapping := &stubMapping{finalizeErr: fmt.Errorf("%w: disk full", entity.ErrPersistence)}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, &stubPoser{}, mapping, nil)

	_, err := uc.Execute(context.Background())
	require.ErrorIs(t, err, entity.ErrPersistence)
}

func TestExecutePerRecordPoseFailure(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
	}}
	poser := &stubPoser{poseErr: fmt.Errorf("%w: exit 1", entity.ErrPoseExtraction)}
	uc := newTestUseCase(t, annotations, &stubFetcher{}, poser, &stubMapping{}, nil)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Processed)
	require.Len(t, sum.Failed, 1)
	assert.ErrorIs(t, sum.Failed[0].Err, entity.ErrPoseExtraction)
}

func TestExecuteRecordsLedger(t *testing.T) {
	annotations := &stubAnnotations{records: []entity.AnnotationRecord{
		rec("abc123", "hello", 1.0, 3.0),
		rec("abc123", "hello", 1.0, 3.0),
		rec("gone01", "world", 0.0, 2.0),
	}}
	fetcher := &stubFetcher{errs: map[string]error{
		"gone01": fmt.Errorf("%w: gone01", entity.ErrVideoNotFound),
	}}
	ledger := &stubLedger{}
	uc := newTestUseCase(t, annotations, fetcher, &stubPoser{}, &stubMapping{}, ledger)

	sum, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, ledger.started)
	require.NotNil(t, ledger.finished)
	assert.Equal(t, sum.Processed, ledger.finished.Processed)
	assert.Equal(t, sum.Skipped, ledger.finished.Skipped)
	assert.Equal(t, len(sum.Failed), ledger.finished.Failed)

	require.Len(t, ledger.entries, 3)
	assert.Equal(t, entity.RecordStatusCompleted, ledger.entries[0].status)
	assert.Equal(t, entity.RecordStatusSkipped, ledger.entries[1].status)
	assert.Equal(t, entity.RecordStatusFailed, ledger.entries[2].status)
}
