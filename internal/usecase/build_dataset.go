package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/TheMerjin/gloss2posefull/internal/domain/port"
	"github.com/TheMerjin/gloss2posefull/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BuildDatasetUseCase drives the batch: for every annotation record it
// fetches the source video, trims the word segment, runs pose
// estimation and records the word → pose mapping. Records are
// independent; one bad record never aborts the batch. Environment
// problems (missing pose tool, unwritable mapping) abort immediately.
type BuildDatasetUseCase struct {
	annotations port.AnnotationSource
	fetcher     port.VideoFetcher
	trimmer     port.SegmentTrimmer
	poser       port.PoseEstimator
	mapping     port.MappingBuilder
	ledger      port.RunLedger          // optional
	archiver    port.DatasetArchiver    // optional
	notifier    port.CompletionNotifier // optional
	logger      *zap.Logger
	cfg         BuildDatasetConfig
}

type BuildDatasetConfig struct {
	MetadataPath string
	NotifyTo     string
}

func NewBuildDatasetUseCase(
	annotations port.AnnotationSource,
	fetcher port.VideoFetcher,
	trimmer port.SegmentTrimmer,
	poser port.PoseEstimator,
	mapping port.MappingBuilder,
	ledger port.RunLedger,
	archiver port.DatasetArchiver,
	notifier port.CompletionNotifier,
	logger *zap.Logger,
	cfg BuildDatasetConfig,
) *BuildDatasetUseCase {
	return &BuildDatasetUseCase{
		annotations: annotations,
		fetcher:     fetcher,
		trimmer:     trimmer,
		poser:       poser,
		mapping:     mapping,
		ledger:      ledger,
		archiver:    archiver,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

func (uc *BuildDatasetUseCase) Execute(ctx context.Context) (*entity.RunSummary, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "BuildDatasetUseCase.Execute")
	defer span.End()

	// Pre-flight: both failures here would hit every record.
	records, err := uc.annotations.Load(uc.cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	if err := uc.poser.CheckTool(); err != nil {
		return nil, err
	}

	run := entity.NewRun(uc.cfg.MetadataPath)
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.Int("run.records", len(records)),
	)
	log := uc.logger.With(zap.String("run_id", run.ID.String()))
	log.Info("starting dataset build", zap.Int("records", len(records)))

	if uc.ledger != nil {
		if err := uc.ledger.StartRun(ctx, run); err != nil {
			log.Warn("ledger start failed, continuing without ledger", zap.Error(err))
			uc.ledger = nil
		}
	}

	sum := &entity.RunSummary{}
	seen := make(map[string]struct{}, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		recLog := log.With(
			zap.Int("index", i),
			zap.String("video_id", rec.VideoID),
			zap.String("word", rec.Word),
		)

		if _, dup := seen[rec.Key()]; dup {
			recLog.Info("duplicate annotation tuple, skipping")
			sum.Skipped++
			metrics.RecordsTotal.WithLabelValues("skipped").Inc()
			uc.recordLedger(ctx, run.ID, rec, entity.RecordStatusSkipped, "", "duplicate annotation tuple")
			continue
		}
		seen[rec.Key()] = struct{}{}

		pose, err := uc.processRecord(ctx, tracer, rec)
		if err != nil {
			if entity.IsFatal(err) {
				return sum, err
			}
			recLog.Warn("record failed, continuing", zap.Error(err))
			sum.AddFailure(rec, err)
			metrics.RecordsTotal.WithLabelValues("failed").Inc()
			uc.recordLedger(ctx, run.ID, rec, entity.RecordStatusFailed, "", err.Error())
			continue
		}

		uc.mapping.Record(rec.Word, pose)
		sum.Processed++
		metrics.RecordsTotal.WithLabelValues("processed").Inc()
		uc.recordLedger(ctx, run.ID, rec, entity.RecordStatusCompleted, pose.OutputDir, "")
	}

	mappingPath, err := uc.mapping.Finalize(ctx)
	if err != nil {
		return sum, err
	}

	mappingKey := uc.publishMapping(ctx, run.ID, mappingPath, log)

	run.Finish(sum, mappingKey)
	if uc.ledger != nil {
		if err := uc.ledger.FinishRun(ctx, run); err != nil {
			log.Warn("ledger finish failed", zap.Error(err))
		}
	}

	if uc.notifier != nil && uc.cfg.NotifyTo != "" {
		if err := uc.notifier.NotifySummary(ctx, uc.cfg.NotifyTo, run.ID.String(), sum); err != nil {
			log.Warn("summary notification failed", zap.Error(err))
		}
	}

	log.Info("dataset build finished",
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", len(sum.Failed)),
		zap.String("mapping", mappingPath),
	)
	return sum, nil
}

// processRecord runs the per-record fetch → trim → pose sequence.
func (uc *BuildDatasetUseCase) processRecord(ctx context.Context, tracer trace.Tracer, rec entity.AnnotationRecord) (*entity.PoseResult, error) {
	fetchCtx, spanFetch := tracer.Start(ctx, "fetch_video")
	video, err := uc.fetcher.Fetch(fetchCtx, rec.VideoID)
	spanFetch.End()
	if err != nil {
		return nil, err
	}

	trimCtx, spanTrim := tracer.Start(ctx, "extract_segment")
	segment, err := uc.trimmer.Trim(trimCtx, video, rec.Word, rec.StartTime, rec.EndTime)
	spanTrim.End()
	if err != nil {
		return nil, err
	}

	poseCtx, spanPose := tracer.Start(ctx, "extract_pose")
	pose, err := uc.poser.EstimatePose(poseCtx, segment)
	spanPose.End()
	if err != nil {
		return nil, err
	}

	return pose, nil
}

func (uc *BuildDatasetUseCase) recordLedger(ctx context.Context, runID uuid.UUID, rec entity.AnnotationRecord, status entity.RecordStatus, poseDir, errMsg string) {
	if uc.ledger == nil {
		return
	}
	if err := uc.ledger.RecordResult(ctx, runID, rec, status, poseDir, errMsg); err != nil {
		uc.logger.Warn("ledger record failed", zap.Error(err))
	}
}

// publishMapping uploads the mapping artifact when an archiver is
// configured. Upload failure is logged, not fatal: the mapping is
// already safe on disk.
func (uc *BuildDatasetUseCase) publishMapping(ctx context.Context, runID uuid.UUID, mappingPath string, log *zap.Logger) string {
	if uc.archiver == nil {
		return ""
	}
	start := time.Now()
	key, err := uc.archiver.PublishMapping(ctx, runID.String(), []string{mappingPath})
	if err != nil {
		log.Warn("mapping upload failed", zap.Error(err))
		return ""
	}
	log.Info("mapping uploaded",
		zap.String("key", key),
		zap.Duration("took", time.Since(start)),
	)
	return key
}

// SummaryReport renders the operator-facing run report.
func SummaryReport(sum *entity.RunSummary) string {
	report := fmt.Sprintf("processed=%d skipped=%d failed=%d", sum.Processed, sum.Skipped, len(sum.Failed))
	for _, f := range sum.Failed {
		report += fmt.Sprintf("\n  FAILED %s %q [%.2f, %.2f): %v",
			f.Record.VideoID, f.Record.Word, f.Record.StartTime, f.Record.EndTime, f.Err)
	}
	return report
}
