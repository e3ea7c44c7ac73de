package postgres

import (
	"context"
	"fmt"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger stores run and per-record outcomes so operators can audit
// large batches and re-run only what failed.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) StartRun(ctx context.Context, run *entity.Run) error {
	query := `
		INSERT INTO dataset_runs (id, metadata_path, started_at)
		VALUES ($1, $2, $3)`

	_, err := l.pool.Exec(ctx, query, run.ID, run.MetadataPath, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (l *Ledger) RecordResult(ctx context.Context, runID uuid.UUID, rec entity.AnnotationRecord, status entity.RecordStatus, poseDir, errMsg string) error {
	query := `
		INSERT INTO dataset_records (
			id, run_id, video_id, word, start_time, end_time,
			status, pose_dir, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := l.pool.Exec(ctx, query,
		uuid.New(), runID, rec.VideoID, rec.Word, rec.StartTime, rec.EndTime,
		string(status), poseDir, errMsg,
	)
	if err != nil {
		return fmt.Errorf("insert record result: %w", err)
	}
	return nil
}

func (l *Ledger) FinishRun(ctx context.Context, run *entity.Run) error {
	query := `
		UPDATE dataset_runs SET
			finished_at=$2, processed=$3, skipped=$4, failed=$5, mapping_key=$6
		WHERE id=$1`

	_, err := l.pool.Exec(ctx, query,
		run.ID, run.FinishedAt, run.Processed, run.Skipped, run.Failed, run.MappingKey,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
