package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

const richRunColumns = `flow_id, run_number, success, finished, finished_at, execution_length, ts_epoch`

// RichRunRepository handles rich run database operations.
type RichRunRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRichRunRepository creates a new rich run repository.
func NewRichRunRepository(db *sql.DB, logger *slog.Logger) *RichRunRepository {
	return &RichRunRepository{db: db, logger: logger, now: time.Now}
}

// GetAllByFlow returns the rich runs of a flow ordered by run number.
func (rrr *RichRunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.RichRun, error) {
	query := `SELECT ` + richRunColumns + `
		FROM rich_runs
		WHERE flow_id = $1
		ORDER BY run_number ASC
	`

	richRuns, err := queryAll(ctx, rrr.db, rrr.logger, rrr.scanRichRun, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rich runs for flow %s: %w", flowID, err)
	}

	return richRuns, nil
}

// GetByKey returns the rich run of one run.
func (rrr *RichRunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.RichRun, error) {
	query := `SELECT ` + richRunColumns + `
		FROM rich_runs
		WHERE flow_id = $1 AND run_number = $2
	`

	richRun, err := rrr.scanRichRun(rrr.db.QueryRowContext(ctx, query, flowID, runNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRichRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan rich run: %w", err)
	}

	return richRun, nil
}

// GetSince returns the rich runs of a flow created at or after since, oldest first.
func (rrr *RichRunRepository) GetSince(ctx context.Context, flowID string, since int64) ([]*models.RichRun, error) {
	query := `SELECT ` + richRunColumns + `
		FROM rich_runs
		WHERE flow_id = $1 AND ts_epoch >= $2
		ORDER BY ts_epoch ASC, run_number ASC
	`

	richRuns, err := queryAll(ctx, rrr.db, rrr.logger, rrr.scanRichRun, query, flowID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get rich runs for flow %s since %d: %w", flowID, since, err)
	}

	return richRuns, nil
}

// Upsert creates or updates the rich run of an existing run.
func (rrr *RichRunRepository) Upsert(ctx context.Context, row *models.RichRunRow) (*models.RichRun, error) {
	query := `
		INSERT INTO rich_runs (` + richRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (flow_id, run_number) DO UPDATE SET
			success = EXCLUDED.success,
			finished = EXCLUDED.finished,
			finished_at = EXCLUDED.finished_at,
			execution_length = EXCLUDED.execution_length
		RETURNING ` + richRunColumns

	richRun := row.Apply(nil, rrr.now().UnixMilli())

	result, err := rrr.scanRichRun(rrr.db.QueryRowContext(ctx, query,
		richRun.FlowID,
		richRun.RunNumber,
		richRun.Success,
		richRun.Finished,
		richRun.FinishedAt,
		richRun.ExecutionLength,
		richRun.TsEpoch,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, persistence.NewRunError("Upsert", row.FlowID, row.RunNumber, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to upsert rich run: %w", err)
	}

	return result, nil
}

func (rrr *RichRunRepository) scanRichRun(row scanner) (*models.RichRun, error) {
	var (
		richRun         models.RichRun
		success         sql.NullBool
		finishedAt      sql.NullInt64
		executionLength sql.NullInt64
	)

	err := row.Scan(
		&richRun.FlowID,
		&richRun.RunNumber,
		&success,
		&richRun.Finished,
		&finishedAt,
		&executionLength,
		&richRun.TsEpoch,
	)
	if err != nil {
		return nil, err
	}

	richRun.Success = nullBoolPtr(success)
	richRun.FinishedAt = nullInt64Ptr(finishedAt)
	richRun.ExecutionLength = nullInt64Ptr(executionLength)

	return &richRun, nil
}
