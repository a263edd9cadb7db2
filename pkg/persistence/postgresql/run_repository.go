package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/lib/pq"
)

// foreignKeyViolation is the SQLSTATE raised when a referenced row is missing.
const foreignKeyViolation = "23503"

// RunRepository handles run-related database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// GetAllByFlow returns the runs of a flow ordered by run number.
func (rr *RunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.Run, error) {
	query := `
		SELECT flow_id, run_number, user_name, ts_epoch
		FROM runs
		WHERE flow_id = $1
		ORDER BY run_number ASC
	`

	runs, err := queryAll(ctx, rr.db, rr.logger, rr.scanRun, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs for flow %s: %w", flowID, err)
	}

	return runs, nil
}

// GetByKey returns one run.
func (rr *RunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.Run, error) {
	query := `
		SELECT flow_id, run_number, user_name, ts_epoch
		FROM runs
		WHERE flow_id = $1 AND run_number = $2
	`

	run, err := rr.scanRun(rr.db.QueryRowContext(ctx, query, flowID, runNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return run, nil
}

// Save inserts a run. The flow must exist.
func (rr *RunRepository) Save(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (flow_id, run_number, user_name, ts_epoch)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (flow_id, run_number) DO UPDATE SET
			user_name = EXCLUDED.user_name
	`

	_, err := rr.db.ExecContext(ctx, query, run.FlowID, run.RunNumber, run.UserName, run.TsEpoch)
	if err != nil {
		if isForeignKeyViolation(err) {
			return persistence.NewFlowError("Save", run.FlowID, persistence.ErrFlowNotFound)
		}

		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

func (rr *RunRepository) scanRun(row scanner) (*models.Run, error) {
	var (
		run      models.Run
		userName sql.NullString
	)

	err := row.Scan(&run.FlowID, &run.RunNumber, &userName, &run.TsEpoch)
	if err != nil {
		return nil, err
	}

	run.UserName = userName.String

	return &run, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
