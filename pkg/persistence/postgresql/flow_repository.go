package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// GetAll returns every flow ordered by creation time, then flow id.
func (fr *FlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	query := `
		SELECT flow_id, user_name, ts_epoch
		FROM flows
		ORDER BY ts_epoch ASC, flow_id ASC
	`

	flows, err := queryAll(ctx, fr.db, fr.logger, fr.scanFlow, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get flows: %w", err)
	}

	return flows, nil
}

// Save inserts a flow or updates its owner.
func (fr *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	if flow.FlowID == "" {
		return persistence.NewFlowError("Save", flow.FlowID, persistence.ErrInvalidRecord)
	}

	query := `
		INSERT INTO flows (flow_id, user_name, ts_epoch)
		VALUES ($1, $2, $3)
		ON CONFLICT (flow_id) DO UPDATE SET
			user_name = EXCLUDED.user_name
	`

	_, err := fr.db.ExecContext(ctx, query, flow.FlowID, flow.UserName, flow.TsEpoch)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}

	return nil
}

func (fr *FlowRepository) scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow     models.Flow
		userName sql.NullString
	)

	err := row.Scan(&flow.FlowID, &userName, &flow.TsEpoch)
	if err != nil {
		return nil, err
	}

	flow.UserName = userName.String

	return &flow, nil
}
