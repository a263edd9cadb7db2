package file

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

// FlowRepository handles flow-related file operations.
type FlowRepository struct {
	root string
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{root: root}
}

// GetAll returns every flow ordered by creation time, then flow id.
func (fr *FlowRepository) GetAll(_ context.Context) ([]*models.Flow, error) {
	flows, err := listJSON[models.Flow](filepath.Join(fr.root, "flows"))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].TsEpoch != flows[j].TsEpoch {
			return flows[i].TsEpoch < flows[j].TsEpoch
		}

		return flows[i].FlowID < flows[j].FlowID
	})

	return flows, nil
}

func (fr *FlowRepository) Save(_ context.Context, flow *models.Flow) error {
	if flow.FlowID == "" {
		return persistence.NewFlowError("Save", flow.FlowID, persistence.ErrInvalidRecord)
	}

	return writeJSON(fr.path(flow.FlowID), flow)
}

func (fr *FlowRepository) path(flowID string) string {
	return filepath.Join(fr.root, "flows", flowDir(flowID)+".json")
}
