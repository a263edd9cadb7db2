package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

// RunRepository handles run-related file operations.
type RunRepository struct {
	root string
}

// NewRunRepository creates a new run repository.
func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

// GetAllByFlow returns the runs of a flow ordered by run number.
func (rr *RunRepository) GetAllByFlow(_ context.Context, flowID string) ([]*models.Run, error) {
	runs, err := listJSON[models.Run](filepath.Join(rr.root, "runs", flowDir(flowID)))
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].RunNumber < runs[j].RunNumber
	})

	return runs, nil
}

func (rr *RunRepository) GetByKey(_ context.Context, flowID string, runNumber int64) (*models.Run, error) {
	run, err := readJSON[models.Run](rr.path(flowID, runNumber))
	if err != nil {
		return nil, err
	}

	if run == nil {
		return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRunNotFound)
	}

	return run, nil
}

// Save writes a run. The flow must exist.
func (rr *RunRepository) Save(_ context.Context, run *models.Run) error {
	if run.FlowID == "" || run.RunNumber < 0 {
		return persistence.NewRunError("Save", run.FlowID, run.RunNumber, persistence.ErrInvalidRecord)
	}

	_, err := os.Stat(filepath.Join(rr.root, "flows", flowDir(run.FlowID)+".json"))
	if os.IsNotExist(err) {
		return persistence.NewFlowError("Save", run.FlowID, persistence.ErrFlowNotFound)
	}

	return writeJSON(rr.path(run.FlowID, run.RunNumber), run)
}

func (rr *RunRepository) path(flowID string, runNumber int64) string {
	return filepath.Join(rr.root, "runs", flowDir(flowID), strconv.FormatInt(runNumber, 10)+".json")
}
