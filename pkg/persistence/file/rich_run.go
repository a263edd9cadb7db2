package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

// RichRunRepository handles rich run file operations.
type RichRunRepository struct {
	root  string
	runs  *RunRepository
	now   func() time.Time
	locks sync.Map // models.RunKey -> *sync.Mutex
}

// NewRichRunRepository creates a new rich run repository. Runs are looked up
// through runs to keep every rich run attached to an existing run.
func NewRichRunRepository(root string, runs *RunRepository) *RichRunRepository {
	return &RichRunRepository{root: root, runs: runs, now: time.Now}
}

// GetAllByFlow returns the rich runs of a flow ordered by run number.
func (rrr *RichRunRepository) GetAllByFlow(_ context.Context, flowID string) ([]*models.RichRun, error) {
	richRuns, err := listJSON[models.RichRun](filepath.Join(rrr.root, "rich_runs", flowDir(flowID)))
	if err != nil {
		return nil, err
	}

	sort.Slice(richRuns, func(i, j int) bool {
		return richRuns[i].RunNumber < richRuns[j].RunNumber
	})

	return richRuns, nil
}

func (rrr *RichRunRepository) GetByKey(_ context.Context, flowID string, runNumber int64) (*models.RichRun, error) {
	richRun, err := readJSON[models.RichRun](rrr.path(flowID, runNumber))
	if err != nil {
		return nil, err
	}

	if richRun == nil {
		return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRichRunNotFound)
	}

	return richRun, nil
}

// GetSince returns the rich runs of a flow created at or after since, oldest first.
func (rrr *RichRunRepository) GetSince(ctx context.Context, flowID string, since int64) ([]*models.RichRun, error) {
	all, err := rrr.GetAllByFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}

	richRuns := make([]*models.RichRun, 0, len(all))

	for _, richRun := range all {
		if richRun.TsEpoch >= since {
			richRuns = append(richRuns, richRun)
		}
	}

	sort.SliceStable(richRuns, func(i, j int) bool {
		return richRuns[i].TsEpoch < richRuns[j].TsEpoch
	})

	return richRuns, nil
}

// Upsert creates or updates the rich run of an existing run. Concurrent
// upserts of the same key are serialised so the creation time survives.
func (rrr *RichRunRepository) Upsert(ctx context.Context, row *models.RichRunRow) (*models.RichRun, error) {
	_, err := rrr.runs.GetByKey(ctx, row.FlowID, row.RunNumber)
	if err != nil {
		return nil, persistence.NewRunError("Upsert", row.FlowID, row.RunNumber, err)
	}

	lock := rrr.lock(row.Key())
	lock.Lock()
	defer lock.Unlock()

	path := rrr.path(row.FlowID, row.RunNumber)

	existing, err := readJSON[models.RichRun](path)
	if err != nil {
		return nil, err
	}

	richRun := row.Apply(existing, rrr.now().UnixMilli())

	err = writeJSON(path, richRun)
	if err != nil {
		return nil, fmt.Errorf("failed to save rich run: %w", err)
	}

	return richRun, nil
}

func (rrr *RichRunRepository) lock(key models.RunKey) *sync.Mutex {
	lock, _ := rrr.locks.LoadOrStore(key, &sync.Mutex{})

	return lock.(*sync.Mutex)
}

func (rrr *RichRunRepository) path(flowID string, runNumber int64) string {
	return filepath.Join(rrr.root, "rich_runs", flowDir(flowID), strconv.FormatInt(runNumber, 10)+".json")
}
