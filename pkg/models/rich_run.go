package models

// RichRun carries the execution outcome of a run. It shares the run's key pair.
type RichRun struct {
	FlowID          string `json:"flow_id"`
	RunNumber       int64  `json:"run_number"`
	Success         *bool  `json:"success"` // nil when the outcome is unknown
	Finished        bool   `json:"finished"`
	FinishedAt      *int64 `json:"finished_at"`
	ExecutionLength *int64 `json:"execution_length"`
	TsEpoch         int64  `json:"ts_epoch"` // creation time, epoch milliseconds
}

// RichRunRow is the write model of an upsert. Absent fields stay nil.
type RichRunRow struct {
	FlowID          string `json:"flow_id"          validate:"required"`
	RunNumber       int64  `json:"run_number"       validate:"min=0"`
	Success         *bool  `json:"success"`
	Finished        *bool  `json:"finished"`
	FinishedAt      *int64 `json:"finished_at"`
	ExecutionLength *int64 `json:"execution_length"`
}

// Key returns the row's key pair.
func (r *RichRunRow) Key() RunKey {
	return RunKey{FlowID: r.FlowID, RunNumber: r.RunNumber}
}

// Apply writes the row's outcome fields onto a rich run. tsEpoch is only used
// when the rich run has no creation time yet.
func (r *RichRunRow) Apply(richRun *RichRun, tsEpoch int64) *RichRun {
	if richRun == nil {
		richRun = &RichRun{}
	}

	richRun.FlowID = r.FlowID
	richRun.RunNumber = r.RunNumber
	richRun.Success = r.Success
	richRun.Finished = r.Finished != nil && *r.Finished
	richRun.FinishedAt = r.FinishedAt
	richRun.ExecutionLength = r.ExecutionLength

	if richRun.TsEpoch == 0 {
		richRun.TsEpoch = tsEpoch
	}

	return richRun
}
