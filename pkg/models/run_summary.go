package models

// RunSummary is the dashboard view of a run joined with its rich run.
type RunSummary struct {
	Success    *bool  `json:"success"`
	Finished   bool   `json:"finished"`
	FinishedAt *int64 `json:"finished_at"`
	CreatedAt  int64  `json:"created_at"`
	RunID      int64  `json:"run_id"`
	Flow       string `json:"flow"`
	User       string `json:"user"`
}

// NewRunSummary joins a run with its rich run. The flow is taken from the
// requested flow id so "all" expansions report the flow they were resolved to.
func NewRunSummary(flowID string, run *Run, richRun *RichRun) RunSummary {
	return RunSummary{
		Success:    richRun.Success,
		Finished:   richRun.Finished,
		FinishedAt: richRun.FinishedAt,
		CreatedAt:  run.TsEpoch,
		RunID:      run.RunNumber,
		Flow:       flowID,
		User:       run.UserName,
	}
}
