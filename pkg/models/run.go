package models

// Run is one execution of a flow, identified by (FlowID, RunNumber).
type Run struct {
	FlowID    string `json:"flow_id"    validate:"required"`
	RunNumber int64  `json:"run_number" validate:"min=0"`
	UserName  string `json:"user_name"`
	TsEpoch   int64  `json:"ts_epoch"` // creation time, epoch milliseconds
}

// RunKey identifies a run and its rich run companion.
type RunKey struct {
	FlowID    string `validate:"required"`
	RunNumber int64  `validate:"min=0"`
}
