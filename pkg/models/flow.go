// Package models defines the flow, run and rich run records served by the metadata API.
package models

// AllFlows is the flow id sentinel that expands to every known flow.
const AllFlows = "all"

// Flow is a named workflow definition. Runs belong to exactly one flow.
type Flow struct {
	FlowID   string `json:"flow_id"   validate:"required"`
	UserName string `json:"user_name"`
	TsEpoch  int64  `json:"ts_epoch"`
}
