package models

// DailyCount is one bucket of the weekly activity histogram.
type DailyCount struct {
	Time  string `json:"time"` // "<month>/<day>"
	Count int    `json:"count"`
}
