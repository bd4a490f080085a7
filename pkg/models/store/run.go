package store

import "time"

// Run mirrors a row of the report_runs table.
type Run struct {
	ID          string
	Cadence     string
	Status      string
	PeriodStart string
	PeriodEnd   string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Artifact    string
	Rows        int
	Matched     int
	Skipped     int
	Error       *string
}

type RunFilter struct {
	Cadence  string
	Statuses []string
	Limit    uint64
}
