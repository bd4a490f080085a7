package domain

import "time"

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusFinished  RunStatus = "finished"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one attempt at producing the report of a cadence.
type Run struct {
	ID         string
	Cadence    Cadence
	Status     RunStatus
	Period     DateRange
	StartedAt  time.Time
	FinishedAt *time.Time
	Artifact   string
	Rows       int
	Matched    int
	Skipped    int
	Error      *string
}

// RegionSummary describes what a single regional feed contributed to a run.
type RegionSummary struct {
	Region       string
	RawRows      int
	FilteredRows int
	Export       string
}

// ReportResult is the outcome of a finished run together with its artifact.
type ReportResult struct {
	Run     Run
	Title   string
	Labels  []string
	Regions []RegionSummary
	Report  *Table
	Elapsed time.Duration
}
