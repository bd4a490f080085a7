package api

type Period struct {
	Cadence string   `json:"cadence"`
	Title   string   `json:"title"`
	AsOf    string   `json:"as_of"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Days    int      `json:"days"`
	Labels  []string `json:"labels"`
}

type Run struct {
	ID          string  `json:"id"`
	Cadence     string  `json:"cadence"`
	Status      string  `json:"status"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  *string `json:"finished_at,omitempty"`
	Artifact    string  `json:"artifact,omitempty"`
	Rows        int     `json:"rows"`
	Matched     int     `json:"matched"`
	Skipped     int     `json:"skipped"`
	Error       *string `json:"error,omitempty"`
}

type RunList struct {
	Runs []Run `json:"runs"`
}

type Error struct {
	Error string `json:"error"`
}
