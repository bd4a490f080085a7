package domain

// ReportSchema carries the column conventions shared by the source exports and
// the upload templates.
type ReportSchema struct {
	Columns           []string          // canonical export columns kept in a report
	DealerColumn      string            // dealer key in the source exports
	TemplateKeyColumn string            // dealer key in the templates
	FlagColumn        string            // copied verbatim, never summed
	PeriodColumns     []string          // accepted names of the month-year column
	Aliases           map[string]string // template base name -> export column
}
