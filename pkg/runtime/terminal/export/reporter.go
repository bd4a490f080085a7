package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
)

type TableConfig struct {
	ColumnWidths []int
}

// Column widths of the run table: id, cadence, status, period, rows, matched, skipped.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		ColumnWidths: []int{36, 7, 9, 23, 6, 7, 7},
	}
}

// FillSummary describes an offline fill.
type FillSummary struct {
	Period domain.Period
	Inputs []domain.RegionSummary
	Stats  report.FillStats
	Rows   int
	Output string
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

const periodTmpl = `{{.Cadence.Title}} period as of {{date .AsOf}}
Range:  {{.Range}} ({{.Range.Days}} days)
Labels: {{join .Labels ", "}}
`

const outcomesTmpl = `{{range .}}
=== {{.Cadence.Title}} ===
{{if .Err}}FAILED: {{.Err}}
{{else}}{{with .Result}}Report:  {{.Title}}
Saved:   {{.Run.Artifact}}
Period:  {{.Run.Period}} ({{join .Labels ", "}})
Dealers: {{.Run.Rows}} rows, {{.Run.Matched}} matched, {{.Run.Skipped}} skipped
{{range .Regions}}  {{.Region}}: {{.RawRows}} export rows -> {{.FilteredRows}} dealers{{if .Export}} ({{.Export}}){{end}}
{{end}}Elapsed: {{duration .Elapsed}}
{{end}}{{end}}{{end}}`

const runsTmpl = `{{separator}}
{{row "ID" "CADENCE" "STATUS" "PERIOD" "ROWS" "MATCHED" "SKIPPED"}}
{{separator}}
{{range .}}{{row .ID .Cadence.Title .Status .Period .Rows .Matched .Skipped}}
{{end}}{{separator}}
`

const fillTmpl = `{{.Period.Cadence.Title}} report ({{.Period.Range}}) written to {{.Output}}
{{range .Inputs}}  {{.Region}}: {{.RawRows}} export rows -> {{.FilteredRows}} dealers
{{end}}Dealers: {{.Rows}} rows, {{.Stats.Matched}} matched, {{.Stats.Skipped}} skipped
`

func (c *Reporter) HandlePeriod(period domain.Period) error {
	return c.render("period", periodTmpl, period)
}

func (c *Reporter) HandleOutcomes(outcomes []workflow.Outcome) error {
	return c.render("outcomes", outcomesTmpl, outcomes)
}

func (c *Reporter) HandleRuns(runs []*domain.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(c.writer, "No report runs recorded.")
		return err
	}
	return c.render("runs", runsTmpl, runs)
}

func (c *Reporter) HandleFill(summary FillSummary) error {
	return c.render("fill", fillTmpl, summary)
}

func (c *Reporter) render(name, text string, data any) error {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"date": func(t time.Time) string {
			return t.Format(domain.DateLayout)
		},
		"duration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"row": func(values ...any) string {
			cells := make([]string, len(values))
			for i, v := range values {
				cells[i] = fmt.Sprintf(" %-*v ", c.width(i), v)
			}
			return "|" + strings.Join(cells, "|") + "|"
		},
		"separator": func() string {
			cells := make([]string, len(c.config.ColumnWidths))
			for i := range cells {
				cells[i] = strings.Repeat("-", c.width(i)+2)
			}
			return "+" + strings.Join(cells, "+") + "+"
		},
	}

	t, err := template.New(name).Funcs(funcMap).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, data)
}

func (c *Reporter) width(i int) int {
	if i < len(c.config.ColumnWidths) {
		return c.config.ColumnWidths[i]
	}
	return 10
}
