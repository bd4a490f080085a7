package report

import (
	"fmt"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
)

// Filter narrows a raw export to the months of the cadence, projects it onto the
// report columns and aggregates it per dealer.
func Filter(table *domain.Table, cadence domain.Cadence, start time.Time, schema domain.ReportSchema) (*domain.Table, error) {
	periodColumn, err := findPeriodColumn(table, schema.PeriodColumns)
	if err != nil {
		return nil, err
	}

	labels, err := BuildPeriodLabels(cadence, start)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(labels))
	for _, l := range labels {
		wanted[l] = true
	}

	declared := make(map[string]bool, len(schema.Columns))
	for _, c := range schema.Columns {
		declared[c] = true
	}
	var columns []string
	for _, c := range table.Columns {
		if declared[c] {
			columns = append(columns, c)
		}
	}

	projected := domain.NewTable(columns...)
	for _, row := range table.Rows {
		if !wanted[keyString(row[periodColumn])] {
			continue
		}
		out := make(domain.Row, len(columns))
		for _, c := range columns {
			out[c] = row[c]
		}
		projected.Append(out)
	}

	var exempt []string
	if schema.FlagColumn != "" {
		exempt = append(exempt, schema.FlagColumn)
	}
	return Aggregate(projected, schema.DealerColumn, exempt...)
}

func findPeriodColumn(table *domain.Table, candidates []string) (string, error) {
	for _, c := range candidates {
		if table.HasColumn(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: expected one of %q", domain.ErrMissingPeriodColumn, candidates)
}
