package report

import (
	"strings"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// FillStats counts how many dataset rows found their dealer in the template.
type FillStats struct {
	Matched int
	Skipped int
}

// Filler writes aggregated dealer rows into the cells of an upload template.
type Filler struct {
	schema domain.ReportSchema
}

func NewFiller(schema domain.ReportSchema) *Filler {
	return &Filler{schema: schema}
}

// ResolveColumn maps a template column onto the export column feeding it: the
// trailing period qualifier ("LM", "MTD", ...) is removed and the alias table
// applied. Every column resolves to some name.
func (f *Filler) ResolveColumn(templateColumn string) string {
	base := templateColumn
	if i := strings.LastIndex(templateColumn, " "); i > 0 {
		base = templateColumn[:i]
	}
	if alias, ok := f.schema.Aliases[base]; ok {
		return alias
	}
	return base
}

// Fill copies values from dataset into template, matching rows on the dealer
// key. Dealers unknown to the template and columns missing from the dataset are
// left alone. The template is modified in place and returned.
func (f *Filler) Fill(template, dataset *domain.Table) (*domain.Table, FillStats) {
	var stats FillStats

	index := make(map[string]int, len(template.Rows))
	for i, row := range template.Rows {
		key := keyString(row[f.schema.TemplateKeyColumn])
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	sources := make(map[string]string, len(template.Columns))
	for _, col := range template.Columns {
		switch col {
		case f.schema.TemplateKeyColumn:
		case f.schema.FlagColumn:
			sources[col] = col
		default:
			sources[col] = f.ResolveColumn(col)
		}
	}

	for _, row := range dataset.Rows {
		i, ok := index[keyString(row[f.schema.DealerColumn])]
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Matched++

		target := template.Rows[i]
		for _, col := range template.Columns {
			src, ok := sources[col]
			if !ok {
				continue
			}
			if v, present := row[src]; present {
				target[col] = v
			}
		}
	}
	return template, stats
}

// ZeroTemplate resets every metric cell to zero and fills blank key and flag
// cells with zero.
func (f *Filler) ZeroTemplate(template *domain.Table) *domain.Table {
	for _, row := range template.Rows {
		for _, col := range template.Columns {
			switch col {
			case f.schema.TemplateKeyColumn, f.schema.FlagColumn:
				if isBlank(row[col]) {
					row[col] = decimal.Zero
				}
			default:
				row[col] = decimal.Zero
			}
		}
	}
	return template
}
