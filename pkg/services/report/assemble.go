package report

import (
	"context"
	"fmt"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
)

// TemplateLoader fetches the upload template of a cadence.
type TemplateLoader interface {
	LoadTemplate(ctx context.Context, cadence domain.Cadence) (*domain.Table, error)
}

// Assembler merges regional datasets into a freshly zeroed template.
type Assembler struct {
	filler *Filler
	loader TemplateLoader
}

func NewAssembler(schema domain.ReportSchema, loader TemplateLoader) *Assembler {
	return &Assembler{filler: NewFiller(schema), loader: loader}
}

// Concat appends tables in order; no deduplication happens across them.
func Concat(tables ...*domain.Table) *domain.Table {
	out := domain.NewTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			out.AddColumn(c)
		}
		out.Append(t.Rows...)
	}
	return out
}

// Assemble builds the final report of a cadence from regional datasets given
// in output order.
func (a *Assembler) Assemble(ctx context.Context, cadence domain.Cadence, regional ...*domain.Table) (*domain.Table, FillStats, error) {
	if !cadence.Valid() {
		return nil, FillStats{}, fmt.Errorf("%w: %q", domain.ErrInvalidCadence, cadence)
	}

	combined := Concat(regional...)

	template, err := a.loader.LoadTemplate(ctx, cadence)
	if err != nil {
		return nil, FillStats{}, fmt.Errorf("failed to load %s template: %w", cadence.Title(), err)
	}
	if !template.HasColumn(a.filler.schema.TemplateKeyColumn) {
		return nil, FillStats{}, fmt.Errorf("%w: template has no %q column",
			domain.ErrMissingKeyColumn, a.filler.schema.TemplateKeyColumn)
	}

	a.filler.ZeroTemplate(template)
	filled, stats := a.filler.Fill(template, combined)
	return filled, stats, nil
}
