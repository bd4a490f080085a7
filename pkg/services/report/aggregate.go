package report

import (
	"fmt"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Aggregate collapses rows sharing the same key. Columns other than the key and
// the exempt ones are summed, exempt columns keep the first value seen. Output
// rows follow the order in which keys first appear.
func Aggregate(table *domain.Table, keyColumn string, exempt ...string) (*domain.Table, error) {
	if !table.HasColumn(keyColumn) {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingKeyColumn, keyColumn)
	}

	kept := make(map[string]bool, len(exempt)+1)
	kept[keyColumn] = true
	for _, c := range exempt {
		kept[c] = true
	}

	type group struct {
		first domain.Row
		sums  map[string]decimal.Decimal
	}
	var order []string
	groups := make(map[string]*group)

	for _, row := range table.Rows {
		key := keyString(row[keyColumn])
		g, ok := groups[key]
		if !ok {
			g = &group{first: row, sums: make(map[string]decimal.Decimal)}
			groups[key] = g
			order = append(order, key)
		}
		for _, col := range table.Columns {
			if kept[col] {
				continue
			}
			n, _ := toDecimal(row[col])
			g.sums[col] = g.sums[col].Add(n)
		}
	}

	out := domain.NewTable(table.Columns...)
	out.Rows = make([]domain.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := make(domain.Row, len(table.Columns))
		for _, col := range table.Columns {
			if kept[col] {
				row[col] = g.first[col]
				continue
			}
			row[col] = g.sums[col]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
