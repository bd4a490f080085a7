package report

import (
	"testing"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() domain.ReportSchema {
	return domain.ReportSchema{
		Columns:           []string{"Dealer Salesforce ID", "Compulsory", "Total Leads", "Cars Solds", "Trade-ins"},
		DealerColumn:      "Dealer Salesforce ID",
		TemplateKeyColumn: "Account ID - 18",
		FlagColumn:        "Compulsory",
		PeriodColumns:     []string{"Year/Month::multi-filter", "YearMonth"},
		Aliases: map[string]string{
			"Cars Sold": "Cars Solds",
			"Trade-Ins": "Trade-ins",
		},
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertDecimal(t *testing.T, want int64, got any) {
	t.Helper()
	d, ok := got.(decimal.Decimal)
	if !ok {
		t.Errorf("expected decimal %d, got %T(%v)", want, got, got)
		return
	}
	if !d.Equal(decimal.NewFromInt(want)) {
		t.Errorf("expected %d, got %s", want, d)
	}
}

func assertTablesEquivalent(t *testing.T, want, got *domain.Table) {
	t.Helper()
	require.Equal(t, want.Columns, got.Columns)
	require.Len(t, got.Rows, len(want.Rows))
	for i := range want.Rows {
		for _, col := range want.Columns {
			w, g := want.Rows[i][col], got.Rows[i][col]
			if wd, ok := w.(decimal.Decimal); ok {
				gd, ok := g.(decimal.Decimal)
				require.True(t, ok, "row %d column %q: expected decimal, got %T", i, col, g)
				assert.True(t, wd.Equal(gd), "row %d column %q: expected %s, got %s", i, col, wd, gd)
				continue
			}
			assert.Equal(t, w, g, "row %d column %q", i, col)
		}
	}
}
