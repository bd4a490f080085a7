package report

import (
	"math"
	"testing"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_MonthlyScenario(t *testing.T) {
	schema := testSchema()
	schema.Columns = []string{"id", "sales"}
	schema.DealerColumn = "id"
	schema.FlagColumn = ""

	raw := domain.NewTable("id", "YearMonth", "sales")
	raw.Append(
		domain.Row{"id": "D1", "YearMonth": "Jan 2024", "sales": 3},
		domain.Row{"id": "D1", "YearMonth": "Jan 2024", "sales": 2},
	)

	out, err := Filter(raw, domain.CadenceMonthly, date(2024, time.January, 1), schema)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, []string{"id", "sales"}, out.Columns)
	assert.Equal(t, "D1", out.Rows[0]["id"])
	assertDecimal(t, 5, out.Rows[0]["sales"])
}

func TestFilter_NonFiniteCellsCountAsZero(t *testing.T) {
	raw := domain.NewTable("Dealer Salesforce ID", "YearMonth", "Compulsory", "Total Leads")
	raw.Append(
		domain.Row{"Dealer Salesforce ID": "D1", "YearMonth": "Jan 2024", "Compulsory": "Yes", "Total Leads": math.NaN()},
		domain.Row{"Dealer Salesforce ID": "D1", "YearMonth": "Jan 2024", "Compulsory": "Yes", "Total Leads": "Inf"},
		domain.Row{"Dealer Salesforce ID": "D1", "YearMonth": "Jan 2024", "Compulsory": "Yes", "Total Leads": int64(2)},
	)

	out, err := Filter(raw, domain.CadenceMonthly, date(2024, time.January, 1), testSchema())
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assertDecimal(t, 2, out.Rows[0]["Total Leads"])
}

func TestFilter_RetainsOnlyRequestedMonths(t *testing.T) {
	raw := domain.NewTable("Dealer Salesforce ID", "Year/Month::multi-filter", "Compulsory", "Total Leads", "Internal Notes")
	raw.Append(
		domain.Row{"Dealer Salesforce ID": "D1", "Year/Month::multi-filter": "Dec 2023", "Compulsory": "Yes", "Total Leads": 4, "Internal Notes": "x"},
		domain.Row{"Dealer Salesforce ID": "D1", "Year/Month::multi-filter": "Nov 2023", "Compulsory": "Yes", "Total Leads": 100, "Internal Notes": "y"},
		domain.Row{"Dealer Salesforce ID": "D2", "Year/Month::multi-filter": "Jan 2024", "Compulsory": "No", "Total Leads": 1, "Internal Notes": "z"},
		domain.Row{"Dealer Salesforce ID": "D2", "Year/Month::multi-filter": "Jan 2023", "Compulsory": "No", "Total Leads": 1000, "Internal Notes": "z"},
	)

	out, err := Filter(raw, domain.CadenceYearly, date(2023, time.December, 1), testSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{"Dealer Salesforce ID", "Compulsory", "Total Leads"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assertDecimal(t, 4, out.Rows[0]["Total Leads"])
	assertDecimal(t, 1, out.Rows[1]["Total Leads"])
	assert.Equal(t, "Yes", out.Rows[0]["Compulsory"])
	_, hasNotes := out.Rows[0]["Internal Notes"]
	assert.False(t, hasNotes)
}

func TestFilter_MissingPeriodColumn(t *testing.T) {
	raw := domain.NewTable("Dealer Salesforce ID", "Month", "Total Leads")
	_, err := Filter(raw, domain.CadenceMonthly, date(2024, time.January, 1), testSchema())
	assert.ErrorIs(t, err, domain.ErrMissingPeriodColumn)
}

func TestFilter_MissingDealerColumn(t *testing.T) {
	raw := domain.NewTable("YearMonth", "Total Leads")
	raw.Append(domain.Row{"YearMonth": "Jan 2024", "Total Leads": 1})
	_, err := Filter(raw, domain.CadenceMonthly, date(2024, time.January, 1), testSchema())
	assert.ErrorIs(t, err, domain.ErrMissingKeyColumn)
}

func TestFilter_InvalidCadence(t *testing.T) {
	raw := domain.NewTable("Dealer Salesforce ID", "YearMonth")
	_, err := Filter(raw, domain.Cadence("Z"), date(2024, time.January, 1), testSchema())
	assert.ErrorIs(t, err, domain.ErrInvalidCadence)
}

func TestFilter_Deterministic(t *testing.T) {
	raw := domain.NewTable("Dealer Salesforce ID", "YearMonth", "Compulsory", "Total Leads", "Cars Solds")
	for i, id := range []string{"D3", "D1", "D2", "D1", "D3", "D4"} {
		raw.Append(domain.Row{
			"Dealer Salesforce ID": id,
			"YearMonth":            "Feb 2024",
			"Compulsory":           "Yes",
			"Total Leads":          i,
			"Cars Solds":           i * 2,
		})
	}

	first, err := Filter(raw, domain.CadenceMonthly, date(2024, time.February, 1), testSchema())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Filter(raw, domain.CadenceMonthly, date(2024, time.February, 1), testSchema())
		require.NoError(t, err)
		assertTablesEquivalent(t, first, again)
	}
}
