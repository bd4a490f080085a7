package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(42), ParseValue(" 42 "))
	assert.Equal(t, 2.5, ParseValue("2.5"))
	assert.Equal(t, "Jan 2024", ParseValue("Jan 2024"))
	assert.Nil(t, ParseValue("   "))

	for _, s := range []string{"NaN", "Inf", "-Inf", "infinity", "+Infinity"} {
		assert.Equal(t, s, ParseValue(s))
	}
}

func TestReadCSV_NonFiniteStaysText(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("Dealer Salesforce ID,Cars Solds\nD1,NaN\nD1,Inf\nD1,2\n"))
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "NaN", table.Rows[0]["Cars Solds"])
	assert.Equal(t, "Inf", table.Rows[1]["Cars Solds"])
	assert.Equal(t, int64(2), table.Rows[2]["Cars Solds"])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "12.5", FormatValue(decimal.RequireFromString("12.50")))
	assert.Equal(t, "3", FormatValue(3.0))
	assert.Equal(t, "7", FormatValue(int64(7)))
	assert.Equal(t, "Yes", FormatValue("Yes"))
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffAccount ID - 18,Compulsory,Cars Sold LM\n001A,Yes,3\n001B,,\n001C\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Account ID - 18", "Compulsory", "Cars Sold LM"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "001A", table.Rows[0]["Account ID - 18"])
	assert.Equal(t, int64(3), table.Rows[0]["Cars Sold LM"])
	assert.Nil(t, table.Rows[1]["Compulsory"])
	assert.Nil(t, table.Rows[2]["Cars Sold LM"])
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSV_KeepsColumnOrder(t *testing.T) {
	table := domain.NewTable("Account ID - 18", "Cars Sold LM", "Compulsory")
	table.Append(domain.Row{"Account ID - 18": "001A", "Cars Sold LM": decimal.NewFromInt(5), "Compulsory": "Yes"})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "Account ID - 18,Cars Sold LM,Compulsory\n001A,5,Yes\n", buf.String())
}

func TestXLSX_WriteThenRead(t *testing.T) {
	table := domain.NewTable("Account ID - 18", "Cars Sold LM", "Compulsory")
	table.Append(
		domain.Row{"Account ID - 18": "001A", "Cars Sold LM": decimal.NewFromInt(5), "Compulsory": "Yes"},
		domain.Row{"Account ID - 18": "001B", "Cars Sold LM": decimal.Zero, "Compulsory": nil},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, table.Columns, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "001A", got.Rows[0]["Account ID - 18"])
	assert.Equal(t, int64(5), got.Rows[0]["Cars Sold LM"])
	assert.Equal(t, int64(0), got.Rows[1]["Cars Sold LM"])
	assert.Nil(t, got.Rows[1]["Compulsory"])
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("Templates/Yearly Template.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("Templates/Yearly Template.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("export"))
}
