package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadTemplate(t *testing.T) {
	dir := t.TempDir()
	content := "Account ID - 18,Compulsory,Cars Sold LM\n001A,Yes,4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Monthly Template.csv"), []byte(content), 0o644))

	s := NewStore(Settings{Dir: dir})

	t.Run("csv template", func(t *testing.T) {
		table, err := s.LoadTemplate(context.Background(), domain.CadenceMonthly)
		require.NoError(t, err)
		assert.Equal(t, []string{"Account ID - 18", "Compulsory", "Cars Sold LM"}, table.Columns)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := s.LoadTemplate(context.Background(), domain.CadenceYearly)
		assert.ErrorContains(t, err, "no Yearly template")
	})
}

func TestStore_LoadTemplate_XLSX(t *testing.T) {
	dir := t.TempDir()
	tmpl := domain.NewTable("Account ID - 18", "Cars Sold MTD")
	tmpl.Append(domain.Row{"Account ID - 18": "001A", "Cars Sold MTD": 2})
	require.NoError(t, WriteTable(filepath.Join(dir, "MTD Template.xlsx"), tmpl))

	table, err := NewStore(Settings{Dir: dir}).LoadTemplate(context.Background(), domain.CadenceWeekToDate)
	require.NoError(t, err)
	assert.Equal(t, "001A", table.Rows[0]["Account ID - 18"])
}

func TestStore_SaveTable(t *testing.T) {
	out := t.TempDir()
	s := NewStore(Settings{Dir: out})

	table := domain.NewTable("Account ID - 18", "Cars Sold LM")
	table.Append(domain.Row{"Account ID - 18": "001A", "Cars Sold LM": decimal.NewFromInt(9)})

	path, err := s.SaveTable(context.Background(), "run-1", "../escape/report.csv", table)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "run-1", "report.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Account ID - 18,Cars Sold LM\n001A,9\n", string(data))
}
