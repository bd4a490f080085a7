package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_HandlePeriod(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	err := reporter.HandlePeriod(domain.Period{
		Cadence: domain.CadenceWeekToDate,
		AsOf:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Range: domain.DateRange{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		Labels: []string{"Mar 2024"},
	})
	require.NoError(t, err)

	assert.Equal(t, "MTD period as of 2024-03-15\n"+
		"Range:  2024-03-01 - 2024-03-15 (15 days)\n"+
		"Labels: Mar 2024\n", buf.String())
}

func TestReporter_HandleRuns(t *testing.T) {
	var buf bytes.Buffer
	reporter := &Reporter{writer: &buf, config: TableConfig{ColumnWidths: []int{4, 7, 8, 23, 4, 7, 7}}}

	err := reporter.HandleRuns([]*domain.Run{{
		ID:      "r1",
		Cadence: domain.CadenceMonthly,
		Status:  domain.RunStatusFinished,
		Period: domain.DateRange{
			Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		Rows:    120,
		Matched: 98,
		Skipped: 3,
	}})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 5)
	assert.Equal(t, "+------+---------+----------+-------------------------+------+---------+---------+", string(lines[0]))
	assert.Equal(t, "| ID   | CADENCE | STATUS   | PERIOD                  | ROWS | MATCHED | SKIPPED |", string(lines[1]))
	assert.Equal(t, "| r1   | Monthly | finished | 2024-02-01 - 2024-02-29 | 120  | 98      | 3       |", string(lines[3]))
	assert.Equal(t, string(lines[0]), string(lines[4]))
}

func TestReporter_HandleRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).HandleRuns(nil))
	assert.Equal(t, "No report runs recorded.\n", buf.String())
}

func TestReporter_HandleOutcomes(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	err := reporter.HandleOutcomes([]workflow.Outcome{
		{
			Cadence: domain.CadenceYearly,
			Result: &domain.ReportResult{
				Run: domain.Run{
					Cadence:  domain.CadenceYearly,
					Artifact: "Reports/r1/2024-03-15_Yearly Report (2023-03-01 - 2024-02-29).csv",
					Period: domain.DateRange{
						Start: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
						End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
					},
					Rows: 2, Matched: 2,
				},
				Title:  "2024-03-15_Yearly Report (2023-03-01 - 2024-02-29).csv",
				Labels: []string{"Mar 2023", "Apr 2023"},
				Regions: []domain.RegionSummary{
					{Region: "CA", RawRows: 7, FilteredRows: 2, Export: "CA_Y_export.csv"},
				},
				Elapsed: 2*time.Second + 400*time.Microsecond,
			},
		},
		{Cadence: domain.CadenceMonthly, Err: errors.New("boom")},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== Yearly ===\nReport:  2024-03-15_Yearly Report (2023-03-01 - 2024-02-29).csv\n")
	assert.Contains(t, out, "Period:  2023-03-01 - 2024-02-29 (Mar 2023, Apr 2023)\n")
	assert.Contains(t, out, "  CA: 7 export rows -> 2 dealers (CA_Y_export.csv)\n")
	assert.Contains(t, out, "Elapsed: 2s\n")
	assert.Contains(t, out, "=== Monthly ===\nFAILED: boom\n")
}
