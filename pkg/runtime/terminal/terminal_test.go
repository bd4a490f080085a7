package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockController struct {
	mock.Mock
}

func (m *mockController) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) Run(ctx context.Context, cadences []domain.Cadence, now time.Time) ([]workflow.Outcome, error) {
	args := m.Called(ctx, cadences, now)
	return args.Get(0).([]workflow.Outcome), args.Error(1)
}

func (m *mockController) Start(ctx context.Context, cadence domain.Cadence, now time.Time) (*domain.Run, error) {
	args := m.Called(ctx, cadence, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *mockController) Cancel(ctx context.Context, cadence domain.Cadence) error {
	return m.Called(ctx, cadence).Error(0)
}

func (m *mockController) Runs(ctx context.Context, filter workflow.RunFilter) ([]*domain.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Run), args.Error(1)
}

func (m *mockController) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

type nopCloser struct{ closed bool }

func (c *nopCloser) Close() error {
	c.closed = true
	return nil
}

var march15 = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func newTestCLI(ctrl workflow.Controller, closer io.Closer) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	cli := NewCLI(Options{
		Output: &out,
		Open: func(context.Context, *config.Config, string) (workflow.Controller, io.Closer, error) {
			return ctrl, closer, nil
		},
		Now: func() time.Time { return march15 },
	})
	return cli, &out
}

func TestCLI_Period(t *testing.T) {
	cli, out := newTestCLI(nil, nil)
	cli.SetArgs([]string{"period", "--cadence", "M,Y"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "Monthly period as of 2024-03-15")
	assert.Contains(t, out.String(), "Range:  2024-02-01 - 2024-02-29 (29 days)")
	assert.Contains(t, out.String(), "Labels: Mar 2023, Apr 2023")
}

func TestCLI_Period_InvalidCadence(t *testing.T) {
	cli, _ := newTestCLI(nil, nil)
	cli.SetArgs([]string{"period", "--cadence", "Q"})

	err := cli.Execute(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidCadence)
}

func TestCLI_Run(t *testing.T) {
	ctrl := &mockController{}
	closer := &nopCloser{}
	finished := time.Date(2024, 3, 15, 9, 1, 0, 0, time.UTC)
	period := domain.DateRange{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}

	ctrl.On("Run", mock.Anything, []domain.Cadence{domain.CadenceMonthly, domain.CadenceWeekToDate}, march15).
		Return([]workflow.Outcome{
			{
				Cadence: domain.CadenceMonthly,
				Result: &domain.ReportResult{
					Run: domain.Run{
						ID: "run-1", Cadence: domain.CadenceMonthly, Status: domain.RunStatusFinished,
						Period: period, FinishedAt: &finished, Artifact: "Reports/run-1/report.csv",
						Rows: 3, Matched: 2, Skipped: 1,
					},
					Title:   "2024-03-15_Monthly Report (2024-02-01 - 2024-02-29).csv",
					Labels:  []string{"Feb 2024"},
					Regions: []domain.RegionSummary{{Region: "CA", RawRows: 10, FilteredRows: 4}},
					Elapsed: 1500 * time.Millisecond,
				},
			},
			{Cadence: domain.CadenceWeekToDate, Err: errors.New("no MTD template")},
		}, errors.New("MTD: no MTD template"))

	cli, out := newTestCLI(ctrl, closer)
	cli.SetArgs([]string{"run", "--cadence", "M", "--cadence", "W,m"})

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "some reports failed")

	assert.Contains(t, out.String(), "=== Monthly ===")
	assert.Contains(t, out.String(), "Dealers: 3 rows, 2 matched, 1 skipped")
	assert.Contains(t, out.String(), "CA: 10 export rows -> 4 dealers")
	assert.Contains(t, out.String(), "Elapsed: 1.5s")
	assert.Contains(t, out.String(), "=== MTD ===\nFAILED: no MTD template")
	assert.True(t, closer.closed)
	ctrl.AssertExpectations(t)
}

func TestCLI_Runs(t *testing.T) {
	ctrl := &mockController{}
	ctrl.On("Runs", mock.Anything, workflow.RunFilter{Cadence: domain.CadenceYearly, Limit: 5}).
		Return([]*domain.Run{{
			ID:      "5f0c6d9e-3b8e-4a5e-9f60-1d2a3b4c5d6e",
			Cadence: domain.CadenceYearly,
			Status:  domain.RunStatusFailed,
			Period: domain.DateRange{
				Start: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			},
		}}, nil).Once()
	ctrl.On("Runs", mock.Anything, workflow.RunFilter{Limit: 20}).Return([]*domain.Run{}, nil).Once()

	cli, out := newTestCLI(ctrl, &nopCloser{})
	cli.SetArgs([]string{"runs", "--cadence", "Y", "--limit", "5"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "| 5f0c6d9e-3b8e-4a5e-9f60-1d2a3b4c5d6e | Yearly  | failed    | 2023-03-01 - 2024-02-29 |")

	cli, out = newTestCLI(ctrl, &nopCloser{})
	cli.SetArgs([]string{"runs"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "No report runs recorded.\n", out.String())

	ctrl.AssertExpectations(t)
}

func TestCLI_Fill(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	template := write("Monthly Template.csv", "Account ID - 18,Compulsory,Cars Sold LM,Trade-Ins LM\nD1,No,,\nD2,No,,\nD3,No,,\n")
	ca := write("CA.csv", "Dealer Salesforce ID,Year/Month::multi-filter,Compulsory,Cars Solds,Trade-ins\n"+
		"D1,Feb 2024,Yes,3,1\nD1,Feb 2024,Yes,2,0\nD3,Jan 2024,Yes,9,9\n")
	us := write("US.csv", "Dealer Salesforce ID,Year/Month::multi-filter,Compulsory,Cars Solds,Trade-ins\n"+
		"D2,Feb 2024,Yes,4,2\nD7,Feb 2024,No,1,1\n")
	out := filepath.Join(dir, "out", "report.csv")

	cli, stdout := newTestCLI(nil, nil)
	cli.SetArgs([]string{"fill", "--cadence", "monthly", "--template", template,
		"--input", ca, "--input", us, "--out", out})
	require.NoError(t, cli.Execute(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Account ID - 18,Compulsory,Cars Sold LM,Trade-Ins LM\n"+
		"D1,Yes,5,1\n"+
		"D2,Yes,4,2\n"+
		"D3,No,0,0\n", string(data))

	assert.Contains(t, stdout.String(), "CA: 3 export rows -> 1 dealers")
	assert.Contains(t, stdout.String(), "Dealers: 3 rows, 2 matched, 1 skipped")
}

func TestCLI_Fill_MissingFlags(t *testing.T) {
	cli, _ := newTestCLI(nil, nil)
	cli.SetArgs([]string{"fill", "--cadence", "M"})
	assert.Error(t, cli.Execute(context.Background()))
}
