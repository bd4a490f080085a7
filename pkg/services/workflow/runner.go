package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/adapters"
	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/services/source"
	"github.com/dylandoyle11/RedashETL/pkg/store/history"
	"github.com/dylandoyle11/RedashETL/pkg/store/tabular"
	"github.com/rs/zerolog"
)

// ArtifactStore persists the tables a run produces and returns their location.
type ArtifactStore interface {
	SaveTable(ctx context.Context, runID, name string, table *domain.Table) (string, error)
}

type RunnerConfig struct {
	Format      tabular.Format
	SaveExports bool
}

// Runner produces the report of a single cadence.
type Runner struct {
	run       *domain.Run
	period    domain.Period
	schema    domain.ReportSchema
	fetchers  []source.Fetcher
	assembler *report.Assembler
	artifacts ArtifactStore
	history   history.Store
	config    RunnerConfig
	done      chan struct{}

	result *domain.ReportResult
	err    error
}

func NewRunner(
	run *domain.Run,
	period domain.Period,
	schema domain.ReportSchema,
	fetchers []source.Fetcher,
	assembler *report.Assembler,
	artifacts ArtifactStore,
	historyStore history.Store,
	config RunnerConfig,
) *Runner {
	if config.Format == "" {
		config.Format = tabular.FormatCSV
	}
	return &Runner{
		run:       run,
		period:    period,
		schema:    schema,
		fetchers:  fetchers,
		assembler: assembler,
		artifacts: artifacts,
		history:   historyStore,
		config:    config,
		done:      make(chan struct{}),
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Result is valid once Done is closed.
func (r *Runner) Result() (*domain.ReportResult, error) {
	return r.result, r.err
}

func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", r.run.ID).
		Str("cadence", r.run.Cadence.Title()).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Str("period", r.run.Period.String()).Msg("report run started")
	started := time.Now()

	result, err := r.execute(ctx)
	elapsed := time.Since(started)
	r.finish(ctx, result, err)
	if result != nil {
		result.Elapsed = elapsed
	}
	r.result, r.err = result, err

	if err != nil {
		logger.Error().Err(err).Str("status", string(r.run.Status)).Dur("elapsed", elapsed).Msg("report run failed")
		return
	}
	logger.Info().
		Str("artifact", r.run.Artifact).
		Int("rows", r.run.Rows).
		Int("matched", r.run.Matched).
		Int("skipped", r.run.Skipped).
		Dur("elapsed", elapsed).
		Msg("report run finished")
}

func (r *Runner) execute(ctx context.Context) (*domain.ReportResult, error) {
	cadence, period := r.run.Cadence, r.run.Period
	runDate := r.period.AsOf

	regions := make([]domain.RegionSummary, 0, len(r.fetchers))
	datasets := make([]*domain.Table, 0, len(r.fetchers))
	for _, f := range r.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := f.Fetch(ctx, cadence, period)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s export: %w", f.Region(), err)
		}
		dataset, err := report.Filter(raw, cadence, period.Start, r.schema)
		if err != nil {
			return nil, fmt.Errorf("failed to filter %s export: %w", f.Region(), err)
		}

		summary := domain.RegionSummary{
			Region:       f.Region(),
			RawRows:      raw.Len(),
			FilteredRows: dataset.Len(),
		}
		if r.config.SaveExports {
			name := ExportName(f.Region(), cadence, period, runDate)
			if summary.Export, err = r.save(ctx, name, raw); err != nil {
				return nil, err
			}
			if _, err = r.save(ctx, name+" - Filtered", dataset); err != nil {
				return nil, err
			}
		}

		zerolog.Ctx(ctx).Info().
			Str("region", summary.Region).
			Int("rows", summary.RawRows).
			Int("dealers", summary.FilteredRows).
			Msg("region export filtered")

		regions = append(regions, summary)
		datasets = append(datasets, dataset)
	}

	filled, stats, err := r.assembler.Assemble(ctx, cadence, datasets...)
	if err != nil {
		return nil, err
	}

	title := ReportTitle(cadence, period, runDate)
	artifact, err := r.save(ctx, title, filled)
	if err != nil {
		return nil, err
	}

	r.run.Artifact = artifact
	r.run.Rows = filled.Len()
	r.run.Matched = stats.Matched
	r.run.Skipped = stats.Skipped

	return &domain.ReportResult{
		Title:   title + "." + string(r.config.Format),
		Labels:  r.period.Labels,
		Regions: regions,
		Report:  filled,
	}, nil
}

func (r *Runner) save(ctx context.Context, base string, table *domain.Table) (string, error) {
	location, err := r.artifacts.SaveTable(ctx, r.run.ID, base+"."+string(r.config.Format), table)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", base, err)
	}
	return location, nil
}

// finish records the outcome of the run, even when ctx has been cancelled.
func (r *Runner) finish(ctx context.Context, result *domain.ReportResult, runErr error) {
	now := time.Now()
	r.run.FinishedAt = &now

	switch {
	case runErr == nil:
		r.run.Status = domain.RunStatusFinished
	case errors.Is(runErr, context.Canceled):
		r.run.Status = domain.RunStatusCancelled
	default:
		r.run.Status = domain.RunStatusFailed
	}
	if runErr != nil {
		msg := runErr.Error()
		r.run.Error = &msg
	}
	if result != nil {
		result.Run = *r.run
	}

	if r.history == nil {
		return
	}
	if err := r.history.FinishRun(context.WithoutCancel(ctx), adapters.MapDomainRunToStore(r.run)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to record run outcome")
	}
}

// ExportName names the raw export of a region, e.g.
// "CA_M_CS Master Report V3 (2024-02-01 - 2024-02-29)_2024-03-01".
func ExportName(region string, cadence domain.Cadence, period domain.DateRange, runDate time.Time) string {
	return fmt.Sprintf("%s_%s_CS Master Report V3 (%s)_%s",
		region, cadence, period, runDate.Format(domain.DateLayout))
}

// ReportTitle names the final report, e.g.
// "2024-03-01_Monthly Report (2024-02-01 - 2024-02-29)".
func ReportTitle(cadence domain.Cadence, period domain.DateRange, runDate time.Time) string {
	return fmt.Sprintf("%s_%s Report (%s)", runDate.Format(domain.DateLayout), cadence.Title(), period)
}
