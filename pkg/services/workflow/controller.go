package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/adapters"
	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/models/store"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/services/notify"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/services/source"
	"github.com/dylandoyle11/RedashETL/pkg/store/history"
	"github.com/dylandoyle11/RedashETL/pkg/store/sqldb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrRunInProgress   = errors.New("report run already in progress")
	ErrRunNotActive    = errors.New("no active report run")
	ErrHistoryDisabled = errors.New("run history is disabled")
	ErrRunNotFound     = errors.New("report run not found")
)

type Controller interface {
	Init(ctx context.Context) error
	Run(ctx context.Context, cadences []domain.Cadence, now time.Time) ([]Outcome, error)
	Start(ctx context.Context, cadence domain.Cadence, now time.Time) (*domain.Run, error)
	Cancel(ctx context.Context, cadence domain.Cadence) error
	Runs(ctx context.Context, filter RunFilter) ([]*domain.Run, error)
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}

// Outcome is the result of one cadence of a synchronous Run.
type Outcome struct {
	Cadence domain.Cadence
	Result  *domain.ReportResult
	Err     error
}

type RunFilter struct {
	Cadence domain.Cadence
	Limit   uint64
}

type Dependencies struct {
	Schema    domain.ReportSchema
	Regions   []config.RegionConfig
	Sources   source.Registry
	Templates report.TemplateLoader
	Artifacts ArtifactStore
	History   history.Store // optional
	DB        *sql.DB       // optional, backs History; run creation is transactional when set
	Notifier  notify.Notifier
	Notify    config.NotifyConfig
	Runner    RunnerConfig
}

type runDescriptor struct {
	cancelFunc context.CancelFunc
	run        *domain.Run
	runner     *Runner
	released   chan struct{} // closed once the cadence accepts a new run
}

type DefaultController struct {
	deps      Dependencies
	assembler *report.Assembler

	mu   sync.Mutex
	runs map[domain.Cadence]runDescriptor
}

func NewController(deps Dependencies) *DefaultController {
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier()
	}
	return &DefaultController{
		deps:      deps,
		assembler: report.NewAssembler(deps.Schema, deps.Templates),
		runs:      make(map[domain.Cadence]runDescriptor),
	}
}

// Init fails the runs a previous process left behind.
func (ctrl *DefaultController) Init(ctx context.Context) error {
	if ctrl.deps.History == nil {
		return nil
	}
	n, err := ctrl.deps.History.FailStaleRuns(ctx, "interrupted by restart", time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		zerolog.Ctx(ctx).Warn().Int64("runs", n).Msg("marked interrupted runs as failed")
	}
	return nil
}

// Run produces the reports of all cadences in parallel and waits for them.
// A failing cadence does not stop the others; the returned error joins
// every cadence failure.
func (ctrl *DefaultController) Run(ctx context.Context, cadences []domain.Cadence, now time.Time) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cadences))
	descriptors := make([]*runDescriptor, len(cadences))
	for i, cadence := range cadences {
		outcomes[i].Cadence = cadence
		desc, err := ctrl.startRun(ctx, cadence, now)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		descriptors[i] = desc
	}

	var errs []error
	var files, titles []string
	for i, desc := range descriptors {
		if desc == nil {
			errs = append(errs, fmt.Errorf("%s: %w", cadences[i].Title(), outcomes[i].Err))
			continue
		}
		<-desc.released
		outcomes[i].Result, outcomes[i].Err = desc.runner.Result()
		if outcomes[i].Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cadences[i].Title(), outcomes[i].Err))
			continue
		}
		files = append(files, outcomes[i].Result.Run.Artifact)
		titles = append(titles, outcomes[i].Result.Title)
	}

	ctrl.notify(ctx, files, titles)
	return outcomes, errors.Join(errs...)
}

// Start launches the report of a cadence in the background.
func (ctrl *DefaultController) Start(ctx context.Context, cadence domain.Cadence, now time.Time) (*domain.Run, error) {
	// The run outlives the request that started it.
	ctx = context.WithoutCancel(ctx)

	desc, err := ctrl.startRun(ctx, cadence, now)
	if err != nil {
		return nil, err
	}

	go func() {
		<-desc.released
		if result, err := desc.runner.Result(); err == nil {
			ctrl.notify(ctx, []string{result.Run.Artifact}, []string{result.Title})
		}
	}()

	return desc.run, nil
}

func (ctrl *DefaultController) Cancel(_ context.Context, cadence domain.Cadence) error {
	ctrl.mu.Lock()
	desc, ok := ctrl.runs[cadence]
	ctrl.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotActive, cadence.Title())
	}
	desc.cancelFunc()
	<-desc.released
	return nil
}

func (ctrl *DefaultController) Runs(ctx context.Context, filter RunFilter) ([]*domain.Run, error) {
	if ctrl.deps.History == nil {
		return nil, ErrHistoryDisabled
	}

	records, err := ctrl.deps.History.ListRuns(ctx, store.RunFilter{
		Cadence: string(filter.Cadence),
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	runs := make([]*domain.Run, 0, len(records))
	for _, rec := range records {
		run, err := adapters.MapStoreRunToDomain(rec)
		if err != nil {
			return nil, fmt.Errorf("invalid run %s: %w", rec.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (ctrl *DefaultController) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	if ctrl.deps.History == nil {
		return nil, ErrHistoryDisabled
	}

	rec, err := ctrl.deps.History.GetRun(ctx, id)
	if errors.Is(err, history.ErrRunNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return adapters.MapStoreRunToDomain(rec)
}

// startRun registers and launches the runner of a cadence. At most one run
// per cadence is active at a time.
func (ctrl *DefaultController) startRun(ctx context.Context, cadence domain.Cadence, now time.Time) (*runDescriptor, error) {
	period, err := report.ResolvePeriod(cadence, now)
	if err != nil {
		return nil, err
	}

	fetchers := make([]source.Fetcher, 0, len(ctrl.deps.Regions))
	for _, region := range ctrl.deps.Regions {
		f, err := ctrl.deps.Sources.Create(ctx, region)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}

	ctrl.mu.Lock()
	if _, running := ctrl.runs[cadence]; running {
		ctrl.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, cadence.Title())
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		Cadence:   cadence,
		Status:    domain.RunStatusRunning,
		Period:    period.Range,
		StartedAt: time.Now(),
	}
	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunner(
		run,
		period,
		ctrl.deps.Schema,
		fetchers,
		ctrl.assembler,
		ctrl.deps.Artifacts,
		ctrl.deps.History,
		ctrl.deps.Runner,
	)
	released := make(chan struct{})
	ctrl.runs[cadence] = runDescriptor{
		cancelFunc: cancel,
		run:        run,
		runner:     runner,
		released:   released,
	}
	// The runner owns run once it starts.
	snapshot := *run
	ctrl.mu.Unlock()

	// The cadence stays reserved while the history is written.
	if err := ctrl.recordStart(ctx, &snapshot); err != nil {
		cancel()
		ctrl.release(cadence, runner)
		close(released)
		return nil, err
	}

	go func() {
		defer close(released)
		defer cancel()
		runner.Run(runCtx)
		ctrl.release(cadence, runner)
	}()

	return &runDescriptor{cancelFunc: cancel, run: &snapshot, runner: runner, released: released}, nil
}

// recordStart inserts the run into the history. A cadence still pending or
// running there, e.g. started by another process sharing the database,
// rejects the run.
func (ctrl *DefaultController) recordStart(ctx context.Context, run *domain.Run) error {
	if ctrl.deps.History == nil {
		return nil
	}

	record := func(ctx context.Context) error {
		active, err := ctrl.deps.History.ListRuns(ctx, store.RunFilter{
			Cadence:  string(run.Cadence),
			Statuses: []string{string(domain.RunStatusPending), string(domain.RunStatusRunning)},
			Limit:    1,
		})
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return fmt.Errorf("%w: %s (run %s)", ErrRunInProgress, run.Cadence.Title(), active[0].ID)
		}
		return ctrl.deps.History.CreateRun(ctx, adapters.MapDomainRunToStore(run))
	}

	if ctrl.deps.DB == nil {
		return record(ctx)
	}
	return sqldb.InTransaction(ctx, ctrl.deps.DB, record)
}

func (ctrl *DefaultController) release(cadence domain.Cadence, runner *Runner) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if desc, ok := ctrl.runs[cadence]; ok && desc.runner == runner {
		delete(ctrl.runs, cadence)
	}
}

func (ctrl *DefaultController) notify(ctx context.Context, files, titles []string) {
	if len(files) == 0 {
		return
	}
	err := ctrl.deps.Notifier.Notify(ctx, notify.Notification{
		Channel: ctrl.deps.Notify.Channel,
		Message: ctrl.deps.Notify.Message,
		Files:   files,
		Titles:  titles,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to send notification")
	}
}
