package source

import (
	"context"
	"fmt"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/store/redash"
	"github.com/rs/zerolog"
)

// QueryRunner executes a saved query for a date range.
type QueryRunner interface {
	Run(ctx context.Context, queryID int, dr domain.DateRange) (*domain.Table, error)
}

type redashFetcher struct {
	region        string
	runner        QueryRunner
	queryID       int
	backupQueryID int
	timeout       time.Duration
}

// NewRedashFactory resolves the credentials of each region from profiles.
func NewRedashFactory(profiles config.ProfileRegistry, settings config.RedashConfig) Factory {
	return func(ctx context.Context, region config.RegionConfig) (Fetcher, error) {
		if profiles == nil {
			return nil, fmt.Errorf("region %s needs a redash profiles file", region.Name)
		}
		if region.QueryID == 0 {
			return nil, fmt.Errorf("region %s has no query_id", region.Name)
		}

		profile, err := profiles.GetProfile(ctx, region.ProfileName())
		if err != nil {
			return nil, err
		}

		client := redash.NewClient(redash.Settings{
			Host:         profile.Host,
			APIKey:       profile.APIKey,
			PollInterval: settings.PollInterval,
		})
		return NewRedashFetcher(region, client, settings.Timeout), nil
	}
}

func NewRedashFetcher(region config.RegionConfig, runner QueryRunner, timeout time.Duration) Fetcher {
	return &redashFetcher{
		region:        region.Name,
		runner:        runner,
		queryID:       region.QueryID,
		backupQueryID: region.BackupQueryID,
		timeout:       timeout,
	}
}

func (f *redashFetcher) Region() string {
	return f.region
}

// Fetch runs the primary query and, when it fails, the backup query once.
func (f *redashFetcher) Fetch(ctx context.Context, _ domain.Cadence, dr domain.DateRange) (*domain.Table, error) {
	logger := zerolog.Ctx(ctx).With().Str("region", f.region).Logger()

	table, err := f.run(ctx, f.queryID, dr)
	if err == nil || f.backupQueryID == 0 || ctx.Err() != nil {
		return table, err
	}

	logger.Warn().Err(err).
		Int("query_id", f.queryID).
		Int("backup_query_id", f.backupQueryID).
		Msg("primary query failed, trying backup")

	table, backupErr := f.run(ctx, f.backupQueryID, dr)
	if backupErr != nil {
		return nil, fmt.Errorf("region %s: primary query failed: %v; backup query failed: %w", f.region, err, backupErr)
	}
	return table, nil
}

func (f *redashFetcher) run(ctx context.Context, queryID int, dr domain.DateRange) (*domain.Table, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	table, err := f.runner.Run(ctx, queryID, dr)
	if err != nil {
		return nil, fmt.Errorf("region %s query %d: %w", f.region, queryID, err)
	}
	return table, nil
}
