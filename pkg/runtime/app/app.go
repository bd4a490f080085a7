package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/dylandoyle11/RedashETL/pkg/services/config"
	"github.com/dylandoyle11/RedashETL/pkg/services/notify"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/services/source"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/dylandoyle11/RedashETL/pkg/store/filesystem"
	"github.com/dylandoyle11/RedashETL/pkg/store/history"
	s3store "github.com/dylandoyle11/RedashETL/pkg/store/s3"
	"github.com/dylandoyle11/RedashETL/pkg/store/sqldb"
	"github.com/dylandoyle11/RedashETL/pkg/store/tabular"
	"github.com/rs/zerolog"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// App holds the wired report controller and the resources it owns.
type App struct {
	Controller workflow.Controller
	db         *sql.DB
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Build wires the report controller described by cfg. profilesPath points to
// the Redash credentials file; it may be missing when no region uses Redash.
func Build(ctx context.Context, cfg *config.Config, profilesPath string) (*App, error) {
	logger := zerolog.Ctx(ctx)

	profiles, err := loadProfiles(profilesPath)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		logger.Warn().Str("path", profilesPath).Msg("redash profiles file not found")
	} else {
		missing, err := missingProfiles(ctx, profiles, cfg.Regions)
		if err != nil {
			return nil, err
		}
		for _, region := range missing {
			logger.Warn().Str("region", region).Str("path", profilesPath).Msg("no redash profile for region")
		}
	}

	sources := source.NewRegistry()
	if err := sources.Register(source.KindRedash, source.NewRedashFactory(profiles, cfg.Redash)); err != nil {
		return nil, err
	}
	if err := sources.Register(source.KindFile, source.NewFileFactory()); err != nil {
		return nil, err
	}

	aws := &awsLoader{profile: cfg.AWS.Profile, region: cfg.AWS.Region}
	templates, err := newTemplateLoader(ctx, cfg.Templates, aws)
	if err != nil {
		return nil, fmt.Errorf("failed to configure templates: %w", err)
	}
	artifacts, err := newArtifactStore(ctx, cfg.Output.StorageConfig, aws)
	if err != nil {
		return nil, fmt.Errorf("failed to configure output: %w", err)
	}

	app := &App{}
	var historyStore history.Store
	if cfg.History.Driver != "" {
		app.db, err = sqldb.Open(ctx, sqldb.Settings{Driver: cfg.History.Driver, DSN: cfg.History.DSN})
		if err != nil {
			return nil, err
		}
		historyStore, err = history.NewStore(app.db, cfg.History.Driver)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	ctrl := workflow.NewController(workflow.Dependencies{
		Schema:    cfg.Schema(),
		Regions:   cfg.Regions,
		Sources:   sources,
		Templates: templates,
		Artifacts: artifacts,
		History:   historyStore,
		DB:        app.db,
		Notifier:  notify.NewLogNotifier(),
		Notify:    cfg.Notify,
		Runner: workflow.RunnerConfig{
			Format:      tabular.Format(cfg.Output.Format),
			SaveExports: cfg.Output.SaveExports,
		},
	})
	if err := ctrl.Init(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize report controller: %w", err)
	}

	app.Controller = ctrl
	return app, nil
}

func loadProfiles(path string) (config.ProfileRegistry, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	profiles, err := config.NewProfileRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load redash profiles: %w", err)
	}
	return profiles, nil
}

// missingProfiles lists the Redash regions whose profile is absent from the
// profiles file.
func missingProfiles(ctx context.Context, profiles config.ProfileRegistry, regions []config.RegionConfig) ([]string, error) {
	names, err := profiles.GetProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list redash profiles: %w", err)
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	var missing []string
	for _, region := range regions {
		if region.Source == source.KindRedash && !known[region.ProfileName()] {
			missing = append(missing, region.Name)
		}
	}
	return missing, nil
}

func newTemplateLoader(ctx context.Context, sc config.StorageConfig, aws *awsLoader) (report.TemplateLoader, error) {
	switch sc.Backend {
	case BackendLocal, "":
		return filesystem.NewStore(filesystem.Settings{Dir: sc.Dir}), nil
	case BackendS3:
		return newS3Store(ctx, sc, aws)
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

func newArtifactStore(ctx context.Context, sc config.StorageConfig, aws *awsLoader) (workflow.ArtifactStore, error) {
	switch sc.Backend {
	case BackendLocal, "":
		return filesystem.NewStore(filesystem.Settings{Dir: sc.Dir}), nil
	case BackendS3:
		return newS3Store(ctx, sc, aws)
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

func newS3Store(ctx context.Context, sc config.StorageConfig, aws *awsLoader) (*s3store.Store, error) {
	cfg, err := aws.load(ctx)
	if err != nil {
		return nil, err
	}
	return s3store.NewStoreFromConfig(*cfg, s3store.Settings{Bucket: sc.Bucket, Prefix: sc.Prefix})
}

// awsLoader loads the shared AWS configuration once, on first use.
type awsLoader struct {
	profile string
	region  string

	once sync.Once
	cfg  *awssdk.Config
	err  error
}

func (l *awsLoader) load(ctx context.Context) (*awssdk.Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = s3store.LoadConfig(ctx, l.profile, l.region)
	})
	return l.cfg, l.err
}
