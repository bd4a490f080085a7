package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const ReportRunsSchema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		cadence VARCHAR(1) NOT NULL,
		status VARCHAR(16) NOT NULL,
		period_start VARCHAR(10) NOT NULL,
		period_end VARCHAR(10) NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NULL,
		artifact TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error TEXT NULL
	);
`

const ReportRunsIndex = `
	CREATE INDEX IF NOT EXISTS idx_report_runs_cadence_started
		ON report_runs (cadence, started_at);
`

var bootQueries = []string{
	ReportRunsSchema,
	ReportRunsIndex,
}

type Settings struct {
	Driver string
	DSN    string
}

// Open connects to the history database and makes sure its tables exist.
func Open(ctx context.Context, settings Settings) (*sql.DB, error) {
	switch settings.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", settings.Driver)
	}

	db, err := sql.Open(settings.Driver, settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", settings.Driver, err)
	}
	if settings.Driver == DriverSQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := Bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return nil
}

// StatementBuilder returns a squirrel builder using the placeholder style of driver.
func StatementBuilder(driver string) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
