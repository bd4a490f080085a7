package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dylandoyle11/RedashETL/pkg/models/store"
	"github.com/dylandoyle11/RedashETL/pkg/store/sqldb"
)

var ErrRunNotFound = errors.New("run not found")

const table = "report_runs"

var runColumns = []string{
	"id", "cadence", "status", "period_start", "period_end", "started_at",
	"finished_at", "artifact", "row_count", "matched", "skipped", "error",
}

// Store persists the history of report runs. Writes join the transaction
// carried by the context when there is one.
type Store interface {
	CreateRun(ctx context.Context, run *store.Run) error
	FinishRun(ctx context.Context, run *store.Run) error
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error)
	FailStaleRuns(ctx context.Context, reason string, at time.Time) (int64, error)
}

type sqlStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewStore(db *sql.DB, driver string) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &sqlStore{
		db:      db,
		builder: sqldb.StatementBuilder(driver),
	}, nil
}

func (s *sqlStore) CreateRun(ctx context.Context, run *store.Run) error {
	query, args, err := s.builder.
		Insert(table).
		Columns(runColumns...).
		Values(
			run.ID, run.Cadence, run.Status, run.PeriodStart, run.PeriodEnd, run.StartedAt.UTC(),
			nullTime(run.FinishedAt), run.Artifact, run.Rows, run.Matched, run.Skipped, nullString(run.Error),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := sqldb.Conn(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

func (s *sqlStore) FinishRun(ctx context.Context, run *store.Run) error {
	query, args, err := s.builder.
		Update(table).
		Set("status", run.Status).
		Set("finished_at", nullTime(run.FinishedAt)).
		Set("artifact", run.Artifact).
		Set("row_count", run.Rows).
		Set("matched", run.Matched).
		Set("skipped", run.Skipped).
		Set("error", nullString(run.Error)).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := sqldb.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

func (s *sqlStore) GetRun(ctx context.Context, id string) (*store.Run, error) {
	query, args, err := s.builder.
		Select(runColumns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	run, err := scanRun(sqldb.Conn(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

func (s *sqlStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	qb := s.builder.
		Select(runColumns...).
		From(table).
		OrderBy("started_at DESC")
	if filter.Cadence != "" {
		qb = qb.Where(sq.Eq{"cadence": filter.Cadence})
	}
	if len(filter.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": filter.Statuses})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := sqldb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*store.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// FailStaleRuns marks runs left pending or running by a previous process as failed.
func (s *sqlStore) FailStaleRuns(ctx context.Context, reason string, at time.Time) (int64, error) {
	query, args, err := s.builder.
		Update(table).
		Set("status", "failed").
		Set("finished_at", at.UTC()).
		Set("error", reason).
		Where(sq.Eq{"status": []string{"pending", "running"}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	res, err := sqldb.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.Run, error) {
	var (
		run        store.Run
		finishedAt sql.NullTime
		runErr     sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.Cadence, &run.Status, &run.PeriodStart, &run.PeriodEnd, &run.StartedAt,
		&finishedAt, &run.Artifact, &run.Rows, &run.Matched, &run.Skipped, &runErr,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if runErr.Valid {
		e := runErr.String
		run.Error = &e
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
