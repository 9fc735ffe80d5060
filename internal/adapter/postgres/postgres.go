// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tracked/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// DB wraps a *sqlx.DB and implements the domain repository interfaces.
type DB struct {
	sql *sqlx.DB
	log log.FieldLogger
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.TrackerRepository = (*DB)(nil)
var _ domain.SnapshotRepository = (*DB)(nil)
var _ domain.EntryRepository = (*DB)(nil)
var _ domain.Transactor = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string, logger log.FieldLogger) (*DB, error) {
	s, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := newDB(s, logger)
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func newDB(s *sqlx.DB, logger log.FieldLogger) *DB {
	return &DB{sql: s, log: logger}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

var schema = []string{
	"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
	"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
	"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
	"CREATE TABLE IF NOT EXISTS profiles (user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE, avatar_url TEXT NOT NULL DEFAULT '', external_id TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
	"CREATE TABLE IF NOT EXISTS trackers (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name VARCHAR(100) NOT NULL, tracker_type TEXT NOT NULL CHECK(tracker_type IN ('binary','number','time','duration','text','rating')), unit VARCHAR(20), display_order INTEGER NOT NULL DEFAULT 0 CHECK(display_order >= 0), is_active BOOLEAN NOT NULL DEFAULT TRUE, min_value INTEGER, max_value INTEGER, created_at TIMESTAMPTZ NOT NULL);",
	"CREATE INDEX IF NOT EXISTS idx_trackers_user_order ON trackers(user_id, is_active, display_order);",
	"CREATE TABLE IF NOT EXISTS daily_snapshots (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, day DATE NOT NULL, UNIQUE(user_id, day));",
	"CREATE TABLE IF NOT EXISTS entries (id BIGSERIAL PRIMARY KEY, tracker_id BIGINT NOT NULL REFERENCES trackers(id) ON DELETE CASCADE, daily_snapshot_id BIGINT NOT NULL REFERENCES daily_snapshots(id) ON DELETE CASCADE, binary_value BOOLEAN, number_value NUMERIC(10,2), rating_value INTEGER, duration_minutes INTEGER CHECK(duration_minutes >= 0), time_value TIME, text_value TEXT, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL, UNIQUE(tracker_id, daily_snapshot_id));",
	"CREATE INDEX IF NOT EXISTS idx_entries_snapshot ON entries(daily_snapshot_id);",
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// executor is satisfied by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type txKey struct{}

// ext returns the transaction carried by ctx, or the pool.
func (d *DB) ext(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return d.sql
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.sql.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapError(err))
	}
	return nil
}

// mapError translates driver errors into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Constraint)
		case "22003": // numeric_value_out_of_range
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pqErr.Message)
		}
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
