package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/echoapp/echo/internal/profile"
	"github.com/echoapp/echo/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection pool for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, fmt.Errorf("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	pgDB.SetMaxOpenConns(25)
	pgDB.SetMaxIdleConns(5)
	pgDB.SetConnMaxLifetime(5 * time.Minute)

	driver := DB{db: pgDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS task (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'todo',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_ts BIGINT,
	completed_ts BIGINT,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_status ON task (status);
CREATE INDEX IF NOT EXISTS idx_task_created_ts ON task (created_ts);

CREATE TABLE IF NOT EXISTS habit (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	frequency TEXT NOT NULL DEFAULT 'daily',
	target_count INTEGER NOT NULL DEFAULT 1,
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS habit_log (
	id TEXT PRIMARY KEY,
	habit_id TEXT NOT NULL REFERENCES habit (id) ON DELETE CASCADE,
	completed_date TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 1,
	notes TEXT,
	created_ts BIGINT NOT NULL,
	UNIQUE (habit_id, completed_date)
);
CREATE INDEX IF NOT EXISTS idx_habit_log_habit_id ON habit_log (habit_id);
CREATE INDEX IF NOT EXISTS idx_habit_log_completed_date ON habit_log (completed_date);

CREATE TABLE IF NOT EXISTS event (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	location TEXT,
	start_ts BIGINT NOT NULL,
	end_ts BIGINT NOT NULL,
	all_day BOOLEAN NOT NULL DEFAULT FALSE,
	event_type TEXT NOT NULL DEFAULT 'personal',
	status TEXT NOT NULL DEFAULT 'scheduled',
	task_id TEXT,
	habit_id TEXT,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_start_ts ON event (start_ts);

CREATE TABLE IF NOT EXISTS event_reminder (
	id TEXT PRIMARY KEY,
	event_id TEXT NOT NULL,
	minutes_before INTEGER NOT NULL,
	method TEXT NOT NULL DEFAULT 'notification',
	sent BOOLEAN NOT NULL DEFAULT FALSE,
	sent_ts BIGINT,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_reminder_event_id ON event_reminder (event_id);

CREATE TABLE IF NOT EXISTS chat_message (
	id TEXT PRIMARY KEY,
	message TEXT NOT NULL,
	response TEXT NOT NULL,
	context_data TEXT,
	response_time_ms INTEGER,
	created_ts BIGINT NOT NULL
);
`

// Migrate creates the schema. Every statement is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: %w", s, err)
	}
	return t, nil
}
