package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	// Postgres driver
	_ "github.com/lib/pq"
)

// DB wraps the sql connection pool and owns one-time schema setup.
type DB struct {
	*sql.DB

	readyOnce sync.Once
	readyErr  error
}

// New opens a Postgres connection pool and verifies connectivity.
func New(databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// EnsureReady creates the schema if it does not exist yet. The work runs at
// most once per process; concurrent and repeated callers all observe the
// result of the single attempt.
func (db *DB) EnsureReady(ctx context.Context) error {
	db.readyOnce.Do(func() {
		db.readyErr = db.createSchema(ctx)
	})
	return db.readyErr
}

func (db *DB) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS personal_goals (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			start_date_utc TIMESTAMPTZ NOT NULL,
			end_date_utc TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			frequency TEXT NOT NULL,
			reminder_active BOOLEAN NOT NULL DEFAULT TRUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			aligned BOOLEAN NOT NULL DEFAULT FALSE,
			team_id TEXT NOT NULL DEFAULT '',
			team_goal_id TEXT NOT NULL DEFAULT '',
			conversation_id TEXT NOT NULL DEFAULT '',
			service_url TEXT NOT NULL DEFAULT '',
			cycle_id UUID NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			modified_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_personal_goals_user ON personal_goals (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_personal_goals_due ON personal_goals (active, deleted, reminder_active, aligned)`,
		`CREATE TABLE IF NOT EXISTS goal_notes (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			goal_id UUID NOT NULL,
			text TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			conversation_id TEXT NOT NULL DEFAULT '',
			service_url TEXT NOT NULL DEFAULT '',
			activity_id TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			modified_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_goal_notes_goal ON goal_notes (user_id, goal_id)`,
		`CREATE TABLE IF NOT EXISTS team_goals (
			id UUID PRIMARY KEY,
			team_id TEXT NOT NULL,
			name TEXT NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			start_date_utc TIMESTAMPTZ NOT NULL,
			end_date_utc TIMESTAMPTZ NOT NULL,
			frequency TEXT NOT NULL,
			reminder_active BOOLEAN NOT NULL DEFAULT TRUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			creator_conversation_id TEXT NOT NULL DEFAULT '',
			creator_service_url TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL DEFAULT '',
			cycle_id UUID NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			modified_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_goals_team ON team_goals (team_id)`,
		`CREATE TABLE IF NOT EXISTS team_installations (
			team_id TEXT PRIMARY KEY,
			service_url TEXT NOT NULL,
			installed_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// HealthCheck verifies the database connection is usable.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
