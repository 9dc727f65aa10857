package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all schedsim tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		processes      TEXT NOT NULL,
		default_policy TEXT NOT NULL DEFAULT '',
		quantum        INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		scenario_id   TEXT NOT NULL,
		scenario_name TEXT NOT NULL,
		policy        TEXT NOT NULL,
		state         TEXT NOT NULL DEFAULT 'PENDING',
		quantum       INTEGER NOT NULL DEFAULT 0,
		interval_ms   INTEGER NOT NULL DEFAULT 1000,
		clock         INTEGER NOT NULL DEFAULT 0,
		processes     TEXT NOT NULL DEFAULT '[]',
		metrics       TEXT,
		created_at    TEXT NOT NULL,
		started_at    TEXT,
		completed_at  TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_scenario_id ON runs(scenario_id)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state)`,
	`CREATE INDEX IF NOT EXISTS idx_scenarios_name ON scenarios(name)`,
}

// migrate applies the schema statements in order.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
