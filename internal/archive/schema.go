package archive

import (
	"context"
	"fmt"
)

// schemaDDL mirrors migrations/001_scout_schema.sql and 002_premarket_rows.sql
const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS scout;

CREATE TABLE IF NOT EXISTS scout.runs (
	run_id        UUID PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	screener_hash TEXT NOT NULL DEFAULT '',
	output_path   TEXT NOT NULL DEFAULT '',
	record_count  INTEGER NOT NULL DEFAULT 0,
	notified      INTEGER NOT NULL DEFAULT 0,
	notify_failed INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON scout.runs (started_at DESC);

CREATE TABLE IF NOT EXISTS scout.stock_snapshots (
	run_id           UUID NOT NULL REFERENCES scout.runs (run_id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	ticker           TEXT NOT NULL,
	market           TEXT,
	company          TEXT,
	industry         TEXT,
	market_cap       TEXT,
	eps              TEXT,
	pe               TEXT,
	avg_volume       TEXT,
	atr              TEXT,
	sector           TEXT,
	premarket_high   NUMERIC,
	premarket_low    NUMERIC,
	premarket_volume NUMERIC,
	premarket_rows   INTEGER,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_stock_snapshots_ticker ON scout.stock_snapshots (ticker);

-- archives created before the row count was stored
ALTER TABLE scout.stock_snapshots ADD COLUMN IF NOT EXISTS premarket_rows INTEGER;
`

// EnsureSchema creates the scout schema when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
