package tracking

import (
	"context"
	"fmt"
)

// One statement per entry: the pool's extended protocol rejects
// multi-statement Exec calls.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scan_history (
		id BIGSERIAL PRIMARY KEY,
		scan_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		timeframe TEXT NOT NULL,
		total_symbols INTEGER NOT NULL,
		candidates_found INTEGER NOT NULL,
		benchmark_return DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		metadata JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS trade_entries (
		id BIGSERIAL PRIMARY KEY,
		scan_id BIGINT REFERENCES scan_history(id),
		symbol TEXT NOT NULL,
		entry_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		entry_price DOUBLE PRECISION NOT NULL,
		target_price DOUBLE PRECISION,
		stop_loss DOUBLE PRECISION NOT NULL,
		expected_return DOUBLE PRECISION NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		reasoning TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS trade_exits (
		id BIGSERIAL PRIMARY KEY,
		trade_id BIGINT REFERENCES trade_entries(id),
		exit_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		exit_price DOUBLE PRECISION NOT NULL,
		actual_return DOUBLE PRECISION NOT NULL,
		outcome TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_history_time ON scan_history (scan_time)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_entries_time ON trade_entries (entry_time)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_exits_time ON trade_exits (exit_time)`,
}

// EnsureSchema creates the tracking tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply tracking schema: %w", err)
		}
	}
	return nil
}
