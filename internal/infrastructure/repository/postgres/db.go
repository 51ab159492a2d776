package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the feedback and calibration tables. DDL is
// serialized across api/worker startups with an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS feedback_samples (
	id BIGSERIAL PRIMARY KEY,
	finding_id TEXT NOT NULL,
	raw_confidence DOUBLE PRECISION NOT NULL,
	correct BOOLEAN NOT NULL,
	discipline TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_samples_created_at ON feedback_samples (created_at);

CREATE TABLE IF NOT EXISTS calibration_models (
	id BIGSERIAL PRIMARY KEY,
	method TEXT NOT NULL,
	params JSONB NOT NULL,
	ece DOUBLE PRECISION NOT NULL,
	brier_score DOUBLE PRECISION NOT NULL,
	sample_count INTEGER NOT NULL,
	trained_at TIMESTAMPTZ NOT NULL,
	deployed BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS training_jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	sample_count INTEGER NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	new_ece DOUBLE PRECISION NOT NULL DEFAULT 0,
	baseline_ece DOUBLE PRECISION NOT NULL DEFAULT 0,
	deployed BOOLEAN NOT NULL DEFAULT FALSE,
	reason TEXT NOT NULL DEFAULT ''
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return tx.Commit()
}
