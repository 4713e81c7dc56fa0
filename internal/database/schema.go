package database

import (
	"context"
	"fmt"
)

const createJobsTableSQL = `CREATE TABLE IF NOT EXISTS sourcing_jobs (
    id             UUID PRIMARY KEY,
    query          TEXT NOT NULL,
    min_reviews    INTEGER NOT NULL DEFAULT 1,
    multiplier     DOUBLE PRECISION NOT NULL DEFAULT 3.0,
    status         TEXT NOT NULL DEFAULT 'pending',
    products_found INTEGER NOT NULL DEFAULT 0,
    triad          JSONB,
    error_message  TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    started_at     TIMESTAMPTZ,
    completed_at   TIMESTAMPTZ
)`

const createJobsStatusIndexSQL = `CREATE INDEX IF NOT EXISTS idx_sourcing_jobs_status_created
    ON sourcing_jobs (status, created_at)`

const createProductsTableSQL = `CREATE TABLE IF NOT EXISTS sourcing_products (
    job_id      UUID NOT NULL REFERENCES sourcing_jobs(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    listing_key TEXT NOT NULL DEFAULT '',
    product_id  TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    price       DOUBLE PRECISION,
    payload     JSONB NOT NULL,
    PRIMARY KEY (job_id, position)
)`

const createOutboxTableSQL = `CREATE TABLE IF NOT EXISTS outbox_event (
    id             UUID PRIMARY KEY,
    aggregate_type TEXT NOT NULL,
    aggregate_id   TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    target_stream  TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'pending',
    retry_count    INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    processed_at   TIMESTAMPTZ,
    next_retry_at  TIMESTAMPTZ
)`

const createOutboxPendingIndexSQL = `CREATE INDEX IF NOT EXISTS idx_outbox_event_pending
    ON outbox_event (status, next_retry_at)`

var schemaStatements = []struct {
	name string
	sql  string
}{
	{"sourcing_jobs table", createJobsTableSQL},
	{"sourcing_jobs status index", createJobsStatusIndexSQL},
	{"sourcing_products table", createProductsTableSQL},
	{"outbox_event table", createOutboxTableSQL},
	{"outbox_event pending index", createOutboxPendingIndexSQL},
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("create %s: %w", stmt.name, err)
		}
	}
	return nil
}
