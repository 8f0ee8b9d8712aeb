package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/pkg/metrics"
)

const (
	pgMaxOpenConns = 5
	pgMaxIdleConns = 2
	pgMaxIdleTime  = 5 * time.Minute
	pgPingTimeout  = 5 * time.Second
)

// PostgresStore persists snapshots in the bi_report_snapshots table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects with the pgx driver, pings and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxIdleTime(pgMaxIdleTime)

	pingCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pgPingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS bi_report_snapshots (
    id             TEXT PRIMARY KEY,
    operation      TEXT NOT NULL,
    generated_at   TIMESTAMPTZ NOT NULL,
    total_entities INTEGER NOT NULL,
    score          DOUBLE PRECISION NOT NULL DEFAULT 0,
    grade          TEXT NOT NULL DEFAULT '',
    warnings       JSONB NOT NULL DEFAULT '[]',
    request_id     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS bi_report_snapshots_generated_at_idx ON bi_report_snapshots (generated_at DESC);
`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save inserts a snapshot. Saving the same id twice is a no-op.
func (s *PostgresStore) Save(ctx context.Context, snap model.ReportSnapshot) error { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Milliseconds()))
	}()

	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	raw, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	const q = `
INSERT INTO bi_report_snapshots (id, operation, generated_at, total_entities, score, grade, warnings, request_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING;
`
	_, err = s.db.ExecContext(ctx, q,
		snap.ID, string(snap.Operation), snap.GeneratedAt, snap.TotalEntities,
		snap.Score, snap.Grade, raw, snap.RequestID)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.ReportSnapshot, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	const q = `
SELECT id, operation, generated_at, total_entities, score, grade, warnings, request_id
FROM bi_report_snapshots
ORDER BY generated_at DESC, id ASC
LIMIT $1;
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.ReportSnapshot
	for rows.Next() {
		var (
			snap model.ReportSnapshot
			op   string
			raw  []byte
		)
		if err := rows.Scan(&snap.ID, &op, &snap.GeneratedAt, &snap.TotalEntities,
			&snap.Score, &snap.Grade, &raw, &snap.RequestID); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Operation = model.Operation(op)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &snap.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings: %w", err)
			}
		}
		if len(snap.Warnings) == 0 {
			snap.Warnings = nil
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored snapshots.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM bi_report_snapshots;`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	metrics.UpdateRepositoryRecordsTotal(n)
	return n, nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
