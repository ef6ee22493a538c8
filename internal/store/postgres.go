package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

// PostgresStore persists the latest snapshot per identity in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meeting_snaps (
			identity TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			snapshot JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_meeting_snaps_created ON meeting_snaps (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) (Record, error) {
	record, err := prepare(record)
	if err != nil {
		return Record{}, err
	}
	payload, err := json.Marshal(record.Snapshot)
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO meeting_snaps (identity, id, path, digest, snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (identity) DO UPDATE SET
			id = EXCLUDED.id,
			path = EXCLUDED.path,
			digest = EXCLUDED.digest,
			snapshot = EXCLUDED.snapshot,
			created_at = EXCLUDED.created_at`,
		record.Identity,
		record.ID,
		record.Path,
		record.Digest,
		payload,
		record.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("save snapshot: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Latest(ctx context.Context, identity string) (Record, error) {
	var (
		r       Record
		payload []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, identity, path, digest, snapshot, created_at
		 FROM meeting_snaps WHERE identity=$1`,
		identity,
	).Scan(&r.ID, &r.Identity, &r.Path, &r.Digest, &payload, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	r.Snapshot = snapshot.FromJSON(payload)
	return r, nil
}

func (s *PostgresStore) Mode() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
