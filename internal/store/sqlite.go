package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

// SQLiteStore persists the latest snapshot per identity in a local file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 10000;`,
		`PRAGMA synchronous = NORMAL;`,
		`CREATE TABLE IF NOT EXISTS meeting_snaps (
			identity TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, record Record) (Record, error) {
	record, err := prepare(record)
	if err != nil {
		return Record{}, err
	}
	payload, err := json.Marshal(record.Snapshot)
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meeting_snaps (identity, id, path, digest, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET
			id = excluded.id,
			path = excluded.path,
			digest = excluded.digest,
			snapshot = excluded.snapshot,
			created_at = excluded.created_at`,
		record.Identity,
		record.ID,
		record.Path,
		record.Digest,
		string(payload),
		record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("save snapshot: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, identity string) (Record, error) {
	var (
		r       Record
		payload string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, identity, path, digest, snapshot, created_at
		 FROM meeting_snaps WHERE identity = ?`,
		identity,
	).Scan(&r.ID, &r.Identity, &r.Path, &r.Digest, &payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	r.Snapshot = snapshot.FromJSON([]byte(payload))
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

func (s *SQLiteStore) Mode() string { return "sqlite" }

func (s *SQLiteStore) Close() error { return s.db.Close() }
