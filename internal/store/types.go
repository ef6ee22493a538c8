// Package store keeps the latest snapshot per caller identity.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

// ErrNotFound is returned by Latest when nothing is stored for an identity.
var ErrNotFound = errors.New("snapshot not found")

// Record is one cached snapshot.
type Record struct {
	ID        string            `json:"id"`
	Identity  string            `json:"-"`
	Snapshot  snapshot.Snapshot `json:"snapshot"`
	Path      string            `json:"path"`
	Digest    string            `json:"digest"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists the most recent snapshot per identity. Save replaces any
// previous record for the same identity.
type Store interface {
	Save(ctx context.Context, record Record) (Record, error)
	Latest(ctx context.Context, identity string) (Record, error)
	Mode() string
	Close() error
}

// prepare validates the snapshot and fills ID, Digest and CreatedAt.
func prepare(record Record) (Record, error) {
	record.Snapshot = snapshot.Validate(record.Snapshot)
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	digest, err := snapshot.Digest(record.Snapshot)
	if err != nil {
		return Record{}, err
	}
	record.Digest = digest
	return record, nil
}
