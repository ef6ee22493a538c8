package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

func sample(decision string) snapshot.Snapshot {
	return snapshot.Validate(map[string]any{
		"decisions": []any{decision},
		"actions":   []any{map[string]any{"action": "Send recap", "owner": "Alex"}},
	})
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Latest(ctx, "10.0.0.1")
	require.ErrorIs(t, err, ErrNotFound)

	first, err := s.Save(ctx, Record{Identity: "10.0.0.1", Snapshot: sample("first"), Path: "logic"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Len(t, first.Digest, 64)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.Save(ctx, Record{Identity: "10.0.0.1", Snapshot: sample("second"), Path: "fallback"})
	require.NoError(t, err)

	got, err := s.Latest(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "fallback", got.Path)
	assert.Equal(t, second.Digest, got.Digest)
	assert.Equal(t, sample("second"), got.Snapshot)
	assert.True(t, second.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Latest(ctx, "10.0.0.2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snaps.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "sqlite", s.Mode())
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MEETING_SNAP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MEETING_SNAP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.pool.Exec(ctx, `DELETE FROM meeting_snaps WHERE identity IN ('10.0.0.1', '10.0.0.2')`)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSaveRevalidatesSnapshot(t *testing.T) {
	s := NewInMemoryStore()
	rec, err := s.Save(context.Background(), Record{
		Identity: "x",
		Snapshot: snapshot.Snapshot{Decisions: []string{"  padded  "}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"padded"}, rec.Snapshot.Decisions)
	assert.Equal(t, []snapshot.Action{}, rec.Snapshot.Actions)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := NewStore(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "memory", mem.Mode())

	lite, err := NewStore(ctx, "", filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer lite.Close()
	assert.Equal(t, "sqlite", lite.Mode())
}
