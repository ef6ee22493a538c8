package store

import (
	"context"
	"strings"
)

// NewStore picks PostgreSQL when databaseURL is set, then SQLite when
// sqlitePath is set, otherwise memory.
func NewStore(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL)
	}
	if p := strings.TrimSpace(sqlitePath); p != "" {
		return NewSQLiteStore(ctx, p)
	}
	return NewInMemoryStore(), nil
}
