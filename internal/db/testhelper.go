package db

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated Pool in t.TempDir() and registers cleanup.
func OpenTestSQLite(t *testing.T) *Pool {
	t.Helper()

	p, err := Open(context.Background(), filepath.Join(t.TempDir(), "notifications.sqlite"), 2)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}
