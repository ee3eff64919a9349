package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/n.sqlite", ModeWrite)
	assert.Contains(t, write, "_journal_mode=WAL")
	assert.Contains(t, write, "_busy_timeout=5000")
	assert.Contains(t, write, "_txlock=immediate")
	assert.True(t, strings.HasPrefix(write, "/tmp/n.sqlite?"))

	read := buildDSN("/tmp/n.sqlite", ModeRead)
	assert.Contains(t, read, "_foreign_keys=on")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "n.db"), Mode("bogus"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_PoolSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n.db")

	w, err := OpenSQLite(path, ModeWrite, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	assert.Equal(t, 1, w.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, w.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	r, err := OpenSQLite(path, ModeRead, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	assert.Equal(t, 4, r.Stats().MaxOpenConnections)
}

func TestOpen_Migrates(t *testing.T) {
	p := OpenTestSQLite(t)
	ctx := context.Background()

	version, err := SchemaVersion(ctx, p.Read)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var n int
	require.NoError(t, p.Read.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&n))
	assert.Zero(t, n)

	// Re-running is a no-op.
	version, err = RunMigrations(ctx, p.Write)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.NoError(t, p.Ping(ctx))
}

func TestPool_ConcurrentWrites(t *testing.T) {
	p := OpenTestSQLite(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Write.Exec(
				"INSERT INTO notifications (id, message, created_at) VALUES (?, 'm', '2026-01-01T00:00:00.000000000Z')",
				"n"+strings.Repeat("x", i),
			)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, p.Read.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&n))
	assert.Equal(t, 20, n)
}
