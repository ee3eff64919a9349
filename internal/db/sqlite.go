// Package db provides SQLite connectivity helpers and migration support for
// the notification store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// SQLite DSN parameters for production hardening.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
	defaultReadConns   = 4
)

// Mode selects the pool flavour opened by OpenSQLite.
type Mode string

const (
	// ModeWrite opens a single-connection pool that takes the write lock on BEGIN.
	ModeWrite Mode = "write"
	// ModeRead opens a multi-connection pool for concurrent readers.
	ModeRead Mode = "read"
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
//
// Write pools hold a single connection and use _txlock=immediate so that
// concurrent writers queue on busy_timeout instead of failing mid-transaction.
// Read pools hold maxOpen connections (0 means 4). Both use WAL.
func OpenSQLite(path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == ModeWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = defaultReadConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return db, nil
}

// Pool is a write/read pool pair over one SQLite file.
type Pool struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens a Pool for path and applies all pending migrations.
func Open(ctx context.Context, path string, readMaxOpen int) (*Pool, error) {
	write, err := OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	read, err := OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = write.Close()
		return nil, err
	}

	p := &Pool{Write: write, Read: read}
	if _, err := RunMigrations(ctx, write); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Ping checks both pools.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.Write.PingContext(ctx); err != nil {
		return fmt.Errorf("write pool: %w", err)
	}
	if err := p.Read.PingContext(ctx); err != nil {
		return fmt.Errorf("read pool: %w", err)
	}
	return nil
}

// Close closes both pools.
func (p *Pool) Close() error {
	return errors.Join(p.Read.Close(), p.Write.Close())
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")

	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}

	return path + "?" + params.Encode()
}
