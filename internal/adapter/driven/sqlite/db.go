// Package sqlite implements the driven store ports on SQLite.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// readerPoolSize caps concurrent read connections. The board's read load is a
// dashboard polling a handful of list endpoints, so a small pool is plenty.
const readerPoolSize = 4

// DB holds the split connection pools the repos run on: a single writer so
// upserts from the sync loop and webhook handlers serialize instead of
// tripping SQLITE_BUSY, and a reader pool for the list endpoints.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the database file with WAL journaling, a busy timeout, and
// foreign keys on. Both pools share the same DSN; only their size differs.
func NewDB(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	writer, err := openPool(dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}

	reader, err := openPool(dsn, readerPoolSize)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, path: dbPath}, nil
}

// openPool opens one pool on dsn, capped at maxConns, and verifies it with a
// ping so a bad path fails at startup rather than on first query.
func openPool(dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return pool, nil
}

// Close closes both pools, returning the first error encountered.
func (db *DB) Close() error {
	writerErr := db.Writer.Close()
	readerErr := db.Reader.Close()
	if writerErr != nil {
		return writerErr
	}
	return readerErr
}
