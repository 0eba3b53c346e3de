// Package sqlite provides the local SQLite store for query history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

// DB is the history database handle.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the history database at path. The special path
// ":memory:" opens a throwaway database.
func Open(path string) (*DB, error) {
	dsn := memoryPath
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		// WAL lets the TUI and a one-shot CLI command share the file;
		// _loc=auto parses DATETIME columns into time.Time.
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_loc=auto"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		// Every pooled connection would get its own empty database.
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SizeBytes returns the on-disk size of the database file, or 0 for an
// in-memory database.
func (db *DB) SizeBytes() int64 {
	if db.path == "" || db.path == memoryPath {
		return 0
	}
	info, err := os.Stat(db.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
