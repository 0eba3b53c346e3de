package sqlite

import (
	"database/sql"
	"strings"
	"time"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// HistoryKind tells whether a query was run or only explained.
type HistoryKind string

const (
	KindRun     HistoryKind = "run"
	KindExplain HistoryKind = "explain"
)

// DefaultMaxEntries caps the history when no limit is configured.
const DefaultMaxEntries = 1000

// HistoryEntry is one recorded query.
type HistoryEntry struct {
	ID         int64
	SQL        string
	Kind       HistoryKind
	SessionID  string
	ExecutedAt time.Time
	DurationMs int64
	RowCount   int64
	Error      string
}

// HistoryStore provides access to the query history.
type HistoryStore struct {
	db         *DB
	maxEntries int
}

// NewHistoryStore creates a history store keeping at most maxEntries
// distinct queries.
func NewHistoryStore(db *DB, maxEntries int) *HistoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &HistoryStore{db: db, maxEntries: maxEntries}
}

// Fingerprint hashes a query so that statements differing only in literal
// values collapse to one entry. Statements the normalizer cannot parse,
// such as SQLite-only syntax, are hashed as written after whitespace is
// collapsed. The result is signed for SQLite's INTEGER column.
func Fingerprint(sqlText string) int64 {
	normalized, err := pg_query.Normalize(sqlText)
	if err != nil {
		normalized = strings.Join(strings.Fields(sqlText), " ")
	}
	return int64(pg_query.HashXXH3_64([]byte(normalized), 0))
}

// Add records a query with shell-style deduplication: an existing entry
// with the same fingerprint is updated and moves to the top.
func (s *HistoryStore) Add(e HistoryEntry) error {
	e.SQL = strings.TrimSpace(e.SQL)
	if e.SQL == "" {
		return nil
	}
	if e.Kind == "" {
		e.Kind = KindRun
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}

	fp := Fingerprint(e.SQL)

	result, err := s.db.conn.Exec(`
		UPDATE query_history
		SET query = ?, kind = ?, session_id = ?, executed_at = ?, duration_ms = ?, row_count = ?, error = ?
		WHERE fingerprint = ?
	`, e.SQL, string(e.Kind), e.SessionID, e.ExecutedAt, e.DurationMs, e.RowCount, e.Error, fp)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		_, err = s.db.conn.Exec(`
			INSERT INTO query_history (fingerprint, query, kind, session_id, executed_at, duration_ms, row_count, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, fp, e.SQL, string(e.Kind), e.SessionID, e.ExecutedAt, e.DurationMs, e.RowCount, e.Error)
		if err != nil {
			return err
		}
	}

	_, _ = s.db.conn.Exec(`
		DELETE FROM query_history
		WHERE id NOT IN (
			SELECT id FROM query_history
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		)
	`, s.maxEntries)

	return nil
}

// GetRecent returns the most recent entries, newest first.
func (s *HistoryStore) GetRecent(limit int) ([]HistoryEntry, error) {
	return s.Search("", limit)
}

// Search returns entries whose text contains query (case-insensitive),
// newest first. An empty query matches everything.
func (s *HistoryStore) Search(query string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error

	if query == "" {
		rows, err = s.db.conn.Query(`
			SELECT id, query, kind, session_id, executed_at, duration_ms, row_count, error
			FROM query_history
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.conn.Query(`
			SELECT id, query, kind, session_id, executed_at, duration_ms, row_count, error
			FROM query_history
			WHERE query LIKE ?
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		`, "%"+query+"%", limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var kind string
		if err := rows.Scan(&entry.ID, &entry.SQL, &kind, &entry.SessionID, &entry.ExecutedAt,
			&entry.DurationMs, &entry.RowCount, &entry.Error); err != nil {
			continue
		}
		entry.Kind = HistoryKind(kind)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the total number of history entries.
func (s *HistoryStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM query_history").Scan(&count)
	return count, err
}

// Clear removes every entry.
func (s *HistoryStore) Clear() error {
	_, err := s.db.conn.Exec("DELETE FROM query_history")
	return err
}
