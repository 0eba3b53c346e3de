package sqlite

// initSchema creates the database schema if it doesn't exist.
func (db *DB) initSchema() error {
	schema := `
	-- Executed queries, one row per fingerprint
	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint INTEGER NOT NULL UNIQUE,
		query TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'run',
		session_id TEXT NOT NULL DEFAULT '',
		executed_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_query_history_executed_at ON query_history(executed_at DESC);
	`

	_, err := db.conn.Exec(schema)
	return err
}
