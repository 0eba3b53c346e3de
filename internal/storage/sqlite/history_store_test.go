package sqlite

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestHistoryStore(t *testing.T, maxEntries int) (*HistoryStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	store := NewHistoryStore(db, maxEntries)
	cleanup := func() {
		db.Close()
	}
	return store, cleanup
}

func TestHistoryStore_AddAndRecent(t *testing.T) {
	store, cleanup := setupTestHistoryStore(t, 0)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	queries := []string{"SELECT * FROM users", "SELECT * FROM orders", "SELECT COUNT(*) FROM users"}
	for i, q := range queries {
		err := store.Add(HistoryEntry{SQL: q, SessionID: "abc", ExecutedAt: base.Add(time.Duration(i) * time.Minute), RowCount: int64(i)})
		if err != nil {
			t.Fatalf("Add(%q) failed: %v", q, err)
		}
	}

	entries, err := store.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].SQL != "SELECT COUNT(*) FROM users" {
		t.Errorf("newest entry = %q", entries[0].SQL)
	}
	if entries[0].Kind != KindRun || entries[0].SessionID != "abc" {
		t.Errorf("entry metadata = %+v", entries[0])
	}
}

func TestHistoryStore_DeduplicatesByFingerprint(t *testing.T) {
	store, cleanup := setupTestHistoryStore(t, 0)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	mustAdd := func(e HistoryEntry) {
		t.Helper()
		if err := store.Add(e); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	mustAdd(HistoryEntry{SQL: "SELECT * FROM users WHERE id = 1", ExecutedAt: base})
	mustAdd(HistoryEntry{SQL: "SELECT * FROM orders", ExecutedAt: base.Add(time.Minute)})
	mustAdd(HistoryEntry{SQL: "SELECT * FROM users WHERE id = 42", Kind: KindExplain, ExecutedAt: base.Add(2 * time.Minute)})

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", count)
	}

	entries, _ := store.GetRecent(10)
	if entries[0].SQL != "SELECT * FROM users WHERE id = 42" || entries[0].Kind != KindExplain {
		t.Errorf("deduplicated entry did not move to the top: %+v", entries[0])
	}
}

func TestHistoryStore_Cap(t *testing.T) {
	store, cleanup := setupTestHistoryStore(t, 2)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"SELECT 1 FROM a", "SELECT 1 FROM b", "SELECT 1 FROM c"} {
		if err := store.Add(HistoryEntry{SQL: q, ExecutedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	count, _ := store.Count()
	if count != 2 {
		t.Fatalf("expected cap of 2, got %d", count)
	}
	entries, _ := store.GetRecent(10)
	if entries[1].SQL != "SELECT 1 FROM b" {
		t.Errorf("oldest entry was not evicted: %+v", entries)
	}
}

func TestHistoryStore_SearchAndClear(t *testing.T) {
	store, cleanup := setupTestHistoryStore(t, 0)
	defer cleanup()

	for _, q := range []string{"SELECT * FROM users", "PRAGMA table_info(orders)", "  "} {
		if err := store.Add(HistoryEntry{SQL: q}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	found, err := store.Search("TABLE_INFO", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(found) != 1 || found[0].SQL != "PRAGMA table_info(orders)" {
		t.Errorf("search result = %+v", found)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count, _ := store.Count(); count != 0 {
		t.Errorf("expected empty history, got %d", count)
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("SELECT * FROM t WHERE a = 1") != Fingerprint("SELECT * FROM t WHERE a = 2") {
		t.Error("literal values should not change the fingerprint")
	}
	if Fingerprint("SELECT a FROM t") == Fingerprint("SELECT b FROM t") {
		t.Error("different columns should differ")
	}
	if Fingerprint("PRAGMA  table_info(t)") != Fingerprint("PRAGMA table_info(t)") {
		t.Error("unparseable statements should ignore whitespace differences")
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	if db.SizeBytes() != 0 {
		t.Error("in-memory database should report zero size")
	}
	store := NewHistoryStore(db, 10)
	if err := store.Add(HistoryEntry{SQL: "SELECT 1"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
}
