package sqleditor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/datascope/internal/storage/sqlite"
)

func newStoreBackedHistory(t *testing.T) *HistoryManager {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryManager(sqlite.NewHistoryStore(db, 100), 100)
}

func addQueries(t *testing.T, hm *HistoryManager, queries ...string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, q := range queries {
		require.NoError(t, hm.Add(sqlite.HistoryEntry{SQL: q, ExecutedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
}

func TestHistoryManager_Navigation(t *testing.T) {
	for name, hm := range map[string]*HistoryManager{
		"sqlite":    newStoreBackedHistory(t),
		"in-memory": NewHistoryManager(nil, 10),
	} {
		t.Run(name, func(t *testing.T) {
			addQueries(t, hm, "SELECT 1", "SELECT * FROM users", "SELECT * FROM orders")
			require.Equal(t, 3, hm.Len())
			assert.False(t, hm.IsBrowsing())

			assert.Equal(t, "SELECT * FROM orders", hm.Previous())
			assert.True(t, hm.IsBrowsing())
			assert.Equal(t, "SELECT * FROM users", hm.Previous())
			assert.Equal(t, "SELECT 1", hm.Previous())
			assert.Equal(t, "SELECT 1", hm.Previous(), "stays on the oldest entry")
			require.NotNil(t, hm.Current())
			assert.Equal(t, "SELECT 1", hm.Current().SQL)

			assert.Equal(t, "SELECT * FROM users", hm.Next())
			assert.Equal(t, "SELECT * FROM orders", hm.Next())
			assert.Equal(t, "", hm.Next(), "moving past the newest entry ends browsing")
			assert.False(t, hm.IsBrowsing())
			assert.Nil(t, hm.Current())
		})
	}
}

func TestHistoryManager_DedupMovesToTop(t *testing.T) {
	hm := NewHistoryManager(nil, 10)
	addQueries(t, hm, "SELECT * FROM users WHERE id = 1", "SELECT * FROM orders", "SELECT * FROM users WHERE id = 42")

	assert.Equal(t, 2, hm.Len())
	assert.Equal(t, "SELECT * FROM users WHERE id = 42", hm.Previous())
	assert.Equal(t, "SELECT * FROM orders", hm.Previous())
}

func TestHistoryManager_InMemoryCap(t *testing.T) {
	hm := NewHistoryManager(nil, 2)
	addQueries(t, hm, "SELECT 1 FROM a", "SELECT 1 FROM b", "SELECT 1 FROM c")

	assert.Equal(t, 2, hm.Len())
	results := hm.Search("")
	require.Len(t, results, 2)
	assert.Equal(t, "SELECT 1 FROM c", results[0].SQL)
	assert.Equal(t, "SELECT 1 FROM b", results[1].SQL)
}

func TestHistoryManager_Search(t *testing.T) {
	hm := newStoreBackedHistory(t)
	addQueries(t, hm, "SELECT * FROM users", "SELECT * FROM orders", "select email from USERS")

	results := hm.Search("users")
	require.Len(t, results, 2)
	assert.Equal(t, "select email from USERS", results[0].SQL)
	assert.Equal(t, "SELECT * FROM users", results[1].SQL)

	assert.Len(t, hm.Search(""), 3)
	assert.Empty(t, hm.Search("invoices"))
}

func TestHistoryManager_ReloadsFromStore(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	store := sqlite.NewHistoryStore(db, 100)
	require.NoError(t, store.Add(sqlite.HistoryEntry{SQL: "SELECT * FROM users"}))

	hm := NewHistoryManager(store, 100)
	assert.Equal(t, 1, hm.Len())
	assert.Equal(t, "SELECT * FROM users", hm.Previous())
}

func TestHistoryManager_IgnoresBlank(t *testing.T) {
	hm := NewHistoryManager(nil, 10)
	require.NoError(t, hm.Add(sqlite.HistoryEntry{SQL: "   "}))
	assert.Equal(t, 0, hm.Len())
	assert.Equal(t, "", hm.Previous())
}
