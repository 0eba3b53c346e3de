package sqleditor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/datascope/internal/session"
)

func shopSchema() *session.Schema {
	return session.NewSchema(
		session.Table{Name: "users"},
		session.Table{Name: "orders"},
		session.Table{Name: "order_items"},
	)
}

func TestSnippetManager_SavePersistsTables(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSnippetManager(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SnippetsFileName), sm.Path())

	ctx := SnippetContext{Database: "shop.db", Schema: shopSchema()}
	replaced, err := sm.Save("big-orders", "SELECT * FROM orders o JOIN \"users\" u ON u.id = o.user_id", ctx)
	require.NoError(t, err)
	assert.False(t, replaced)

	require.NoError(t, sm.MarkRun("big-orders"))
	replaced, err = sm.Save("big-orders", "SELECT * FROM orders WHERE total > 500", ctx)
	require.NoError(t, err)
	assert.True(t, replaced)

	data, err := os.ReadFile(sm.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 2")
	assert.Contains(t, string(data), "database: shop.db")

	reopened, err := NewSnippetManager(dir)
	require.NoError(t, err)
	s, err := reopened.Get("big-orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE total > 500", s.SQL)
	assert.Equal(t, []string{"orders"}, s.Tables)
	assert.Equal(t, 1, s.Runs, "replacing a snippet keeps its run count")
	assert.False(t, s.LastRun.IsZero())
}

func TestSnippetManager_Validation(t *testing.T) {
	sm, err := NewSnippetManager(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name, snippet, sql string
	}{
		{"empty name", "", "SELECT 1"},
		{"empty sql", "one", "   "},
		{"space in name", "my query", "SELECT 1"},
		{"slash in name", "a/b", "SELECT 1"},
		{"too long", strings.Repeat("x", 65), "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sm.Save(tt.snippet, tt.sql, SnippetContext{})
			assert.Error(t, err)
		})
	}
	assert.Zero(t, sm.Len())
	_, err = os.Stat(sm.Path())
	assert.True(t, os.IsNotExist(err), "rejected saves must not create the file")
}

func TestSnippetManager_MatchingRanksRunnableFirst(t *testing.T) {
	sm, err := NewSnippetManager(t.TempDir())
	require.NoError(t, err)

	full := shopSchema()
	for name, sql := range map[string]string{
		"items.total":  "SELECT SUM(qty) FROM order_items",
		"orders.count": "SELECT COUNT(*) FROM orders",
		"users.active": "SELECT * FROM users WHERE active = 1",
	} {
		_, err := sm.Save(name, sql, SnippetContext{Schema: full})
		require.NoError(t, err)
	}
	require.NoError(t, sm.MarkRun("users.active"))

	// A database without order_items.
	loaded := session.NewSchema(session.Table{Name: "users"}, session.Table{Name: "orders"})
	got := sm.Matching("", loaded)
	require.Len(t, got, 3)
	assert.Equal(t, "users.active", got[0].Name, "most recently run first")
	assert.Equal(t, "orders.count", got[1].Name)
	assert.Equal(t, "items.total", got[2].Name)
	assert.False(t, got[2].Runnable())
	assert.Equal(t, []string{"order_items"}, got[2].Missing)

	filtered := sm.Matching("ORDER", loaded)
	require.Len(t, filtered, 2)
	assert.Equal(t, "orders.count", filtered[0].Name)

	byTable := sm.Matching("users", nil)
	require.Len(t, byTable, 1)
	assert.True(t, byTable[0].Runnable())
}

func TestSnippetManager_Delete(t *testing.T) {
	sm, err := NewSnippetManager(t.TempDir())
	require.NoError(t, err)
	_, err = sm.Save("users.all", "SELECT * FROM users", SnippetContext{})
	require.NoError(t, err)

	require.NoError(t, sm.Delete("users.all"))
	assert.Zero(t, sm.Len())
	assert.Error(t, sm.Delete("users.all"))
	assert.Error(t, sm.MarkRun("users.all"))

	_, err = sm.Get("missing")
	assert.Error(t, err)
}

func TestReferencedTables(t *testing.T) {
	schema := shopSchema()
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT * FROM ORDERS", []string{"orders"}},
		{"SELECT * FROM [order_items] JOIN `users` USING (id)", []string{"users", "order_items"}},
		{"SELECT user_count FROM stats", nil},
		{"SELECT 1", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReferencedTables(tt.sql, schema), tt.sql)
	}
	assert.Nil(t, ReferencedTables("SELECT * FROM users", nil))
}

func TestSnippetManager_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnippetsFileName), []byte("snippets: [unclosed"), 0644))

	_, err := NewSnippetManager(dir)
	assert.Error(t, err)
}
