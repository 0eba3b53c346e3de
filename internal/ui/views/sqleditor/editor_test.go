package sqleditor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/datascope/internal/storage/sqlite"
	"github.com/willibrandon/datascope/internal/ui"
)

func ctrlKey(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestEditor(history *HistoryManager) *Editor {
	e := NewEditor(ui.DefaultKeyMap(), history)
	e.SetSize(80, 10)
	e.Focus()
	return e
}

func TestEditor_ExecuteAndExplain(t *testing.T) {
	e := newTestEditor(nil)
	e.SetValue("  SELECT * FROM users  ")

	_, cmd := e.Update(ctrlKey(tea.KeyCtrlE))
	require.NotNil(t, cmd)
	assert.Equal(t, QueryRequestMsg{SQL: "SELECT * FROM users"}, cmd())

	_, cmd = e.Update(ctrlKey(tea.KeyCtrlX))
	require.NotNil(t, cmd)
	assert.Equal(t, QueryRequestMsg{SQL: "SELECT * FROM users", Explain: true}, cmd())
}

func TestEditor_RequestsOverlays(t *testing.T) {
	e := newTestEditor(nil)
	e.SetValue("SELECT 1")

	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{ctrlKey(tea.KeyCtrlA), AssistRequestMsg{}},
		{ctrlKey(tea.KeyCtrlS), SaveSnippetRequestMsg{SQL: "SELECT 1"}},
		{ctrlKey(tea.KeyCtrlO), OpenPickerMsg{Mode: PickerSnippets}},
		{ctrlKey(tea.KeyCtrlR), OpenPickerMsg{Mode: PickerHistory}},
	}
	for _, tt := range tests {
		_, cmd := e.Update(tt.key)
		require.NotNil(t, cmd, tt.key.String())
		assert.Equal(t, tt.want, cmd(), tt.key.String())
	}
}

func TestEditor_Typing(t *testing.T) {
	e := newTestEditor(nil)
	e.Update(runes("SELECT"))
	assert.Equal(t, "SELECT", e.Value())
}

func TestEditor_HistoryRecallRestoresDraft(t *testing.T) {
	hm := NewHistoryManager(nil, 10)
	require.NoError(t, hm.Add(sqlite.HistoryEntry{SQL: "SELECT * FROM users"}))
	require.NoError(t, hm.Add(sqlite.HistoryEntry{SQL: "SELECT * FROM orders"}))

	e := newTestEditor(hm)
	e.SetValue("SELECT draft")

	e.Update(ctrlKey(tea.KeyCtrlP))
	assert.Equal(t, "SELECT * FROM orders", e.Value())
	e.Update(ctrlKey(tea.KeyCtrlP))
	assert.Equal(t, "SELECT * FROM users", e.Value())

	e.Update(ctrlKey(tea.KeyCtrlN))
	assert.Equal(t, "SELECT * FROM orders", e.Value())
	e.Update(ctrlKey(tea.KeyCtrlN))
	assert.Equal(t, "SELECT draft", e.Value())
	assert.False(t, hm.IsBrowsing())
}

func TestEditor_View(t *testing.T) {
	e := NewEditor(ui.DefaultKeyMap(), nil)
	e.SetSize(80, 8)
	assert.Contains(t, e.View(false), "ctrl+e run")

	e.SetValue("SELECT 1")
	assert.Contains(t, e.View(true), "running")
}

func TestPicker_FilterAndChoose(t *testing.T) {
	hm := NewHistoryManager(nil, 10)
	for _, q := range []string{"SELECT * FROM users", "SELECT * FROM orders", "PRAGMA table_info(users)"} {
		require.NoError(t, hm.Add(sqlite.HistoryEntry{SQL: q}))
	}

	p := NewPicker(hm, nil)
	p.SetSize(100, 30)
	assert.False(t, p.Open(PickerSnippets), "no snippet source")
	require.True(t, p.Open(PickerHistory))
	assert.Contains(t, p.View(), "PRAGMA")

	for _, r := range "orders" {
		p.Update(runes(string(r)))
	}
	assert.NotContains(t, p.View(), "PRAGMA")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, PickerChosenMsg{Mode: PickerHistory, SQL: "SELECT * FROM orders"}, cmd())
	assert.False(t, p.IsOpen())
}

func TestPicker_DeleteSnippet(t *testing.T) {
	sm, err := NewSnippetManager(t.TempDir())
	require.NoError(t, err)
	_, err = sm.Save("a", "SELECT 1", SnippetContext{})
	require.NoError(t, err)
	_, err = sm.Save("b", "SELECT 2", SnippetContext{})
	require.NoError(t, err)

	p := NewPicker(nil, sm)
	require.True(t, p.Open(PickerSnippets))
	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p.Update(ctrlKey(tea.KeyCtrlD))

	_, err = sm.Get("b")
	assert.Error(t, err)
	assert.Contains(t, p.View(), "Deleted snippet 'b'")

	p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, p.IsOpen())
}
