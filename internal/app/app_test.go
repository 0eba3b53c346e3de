package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui"
	"github.com/willibrandon/datascope/internal/ui/components"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

// fakeService serves a shop database with users (3 rows) and orders
// (45 rows).
type fakeService struct {
	mu       sync.Mutex
	sessions int
	pingErr  error

	savedPath        string
	savedCompression gateway.CompressionType
}

var tableRows = map[string]int{"users": 3, "orders": 45}

func (f *fakeService) Upload(ctx context.Context, filename string, r io.Reader) (*gateway.UploadResult, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sessions++
	id := fmt.Sprintf("sess-%d", f.sessions)
	f.mu.Unlock()
	return &gateway.UploadResult{SessionID: id, Schema: session.NewSchema(
		session.Table{Name: "users", Columns: []session.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, NotNull: true},
			{Name: "name", Type: "TEXT"},
		}},
		session.Table{Name: "orders", Columns: []session.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "user_id", Type: "INTEGER", NotNull: true},
		}},
	)}, nil
}

func (f *fakeService) FetchPage(ctx context.Context, sessionID, table string, page, pageSize int) (*session.ViewResult, error) {
	total, ok := tableRows[table]
	if !ok {
		return nil, &gateway.RemoteOperationError{Op: gateway.OpFetchPage, Status: 404, Message: "Table not found"}
	}
	v := &session.ViewResult{
		TableName:  table,
		Columns:    []string{"id"},
		Pagination: session.Pagination{Page: page, PageSize: pageSize, TotalRows: total, TotalPages: session.TotalPagesFor(total, pageSize)},
	}
	for i := (page-1)*pageSize + 1; i <= total && i <= page*pageSize; i++ {
		v.Rows = append(v.Rows, session.Row{"id": i})
	}
	return v, nil
}

func (f *fakeService) RunQuery(ctx context.Context, sessionID, query string) (*session.ViewResult, error) {
	return &session.ViewResult{
		Columns:    []string{"n", "label"},
		Rows:       []session.Row{{"n": 1, "label": "one"}, {"n": 2, "label": nil}},
		Pagination: session.Pagination{Page: 1, PageSize: 2, TotalRows: 2, TotalPages: 1},
	}, nil
}

func (f *fakeService) Explain(ctx context.Context, sessionID, query string) (session.QueryPlan, error) {
	return session.QueryPlan{{ID: 2, ParentID: 0, Detail: "SCAN users"}}, nil
}

func (f *fakeService) FetchInsights(ctx context.Context, sessionID, table string) (*session.InsightsReport, error) {
	return &session.InsightsReport{TableName: table, TotalRows: tableRows[table], TotalCols: 2}, nil
}

func (f *fakeService) FetchDiagramSource(ctx context.Context, sessionID string) (string, error) {
	return "erDiagram\n  users ||--o{ orders : places", nil
}

func (f *fakeService) GenerateSQL(ctx context.Context, prompt, schemaText string) (string, error) {
	return "SELECT * FROM users ORDER BY id LIMIT 10", nil
}

func (f *fakeService) SaveDatabase(ctx context.Context, sessionID, path string, compression gateway.CompressionType) (*gateway.DownloadResult, error) {
	f.mu.Lock()
	f.savedPath, f.savedCompression = path, compression
	f.mu.Unlock()
	return &gateway.DownloadResult{Path: path + compression.Extension(), Bytes: 4096, StoredBytes: 1024, Compression: compression}, nil
}

func (f *fakeService) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) Write(text string) error {
	c.text = text
	return nil
}

// collect runs cmd and returns the messages it produces within a short
// window. Timers and cursor blinks do not fire in time and are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// settle feeds the messages cmd produces back into m until nothing is left.
func settle(m *Model, cmd tea.Cmd) {
	for depth := 0; cmd != nil && depth < 10; depth++ {
		var next []tea.Cmd
		for _, msg := range collect(cmd) {
			if _, ok := msg.(tea.QuitMsg); ok {
				continue
			}
			_, c := m.Update(msg)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
}

func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	settle(m, cmd)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		send(m, keyMsg(k))
	}
}

func newTestModel(t *testing.T, opts ...Option) (*Model, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	m := New(config.Default(), svc, opts...)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, svc
}

func uploadShop(t *testing.T, m *Model) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	require.NoError(t, os.WriteFile(path, []byte("SQLite format 3\x00"), 0644))
	send(m, components.PromptSubmitMsg{Kind: components.PromptUploadPath, Value: path})
	require.Equal(t, "sess-1", m.state.SessionID, m.statusText)
}

func TestModel_UploadShowsTables(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, "o")
	require.True(t, m.prompt.IsVisible())
	assert.Equal(t, components.PromptUploadPath, m.prompt.Kind())
	press(m, "esc")
	assert.False(t, m.prompt.IsVisible())

	uploadShop(t, m)
	assert.Equal(t, "shop.db", m.fileName)
	assert.Equal(t, ui.PaneSidebar, m.pane)
	assert.Contains(t, m.statusText, "Loaded shop.db: 2 tables")

	view := m.View()
	assert.Contains(t, view, "users")
	assert.Contains(t, view, "orders")
}

func TestModel_RejectsNonSQLiteUpload(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, components.PromptSubmitMsg{Kind: components.PromptUploadPath, Value: "/tmp/notes.txt"})
	assert.Equal(t, gateway.ErrInvalidFileType, m.statusText)
	assert.False(t, m.state.HasSession())
}

func TestModel_SelectTableAndPage(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	press(m, "j")
	require.Equal(t, "orders", m.sidebar.Current())
	press(m, "enter")

	require.NotNil(t, m.state.View)
	assert.Equal(t, "orders", m.state.SelectedTable)
	assert.Equal(t, 1, m.state.View.Pagination.Page)
	assert.Equal(t, 3, m.state.View.Pagination.TotalPages)

	press(m, "tab")
	require.Equal(t, ui.PaneResults, m.pane)
	press(m, "j", "j")
	cell, ok := m.grid.SelectedCell()
	require.True(t, ok)
	assert.Equal(t, "3", cell)

	press(m, "n")
	assert.Equal(t, 2, m.state.View.Pagination.Page)
	cell, _ = m.grid.SelectedCell()
	assert.Equal(t, "21", cell, "a new page starts at its first row")

	press(m, "n", "n")
	assert.Equal(t, 3, m.state.View.Pagination.Page)
	assert.Contains(t, m.statusText, "outside")

	press(m, "p")
	assert.Equal(t, 2, m.state.View.Pagination.Page)
}

func TestModel_StaleSelectionDropped(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	first, err := m.orch.SelectTable("users")
	require.NoError(t, err)
	second, err := m.orch.SelectTable("orders")
	require.NoError(t, err)

	send(m, second())
	send(m, first())
	assert.Equal(t, "orders", m.state.SelectedTable)
	assert.False(t, m.state.Loading)
}

func TestModel_QuitKey(t *testing.T) {
	m, _ := newTestModel(t)

	m.setPane(ui.PaneEditor)
	_, cmd := m.Update(keyMsg("q"))
	for _, msg := range collect(cmd) {
		assert.NotEqual(t, tea.QuitMsg{}, msg)
	}
	assert.False(t, m.quitting)
	assert.Equal(t, "q", m.editor.Value())

	press(m, "esc")
	assert.Equal(t, ui.PaneResults, m.pane)

	_, cmd = m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}

func TestModel_RunQueryRecordsHistory(t *testing.T) {
	history := sqleditor.NewHistoryManager(nil, 10)
	m, _ := newTestModel(t, WithHistory(history))
	uploadShop(t, m)

	send(m, sqleditor.QueryRequestMsg{SQL: "SELECT n, label FROM numbers"})

	require.NotNil(t, m.state.View)
	assert.Len(t, m.state.View.Rows, 2)
	assert.Empty(t, m.state.SelectedTable)
	assert.Contains(t, m.statusText, "2 rows in")
	assert.Equal(t, 1, history.Len())
	assert.False(t, m.queryRunning)
}

func TestModel_ExplainShowsPlanTab(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	send(m, sqleditor.QueryRequestMsg{SQL: "SELECT * FROM users", Explain: true})
	assert.Equal(t, session.TabExplainPlan, m.state.ActiveTab)
	assert.Contains(t, m.View(), "SCAN users")
}

func TestModel_QueryWithoutSessionWarns(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, sqleditor.QueryRequestMsg{SQL: "SELECT 1"})
	assert.Equal(t, "No database loaded. Upload a .sqlite or .db file first.", m.statusText)
	assert.Equal(t, ui.StatusWarning, m.statusLevel)
}

func TestModel_AssistLoadsDraft(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	send(m, sqleditor.AssistRequestMsg{})
	require.True(t, m.prompt.IsVisible())
	require.Equal(t, components.PromptAssist, m.prompt.Kind())

	press(m, "top users", "enter")
	assert.False(t, m.prompt.IsVisible())
	assert.Equal(t, "SELECT * FROM users ORDER BY id LIMIT 10", m.editor.Value())
	assert.Equal(t, ui.PaneEditor, m.pane)
	assert.Empty(t, m.orch.TakeDraft(), "the draft is adopted once")
}

func TestModel_AssistWithoutSession(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, components.PromptSubmitMsg{Kind: components.PromptAssist, Value: "top users"})
	assert.Equal(t, "Upload a database first so the assistant knows the schema", m.statusText)
	assert.Empty(t, m.state.Err, "assist errors stay out of the shared error")
}

func TestModel_InsightsNeedSelectedTable(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	press(m, "2")
	assert.Equal(t, session.TabData, m.state.ActiveTab)
	assert.Contains(t, m.statusText, "Select a table")

	press(m, "enter", "2")
	require.Equal(t, session.TabInsights, m.state.ActiveTab)
	require.NotNil(t, m.state.Insights.Report)
	assert.Equal(t, "users", m.state.Insights.Table)

	press(m, "1")
	assert.Equal(t, session.TabData, m.state.ActiveTab)
}

func TestModel_SnippetSaveAndPick(t *testing.T) {
	snippets, err := sqleditor.NewSnippetManager(t.TempDir())
	require.NoError(t, err)
	m, _ := newTestModel(t, WithSnippets(snippets))

	send(m, sqleditor.SaveSnippetRequestMsg{SQL: "SELECT 1"})
	require.True(t, m.prompt.IsVisible())
	require.Equal(t, components.PromptSnippetName, m.prompt.Kind())
	press(m, "esc")

	send(m, components.PromptSubmitMsg{Kind: components.PromptSnippetName, Value: "one"})
	saved, err := snippets.Get("one")
	require.NoError(t, err)
	assert.Empty(t, saved.Tables)
	assert.Equal(t, "Saved snippet 'one'", m.statusText)

	send(m, sqleditor.OpenPickerMsg{Mode: sqleditor.PickerSnippets})
	require.True(t, m.picker.IsOpen())
	press(m, "enter")
	assert.False(t, m.picker.IsOpen())
	assert.Equal(t, "SELECT 1", m.editor.Value())
	assert.Equal(t, ui.PaneEditor, m.pane)

	used, err := snippets.Get("one")
	require.NoError(t, err)
	assert.Equal(t, 1, used.Runs)
}

func TestModel_SnippetRecordsLoadedTables(t *testing.T) {
	snippets, err := sqleditor.NewSnippetManager(t.TempDir())
	require.NoError(t, err)
	m, _ := newTestModel(t, WithSnippets(snippets))
	uploadShop(t, m)

	send(m, sqleditor.SaveSnippetRequestMsg{SQL: "SELECT * FROM Orders JOIN users ON users.id = orders.user_id"})
	send(m, components.PromptSubmitMsg{Kind: components.PromptSnippetName, Value: "orders.by_user"})

	saved, err := snippets.Get("orders.by_user")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, saved.Tables)
	assert.Equal(t, "shop.db", saved.Database)

	send(m, sqleditor.SaveSnippetRequestMsg{SQL: "SELECT COUNT(*) FROM orders"})
	send(m, components.PromptSubmitMsg{Kind: components.PromptSnippetName, Value: "orders.by_user"})
	assert.Equal(t, "Updated snippet 'orders.by_user'", m.statusText)
	saved, err = snippets.Get("orders.by_user")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, saved.Tables)
}

func TestModel_PickerUnavailable(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, sqleditor.OpenPickerMsg{Mode: sqleditor.PickerHistory})
	assert.False(t, m.picker.IsOpen())
	assert.Equal(t, "Query history is disabled", m.statusText)
}

func TestModel_ExportAndDownload(t *testing.T) {
	m, svc := newTestModel(t)
	uploadShop(t, m)
	send(m, sqleditor.QueryRequestMsg{SQL: "SELECT n, label FROM numbers"})

	dir := t.TempDir()
	out := filepath.Join(dir, "numbers.json")
	send(m, components.PromptSubmitMsg{Kind: components.PromptExportPath, Value: out})
	assert.Contains(t, m.statusText, "Exported 2 rows")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows, 2)

	send(m, components.PromptSubmitMsg{Kind: components.PromptDownloadPath, Value: filepath.Join(dir, "copy.db.zst")})
	assert.Equal(t, filepath.Join(dir, "copy.db"), svc.savedPath)
	assert.Equal(t, gateway.CompressionZstd, svc.savedCompression)
	assert.Contains(t, m.statusText, "Saved "+filepath.Join(dir, "copy.db.zst"))
}

func TestModel_CopyCellAndRow(t *testing.T) {
	clip := &fakeClipboard{}
	m, _ := newTestModel(t, WithClipboard(clip))
	uploadShop(t, m)
	send(m, sqleditor.QueryRequestMsg{SQL: "SELECT n, label FROM numbers"})
	m.setPane(ui.PaneResults)

	press(m, "y")
	assert.Equal(t, "1", clip.text)

	press(m, "j", "Y")
	assert.Equal(t, "2\tNULL", clip.text)
	assert.Equal(t, "Copied row", m.statusText)
}

func TestModel_DiagramOverlay(t *testing.T) {
	clip := &fakeClipboard{}
	m, _ := newTestModel(t, WithClipboard(clip))

	press(m, "m")
	assert.False(t, m.diagram.IsVisible())
	assert.Equal(t, "No database loaded", m.statusText)

	uploadShop(t, m)
	press(m, "m")
	require.True(t, m.diagram.IsVisible())
	assert.Contains(t, m.View(), "erDiagram")

	press(m, "y")
	assert.Equal(t, "erDiagram\n  users ||--o{ orders : places", clip.text)

	press(m, "esc")
	assert.False(t, m.diagram.IsVisible())
}

func TestModel_CloseSession(t *testing.T) {
	m, _ := newTestModel(t)
	uploadShop(t, m)

	press(m, "ctrl+w")
	assert.False(t, m.state.HasSession())
	assert.Empty(t, m.fileName)
	assert.Equal(t, "Closed shop.db", m.statusText)
	assert.NoError(t, m.state.CheckInvariants())
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, "?")
	require.True(t, m.helpVisible)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	press(m, "o")
	assert.False(t, m.prompt.IsVisible(), "keys do not leak through the help overlay")

	press(m, "esc")
	assert.False(t, m.helpVisible)
}

func TestModel_PingFailureShowsGuidance(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, ui.PingResultMsg{Err: errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")})
	assert.Contains(t, m.View(), "Connection refused")

	send(m, ui.PingResultMsg{Latency: 3 * time.Millisecond})
	assert.NotContains(t, m.View(), "Connection refused")
}

func TestModel_StatusClearsBySequence(t *testing.T) {
	m, _ := newTestModel(t)

	m.setStatus("first", ui.StatusInfo)
	stale := m.statusSeq
	m.setStatus("second", ui.StatusInfo)

	m.Update(ui.ClearStatusMsg{Seq: stale})
	assert.Equal(t, "second", m.statusText)

	m.Update(ui.ClearStatusMsg{Seq: m.statusSeq})
	assert.Empty(t, m.statusText)
}

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		in   string
		path string
		want gateway.CompressionType
	}{
		{"shop.db", "shop.db", gateway.CompressionNone},
		{"shop.db.gz", "shop.db", gateway.CompressionGzip},
		{"shop.db.LZ4", "shop.db", gateway.CompressionLZ4},
		{"out/shop.db.zst", "out/shop.db", gateway.CompressionZstd},
	}
	for _, tt := range tests {
		path, c := compressionForPath(tt.in)
		assert.Equal(t, tt.path, path, tt.in)
		assert.Equal(t, tt.want, c, tt.in)
	}
}

func TestDefaultDownloadName(t *testing.T) {
	assert.Equal(t, "shop-copy.db", defaultDownloadName("shop.db"))
	assert.Equal(t, "database.db", defaultDownloadName(""))
}

func TestFormatServiceError(t *testing.T) {
	const url = "http://127.0.0.1:8000"
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"refused", errors.New("dial tcp: connect: connection refused"), "Connection refused"},
		{"dns", errors.New("dial tcp: lookup nowhere: no such host"), "Host not found"},
		{"timeout", context.DeadlineExceeded, "Timeout"},
		{"wrapped", &gateway.RemoteOperationError{Op: gateway.OpPing, Message: "Ping failed", Err: errors.New("dial tcp: connection refused")}, "Connection refused"},
		{"server", &gateway.RemoteOperationError{Op: gateway.OpPing, Status: 502, Message: "bad gateway"}, "HTTP 502"},
		{"other", errors.New("boom"), "Data service error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatServiceError(tt.err, url), tt.want)
		})
	}
}
