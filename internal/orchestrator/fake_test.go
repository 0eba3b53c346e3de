package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
)

// fakeService serves a fixed two-table database: users (3 rows) and
// orders (45 rows).
type fakeService struct {
	mu    sync.Mutex
	calls map[string]int
	// fail maps an operation name to the error it returns.
	fail map[string]error
	// sessions counts uploads to hand out distinct ids.
	sessions int
}

func newFakeService() *fakeService {
	return &fakeService{calls: map[string]int{}, fail: map[string]error{}}
}

var tableRows = map[string]int{"users": 3, "orders": 45}

func fakeSchema() *session.Schema {
	return session.NewSchema(
		session.Table{Name: "users", Columns: []session.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, NotNull: true},
			{Name: "name", Type: "TEXT"},
		}},
		session.Table{Name: "orders", Columns: []session.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "user_id", Type: "INTEGER", NotNull: true},
		}},
	)
}

func (f *fakeService) count(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeService) Upload(ctx context.Context, filename string, r io.Reader) (*gateway.UploadResult, error) {
	if err := f.count("upload"); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sessions++
	id := fmt.Sprintf("sess-%d", f.sessions)
	f.mu.Unlock()
	return &gateway.UploadResult{SessionID: id, Schema: fakeSchema()}, nil
}

func (f *fakeService) FetchPage(ctx context.Context, sessionID, table string, page, pageSize int) (*session.ViewResult, error) {
	if err := f.count("fetch_page"); err != nil {
		return nil, err
	}
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
	if err := f.count("run_query"); err != nil {
		return nil, err
	}
	if strings.HasPrefix(query, "SELEC ") {
		return nil, &gateway.RemoteOperationError{Op: gateway.OpRunQuery, Status: 400, Message: "near \"SELEC\": syntax error"}
	}
	return &session.ViewResult{
		TableName:  "should-be-cleared",
		Columns:    []string{"1"},
		Rows:       []session.Row{{"1": 1}},
		Pagination: session.Pagination{Page: 1, PageSize: 1, TotalRows: 1, TotalPages: 1},
	}, nil
}

func (f *fakeService) Explain(ctx context.Context, sessionID, query string) (session.QueryPlan, error) {
	if err := f.count("explain"); err != nil {
		return nil, err
	}
	return session.QueryPlan{
		{ID: 4, ParentID: 0, Detail: "SCAN users"},
		{ID: 2, ParentID: 0, Detail: "USE TEMP B-TREE FOR ORDER BY"},
	}, nil
}

func (f *fakeService) FetchInsights(ctx context.Context, sessionID, table string) (*session.InsightsReport, error) {
	if err := f.count("insights"); err != nil {
		return nil, err
	}
	return &session.InsightsReport{TableName: table, TotalRows: tableRows[table], TotalCols: 2}, nil
}

func (f *fakeService) FetchDiagramSource(ctx context.Context, sessionID string) (string, error) {
	if err := f.count("diagram"); err != nil {
		return "", err
	}
	return "erDiagram\n  users ||--o{ orders : places", nil
}

func (f *fakeService) GenerateSQL(ctx context.Context, prompt, schemaText string) (string, error) {
	if err := f.count("generate_sql"); err != nil {
		return "", err
	}
	if !strings.Contains(schemaText, "CREATE TABLE users") {
		return "", fmt.Errorf("schema text missing")
	}
	return "SELECT COUNT(*) FROM users;", nil
}

func (f *fakeService) SaveDatabase(ctx context.Context, sessionID, path string, compression gateway.CompressionType) (*gateway.DownloadResult, error) {
	if err := f.count("download"); err != nil {
		return nil, err
	}
	return &gateway.DownloadResult{Path: path + compression.Extension(), Bytes: 4096, StoredBytes: 4096, Compression: compression}, nil
}

// memoryHistory records history entries in memory.
type memoryHistory struct {
	entries []sqlite.HistoryEntry
}

func (m *memoryHistory) Add(e sqlite.HistoryEntry) error {
	m.entries = append(m.entries, e)
	return nil
}
