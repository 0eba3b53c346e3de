package orchestrator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/session"
)

func errNoSession() error {
	return &gateway.ValidationError{Field: "SessionID", Message: "No database loaded. Upload a .sqlite or .db file first."}
}

func errUploadPending() error {
	return &gateway.ValidationError{Field: "SessionID", Message: "Wait for the database upload to finish"}
}

// gridGuard checks that grid actions have a session to run against.
func (o *Orchestrator) gridGuard() (string, error) {
	if o.uploading {
		return "", errUploadPending()
	}
	sid := o.store.SessionID()
	if sid == "" {
		return "", errNoSession()
	}
	return sid, nil
}

// UploadFile uploads the database file at path.
func (o *Orchestrator) UploadFile(path string) (tea.Cmd, error) {
	name := filepath.Base(path)
	return o.upload(name, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// UploadReader uploads a database read from r under the given file name.
func (o *Orchestrator) UploadReader(name string, r io.Reader) (tea.Cmd, error) {
	return o.upload(name, func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})
}

func (o *Orchestrator) upload(name string, open func() (io.ReadCloser, error)) (tea.Cmd, error) {
	if err := gateway.ValidateUploadName(name); err != nil {
		// An action in flight still owns the loading flag and the error
		// line; the caller reports the rejection itself.
		if !o.store.Loading() {
			o.store.SetError(gateway.Message(err))
		}
		return nil, err
	}

	gen := o.begin(KindUpload)
	o.uploading = true
	o.store.SetLoading(true)

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		f, err := open()
		if err != nil {
			return UploadDoneMsg{Gen: gen, Name: name, Err: &gateway.RemoteOperationError{
				Op: gateway.OpUpload, Message: gateway.FallbackMessage(gateway.OpUpload), Err: err,
			}}
		}
		defer f.Close()
		res, err := svc.Upload(ctx, name, f)
		return UploadDoneMsg{Gen: gen, Name: name, Result: res, Err: err}
	}, nil
}

// EndSession drops the loaded database and everything in flight.
func (o *Orchestrator) EndSession() {
	o.invalidateAll()
	o.assist = AssistState{}
	o.diagram = DiagramState{}
	o.store.EndSession()
}

// SelectTable shows page 1 of table and makes it the selected table.
func (o *Orchestrator) SelectTable(table string) (tea.Cmd, error) {
	sid, err := o.gridGuard()
	if err != nil {
		return nil, err
	}
	if !o.store.HasTable(table) {
		return nil, &gateway.ValidationError{Field: "Table", Message: fmt.Sprintf("Unknown table %q", table)}
	}

	gen := o.begin(KindSelectTable)
	o.store.Atomically(func() {
		o.store.SetQueryPlan(nil)
		o.store.SetLoading(true)
	})

	ctx, svc, size := o.ctx, o.svc, o.pageSize
	return func() tea.Msg {
		start := time.Now()
		res, err := svc.FetchPage(ctx, sid, table, 1, size)
		return ViewLoadedMsg{Kind: KindSelectTable, Gen: gen, SessionID: sid, Table: table,
			Result: res, Elapsed: time.Since(start), Err: err}
	}, nil
}

// ChangePage re-fetches the current table at page. Requests outside
// 1..TotalPages, or on a query-backed view, change nothing and return a
// ValidationError without a command.
func (o *Orchestrator) ChangePage(page int) (tea.Cmd, error) {
	sid, err := o.gridGuard()
	if err != nil {
		return nil, err
	}
	p, table, ok := o.store.Pagination()
	if !ok || table == "" {
		return nil, &gateway.ValidationError{Field: "Page", Message: "Only table views can be paged"}
	}
	if !p.Contains(page) {
		return nil, &gateway.ValidationError{Field: "Page",
			Message: fmt.Sprintf("Page %d is outside 1..%d", page, p.TotalPages)}
	}

	gen := o.begin(KindChangePage)
	o.store.SetLoading(true)

	ctx, svc, size := o.ctx, o.svc, p.PageSize
	return func() tea.Msg {
		start := time.Now()
		res, err := svc.FetchPage(ctx, sid, table, page, size)
		return ViewLoadedMsg{Kind: KindChangePage, Gen: gen, SessionID: sid, Table: table,
			Result: res, Elapsed: time.Since(start), Err: err}
	}, nil
}

// NextPage moves one page forward when possible.
func (o *Orchestrator) NextPage() (tea.Cmd, error) {
	p, _, _ := o.store.Pagination()
	return o.ChangePage(p.Page + 1)
}

// PrevPage moves one page back when possible.
func (o *Orchestrator) PrevPage() (tea.Cmd, error) {
	p, _, _ := o.store.Pagination()
	return o.ChangePage(p.Page - 1)
}

func (o *Orchestrator) queryGuard(query string) (string, string, error) {
	sid, err := o.gridGuard()
	if err != nil {
		return "", "", err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", &gateway.ValidationError{Field: "Query", Message: "Query cannot be empty"}
	}
	return sid, query, nil
}

// RunQuery executes free-form SQL. On success the grid shows the result,
// no table is selected and the Data tab is visible.
func (o *Orchestrator) RunQuery(query string) (tea.Cmd, error) {
	sid, query, err := o.queryGuard(query)
	if err != nil {
		return nil, err
	}

	gen := o.begin(KindRunQuery)
	o.store.Atomically(func() {
		o.store.SetQueryPlan(nil)
		o.store.SetLoading(true)
	})

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		start := time.Now()
		res, err := svc.RunQuery(ctx, sid, query)
		return ViewLoadedMsg{Kind: KindRunQuery, Gen: gen, SessionID: sid, Query: query,
			Result: res, Elapsed: time.Since(start), Err: err}
	}, nil
}

// Explain requests the plan for query. The grid is kept but marked stale.
func (o *Orchestrator) Explain(query string) (tea.Cmd, error) {
	sid, query, err := o.queryGuard(query)
	if err != nil {
		return nil, err
	}

	gen := o.begin(KindExplain)
	o.store.Atomically(func() {
		o.store.MarkViewStale()
		o.store.SetLoading(true)
	})

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		start := time.Now()
		plan, err := svc.Explain(ctx, sid, query)
		return PlanLoadedMsg{Gen: gen, SessionID: sid, Query: query, Plan: plan,
			Elapsed: time.Since(start), Err: err}
	}, nil
}

// SetTab switches the visible tab. Switching to Insights for a table whose
// insights are neither loaded nor loading returns the fetch command.
func (o *Orchestrator) SetTab(tab session.Tab) tea.Cmd {
	applied := o.store.SetActiveTab(tab)
	if applied != session.TabInsights {
		return nil
	}
	table := o.store.SelectedTable()
	if o.store.Insights().Settled(table) {
		return nil
	}
	return o.startInsights(table, true)
}

// FetchInsights refetches insights for the selected table, bypassing the
// cache. It is the user-initiated retry.
func (o *Orchestrator) FetchInsights() (tea.Cmd, error) {
	if o.store.SessionID() == "" {
		return nil, errNoSession()
	}
	table := o.store.SelectedTable()
	if table == "" {
		return nil, &gateway.ValidationError{Field: "Table", Message: "Insights need a selected table"}
	}
	if o.insightsCache != nil {
		o.insightsCache.Delete(insightsKey(o.store.SessionID(), table))
	}
	return o.startInsights(table, false), nil
}

func (o *Orchestrator) startInsights(table string, useCache bool) tea.Cmd {
	sid := o.store.SessionID()
	gen := o.begin(KindInsights)

	if useCache && o.insightsCache != nil {
		if cached, ok := o.insightsCache.Get(insightsKey(sid, table)); ok {
			if report, ok := cached.(*session.InsightsReport); ok {
				logger.Debug("Insights served from cache", "table", table)
				o.store.SetInsights(table, report)
				return nil
			}
		}
	}

	o.store.BeginInsights(table)

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		report, err := svc.FetchInsights(ctx, sid, table)
		return InsightsLoadedMsg{Gen: gen, SessionID: sid, Table: table, Report: report, Err: err}
	}
}

// Download saves the session database to path. It does not touch the store.
func (o *Orchestrator) Download(path string, compression gateway.CompressionType) (tea.Cmd, error) {
	sid := o.store.SessionID()
	if sid == "" {
		return nil, errNoSession()
	}
	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		res, err := svc.SaveDatabase(ctx, sid, path, compression)
		return DownloadDoneMsg{Result: res, Err: err}
	}, nil
}
