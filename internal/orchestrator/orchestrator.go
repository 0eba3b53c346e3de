// Package orchestrator sequences user actions against the data service and
// applies their results to the session store.
//
// Actions run on the caller's goroutine: they check their guard, apply the
// begin mutations and return a tea.Cmd that performs the remote call. The
// completion message must be handed back to Apply on the same goroutine.
// Every action kind carries a generation counter; a completion whose
// generation is no longer current is dropped.
package orchestrator

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/patrickmn/go-cache"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
)

// Service is the subset of the data service client the orchestrator uses.
type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*gateway.UploadResult, error)
	FetchPage(ctx context.Context, sessionID, table string, page, pageSize int) (*session.ViewResult, error)
	RunQuery(ctx context.Context, sessionID, query string) (*session.ViewResult, error)
	Explain(ctx context.Context, sessionID, query string) (session.QueryPlan, error)
	FetchInsights(ctx context.Context, sessionID, table string) (*session.InsightsReport, error)
	FetchDiagramSource(ctx context.Context, sessionID string) (string, error)
	GenerateSQL(ctx context.Context, prompt, schemaText string) (string, error)
	SaveDatabase(ctx context.Context, sessionID, path string, compression gateway.CompressionType) (*gateway.DownloadResult, error)
}

// HistoryRecorder stores executed queries.
type HistoryRecorder interface {
	Add(e sqlite.HistoryEntry) error
}

// storeKinds drive the shared loading flag. Starting any of them
// supersedes the others in flight, so the most recent action owns the flag
// and the grid.
var storeKinds = []Kind{KindUpload, KindSelectTable, KindChangePage, KindRunQuery, KindExplain}

// Orchestrator owns the action protocols.
type Orchestrator struct {
	store    *session.Store
	svc      Service
	history  HistoryRecorder
	ctx      context.Context
	pageSize int

	insightsCache *cache.Cache

	gen [numKinds]uint64

	// uploading is set while the latest upload has not completed. Grid
	// actions would run against the session it is about to replace.
	uploading bool

	assist  AssistState
	diagram DiagramState
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPageSize sets the rows fetched per table page.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithHistory records run and explained queries.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Orchestrator) {
		o.history = h
	}
}

// WithInsightsCacheTTL keeps fetched insights for ttl so revisiting a
// table does not refetch. Zero disables the cache.
func WithInsightsCacheTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl <= 0 {
			o.insightsCache = nil
			return
		}
		o.insightsCache = cache.New(ttl, 2*ttl)
	}
}

// WithContext sets the base context of every remote call.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		o.ctx = ctx
	}
}

// New creates an orchestrator for store backed by svc.
func New(store *session.Store, svc Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		svc:           svc,
		ctx:           context.Background(),
		pageSize:      session.DefaultPageSize,
		insightsCache: cache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the session store the orchestrator mutates.
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// PageSize returns the rows fetched per table page.
func (o *Orchestrator) PageSize() int {
	return o.pageSize
}

// begin starts a new generation for k and invalidates whatever k
// supersedes. It returns the new generation.
func (o *Orchestrator) begin(k Kind) uint64 {
	if isStoreKind(k) {
		for _, other := range storeKinds {
			// A pending upload is only replaced by another upload.
			if other != k && other != KindUpload {
				o.gen[other]++
			}
		}
	}
	switch k {
	case KindUpload:
		o.cancelInsights()
		o.gen[KindGenerateSQL]++
		o.gen[KindDiagram]++
	case KindSelectTable, KindRunQuery:
		// The insights slot belongs to the table being replaced.
		o.cancelInsights()
	}
	o.gen[k]++
	return o.gen[k]
}

// cancelInsights drops the in-flight insights fetch. Its completion will
// be discarded, so a loading slot is emptied to let the next visit to the
// tab fetch again.
func (o *Orchestrator) cancelInsights() {
	o.gen[KindInsights]++
	o.store.CancelInsights()
}

// invalidateAll drops every in-flight completion.
func (o *Orchestrator) invalidateAll() {
	for k := range o.gen {
		o.gen[k]++
	}
	o.uploading = false
}

func isStoreKind(k Kind) bool {
	for _, sk := range storeKinds {
		if sk == k {
			return true
		}
	}
	return false
}

// current reports whether gen is the latest generation of k, logging the
// drop otherwise.
func (o *Orchestrator) current(k Kind, gen uint64) bool {
	if o.gen[k] == gen {
		return true
	}
	logger.Debug("Discarding stale completion", "kind", k.String(), "gen", gen, "current", o.gen[k])
	return false
}

// Apply applies a completion message. It reports whether the message was an
// orchestrator message that changed state; stale completions return false.
func (o *Orchestrator) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case UploadDoneMsg:
		return o.applyUpload(msg)
	case ViewLoadedMsg:
		return o.applyView(msg)
	case PlanLoadedMsg:
		return o.applyPlan(msg)
	case InsightsLoadedMsg:
		return o.applyInsights(msg)
	case SQLGeneratedMsg:
		return o.applyGenerated(msg)
	case DiagramLoadedMsg:
		return o.applyDiagram(msg)
	case DownloadDoneMsg:
		if msg.Err != nil {
			logger.Warn("Download failed", "error", msg.Err)
		} else {
			logger.Info("Database saved", "path", msg.Result.Path, "bytes", msg.Result.Bytes)
		}
		return false
	}
	return false
}

// Run executes cmd synchronously and applies its message. It is meant for
// the CLI and tests, where there is no event loop.
func (o *Orchestrator) Run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	o.Apply(msg)
	return msg
}

func (o *Orchestrator) applyUpload(msg UploadDoneMsg) bool {
	if !o.current(KindUpload, msg.Gen) {
		return false
	}
	o.uploading = false
	if msg.Err != nil {
		o.store.SetError(gateway.Message(msg.Err))
		return true
	}

	// Anything started against the previous session is now meaningless.
	o.invalidateAll()
	o.assist = AssistState{}
	o.diagram = DiagramState{}
	o.store.StartSession(msg.Result.SessionID, msg.Result.Schema)
	logger.Info("Session started", "file", msg.Name, "session_id", msg.Result.SessionID,
		"tables", msg.Result.Schema.Len())
	return true
}

func (o *Orchestrator) applyView(msg ViewLoadedMsg) bool {
	if msg.Kind == KindRunQuery {
		o.record(sqlite.KindRun, msg.SessionID, msg.Query, msg.Elapsed, msg.Result, msg.Err)
	}
	if !o.current(msg.Kind, msg.Gen) || msg.SessionID != o.store.SessionID() {
		return false
	}
	if msg.Err != nil {
		o.store.SetError(gateway.Message(msg.Err))
		return true
	}

	o.store.Atomically(func() {
		switch msg.Kind {
		case KindSelectTable:
			o.store.SetViewResult(msg.Result)
			o.store.SetSelectedTable(msg.Table)
			o.store.SetActiveTab(session.TabData)
		case KindChangePage:
			o.store.SetViewResult(msg.Result)
		case KindRunQuery:
			res := msg.Result.Clone()
			if res != nil {
				res.TableName = ""
			}
			o.store.SetViewResult(res)
			o.store.SetSelectedTable("")
			o.store.SetActiveTab(session.TabData)
		}
	})
	return true
}

func (o *Orchestrator) applyPlan(msg PlanLoadedMsg) bool {
	o.record(sqlite.KindExplain, msg.SessionID, msg.Query, msg.Elapsed, nil, msg.Err)
	if !o.current(KindExplain, msg.Gen) || msg.SessionID != o.store.SessionID() {
		return false
	}
	if msg.Err != nil {
		o.store.SetError(gateway.Message(msg.Err))
		return true
	}

	o.store.Atomically(func() {
		plan := msg.Plan
		if plan == nil {
			plan = session.QueryPlan{}
		}
		o.store.SetQueryPlan(plan)
		o.store.SetActiveTab(session.TabExplainPlan)
		o.store.SetLoading(false)
	})
	return true
}

func (o *Orchestrator) applyInsights(msg InsightsLoadedMsg) bool {
	if !o.current(KindInsights, msg.Gen) {
		return false
	}
	if msg.SessionID != o.store.SessionID() || msg.Table != o.store.SelectedTable() {
		logger.Debug("Discarding insights for a table no longer selected", "table", msg.Table)
		return false
	}
	if msg.Err != nil {
		o.store.SetInsightsError(msg.Table, gateway.Message(msg.Err))
		return true
	}
	if o.insightsCache != nil {
		o.insightsCache.SetDefault(insightsKey(msg.SessionID, msg.Table), msg.Report.Clone())
	}
	o.store.SetInsights(msg.Table, msg.Report)
	return true
}

// record stores an executed query in the history, ignoring failures to
// write it.
func (o *Orchestrator) record(kind sqlite.HistoryKind, sessionID, query string, elapsed time.Duration, res *session.ViewResult, err error) {
	if o.history == nil || query == "" {
		return
	}
	entry := sqlite.HistoryEntry{
		SQL:        query,
		Kind:       kind,
		SessionID:  sessionID,
		ExecutedAt: time.Now(),
		DurationMs: elapsed.Milliseconds(),
	}
	if res != nil {
		entry.RowCount = int64(res.Pagination.TotalRows)
	}
	if err != nil {
		entry.Error = gateway.Message(err)
	}
	if herr := o.history.Add(entry); herr != nil {
		logger.Warn("Failed to record query history", "error", herr)
	}
}

func insightsKey(sessionID, table string) string {
	return sessionID + "\x00" + table
}
