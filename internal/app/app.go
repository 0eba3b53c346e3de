// Package app wires the session orchestrator to the terminal UI.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/orchestrator"
	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui"
	"github.com/willibrandon/datascope/internal/ui/components"
	"github.com/willibrandon/datascope/internal/ui/styles"
	"github.com/willibrandon/datascope/internal/ui/views/browser"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

// Pinger checks that the data service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service is everything the UI needs from the data service client.
type Service interface {
	orchestrator.Service
	Pinger
}

// latencySource is implemented by clients that track request latency.
type latencySource interface {
	Latency() *gateway.LatencyTracker
}

// Clipboard receives copied cells, rows and diagrams.
type Clipboard interface {
	Write(text string) error
}

// Option configures a Model.
type Option func(*Model)

// WithHistory enables query history recall and recording.
func WithHistory(h *sqleditor.HistoryManager) Option {
	return func(m *Model) { m.history = h }
}

// WithSnippets enables saved snippets.
func WithSnippets(s *sqleditor.SnippetManager) Option {
	return func(m *Model) { m.snippets = s }
}

// WithClipboard sets the clipboard used by the copy keys.
func WithClipboard(c Clipboard) Option {
	return func(m *Model) { m.clipboard = c }
}

// WithInitialFile uploads path as soon as the program starts.
func WithInitialFile(path string) Option {
	return func(m *Model) { m.initialFile = path }
}

// WithContext sets the base context of every remote call.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// Model represents the main Bubbletea application model
type Model struct {
	// Configuration
	config *config.Config
	ctx    context.Context

	// Data service and session state
	svc   Service
	orch  *orchestrator.Orchestrator
	state session.State

	// UI state
	width  int
	height int
	pane   ui.Pane

	// Keyboard bindings
	keys ui.KeyMap

	// UI components
	help       *components.HelpText
	statusBar  *components.StatusBar
	debugPanel *components.DebugPanel
	prompt     *components.PromptDialog

	// Views
	sidebar *browser.Sidebar
	grid    *browser.Grid
	diagram *browser.DiagramOverlay
	editor  *sqleditor.Editor
	picker  *sqleditor.Picker

	history   *sqleditor.HistoryManager
	snippets  *sqleditor.SnippetManager
	clipboard Clipboard

	fileName       string
	activity       string
	queryRunning   bool
	pendingSnippet string
	initialFile    string
	serviceErr     error

	// Footer message
	statusText  string
	statusLevel ui.StatusLevel
	statusSeq   int

	// Application state
	helpVisible bool
	quitting    bool
	ready       bool
}

// New creates a new application model
func New(cfg *config.Config, svc Service, opts ...Option) *Model {
	m := &Model{
		config:     cfg,
		ctx:        context.Background(),
		svc:        svc,
		keys:       ui.DefaultKeyMap(),
		statusBar:  components.NewStatusBar(),
		debugPanel: components.NewDebugPanel(),
		prompt:     components.NewPromptDialog(),
		sidebar:    browser.NewSidebar(),
		grid:       browser.NewGrid(),
		diagram:    browser.NewDiagramOverlay(),
		pane:       ui.PaneSidebar,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.help = components.NewHelp(helpSections(m.keys)...)
	m.statusBar.SetServiceURL(cfg.Service.BaseURL)
	m.statusBar.SetDateFormat(cfg.UI.DateFormat)

	m.editor = sqleditor.NewEditor(m.keys, m.history)
	m.editor.SetTheme(cfg.UI.SyntaxTheme())
	m.picker = sqleditor.NewPicker(m.history, m.snippets)
	m.picker.SetTheme(cfg.UI.SyntaxTheme())

	orchOpts := []orchestrator.Option{
		orchestrator.WithPageSize(cfg.UI.PageSize),
		orchestrator.WithInsightsCacheTTL(cfg.Service.InsightsCacheTTL),
		orchestrator.WithContext(m.ctx),
	}
	if m.history != nil {
		orchOpts = append(orchOpts, orchestrator.WithHistory(m.history))
	}
	store := session.NewStore()
	m.orch = orchestrator.New(store, svc, orchOpts...)
	store.Subscribe(m.syncState)
	m.syncState(store.Snapshot())

	return m
}

// helpSections titles the key map groups for the help overlay.
func helpSections(k ui.KeyMap) []components.HelpSection {
	titles := []string{"General", "Panes", "Tabs", "Navigation", "Paging", "Database", "Results", "Query", "History", "Snippets"}
	var sections []components.HelpSection
	for i, group := range k.FullHelp() {
		title := ""
		if i < len(titles) {
			title = titles[i]
		}
		sections = append(sections, components.HelpSection{Title: title, Bindings: group})
	}
	return sections
}

// Orchestrator returns the action sequencer behind the UI.
func (m *Model) Orchestrator() *orchestrator.Orchestrator {
	return m.orch
}

// Init initializes the application
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickStatusBar(), pingService(m.ctx, m.svc)}
	if m.initialFile != "" {
		cmds = append(cmds, m.upload(m.initialFile))
	}
	return tea.Batch(cmds...)
}

// syncState pushes a store snapshot into the views. It runs on every store
// mutation, on the Update goroutine.
func (m *Model) syncState(st session.State) {
	m.state = st
	m.sidebar.SetSchema(st.SessionID, st.Schema)
	m.sidebar.SetSelected(st.SelectedTable)
	m.grid.SetResult(st.View, st.ViewStale)

	if st.SessionID == "" {
		m.fileName = ""
	}
	tables := 0
	if st.Schema != nil {
		tables = st.Schema.Len()
	}
	m.statusBar.SetSession(m.fileName, st.SessionID, tables)
	if !st.Loading {
		m.activity = ""
		m.queryRunning = false
	}
	m.statusBar.SetLoading(st.Loading, m.activity)
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ready = true
		return m, nil

	case StatusBarTickMsg:
		m.statusBar.SetTimestamp(msg.Timestamp)
		return m, tickStatusBar()

	case pingTickMsg:
		return m, pingService(m.ctx, m.svc)

	case ui.PingResultMsg:
		if msg.Err != nil && m.serviceErr == nil {
			logger.Warn("Data service unreachable", "url", m.config.Service.BaseURL, "error", msg.Err)
		}
		m.serviceErr = msg.Err
		m.statusBar.SetReachable(msg.Err == nil, msg.Latency)
		if ls, ok := m.svc.(latencySource); ok {
			m.statusBar.SetLatencyTrail(ls.Latency().Samples())
		}
		return m, schedulePing()

	case ui.StatusMsg:
		return m, m.setStatus(msg.Text, msg.Level)

	case ui.ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.statusText = ""
		}
		return m, nil

	case components.PromptSubmitMsg:
		return m, m.handlePrompt(msg)

	case sqleditor.QueryRequestMsg:
		return m, m.runQuery(msg)

	case sqleditor.AssistRequestMsg:
		return m, m.prompt.Show(components.PromptAssist, "Ask AI",
			"Describe the rows you want. The table list is sent with the question.", "")

	case sqleditor.SaveSnippetRequestMsg:
		if m.snippets == nil {
			return m, m.setStatus("Snippets are unavailable", ui.StatusWarning)
		}
		if msg.SQL == "" {
			return m, m.setStatus("Nothing to save: the editor is empty", ui.StatusWarning)
		}
		m.pendingSnippet = msg.SQL
		return m, m.prompt.Show(components.PromptSnippetName, "Save Snippet",
			"Letters, digits, dot, dash and underscore", "")

	case sqleditor.OpenPickerMsg:
		m.picker.SetSchema(m.state.Schema)
		if !m.picker.Open(msg.Mode) {
			if msg.Mode == sqleditor.PickerHistory {
				return m, m.setStatus("Query history is disabled", ui.StatusWarning)
			}
			return m, m.setStatus("Snippets are unavailable", ui.StatusWarning)
		}
		return m, nil

	case sqleditor.PickerChosenMsg:
		if msg.Mode == sqleditor.PickerSnippets && m.snippets != nil {
			if err := m.snippets.MarkRun(msg.Name); err != nil {
				logger.Warn("Failed to record snippet use", "snippet", msg.Name, "error", err)
			}
		}
		m.editor.SetValue(msg.SQL)
		return m, m.setPane(ui.PaneEditor)

	case exportDoneMsg:
		if msg.Result.Error != nil {
			return m, m.setStatus(fmt.Sprintf("Export failed: %v", msg.Result.Error), ui.StatusError)
		}
		return m, m.setStatus(sqleditor.FormatExportSuccess(msg.Result), ui.StatusSuccess)

	case orchestrator.UploadDoneMsg, orchestrator.ViewLoadedMsg, orchestrator.PlanLoadedMsg,
		orchestrator.InsightsLoadedMsg, orchestrator.SQLGeneratedMsg, orchestrator.DiagramLoadedMsg,
		orchestrator.DownloadDoneMsg:
		return m, m.handleCompletion(msg)
	}

	return m, m.forward(msg)
}

// forward hands cursor blinks and other input messages to the focused input.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.prompt.IsVisible():
		_, cmd = m.prompt.Update(msg)
	case m.pane == ui.PaneEditor:
		_, cmd = m.editor.Update(msg)
	}
	return cmd
}

// handleCompletion applies a finished remote call and reports it.
func (m *Model) handleCompletion(msg tea.Msg) tea.Cmd {
	applied := m.orch.Apply(msg)

	switch msg := msg.(type) {
	case orchestrator.UploadDoneMsg:
		if !applied {
			return nil
		}
		if msg.Err != nil {
			return m.setStatus(gateway.Message(msg.Err), ui.StatusError)
		}
		m.fileName = msg.Name
		tables := msg.Result.Schema.Len()
		m.statusBar.SetSession(m.fileName, msg.Result.SessionID, tables)
		m.diagram.SetState(m.orch.Diagram())
		return tea.Batch(
			m.setPane(ui.PaneSidebar),
			m.setStatus(fmt.Sprintf("Loaded %s: %s", msg.Name, pluralize(tables, "table")), ui.StatusSuccess),
		)

	case orchestrator.ViewLoadedMsg:
		if !applied {
			return nil
		}
		if msg.Err != nil {
			// The previous table stays selected; pick its insights back up
			// when that tab is still showing.
			return m.orch.SetTab(m.state.ActiveTab)
		}
		m.grid.ResetCursor()
		if msg.Kind == orchestrator.KindRunQuery {
			return m.setStatus(fmt.Sprintf("%s in %s", pluralize(len(msg.Result.Rows), "row"),
				msg.Elapsed.Round(time.Millisecond)), ui.StatusSuccess)
		}

	case orchestrator.PlanLoadedMsg:
		if applied && msg.Err == nil {
			return m.setStatus(fmt.Sprintf("Query plan ready: %s", pluralize(len(msg.Plan), "step")), ui.StatusSuccess)
		}

	case orchestrator.SQLGeneratedMsg:
		if !applied {
			return nil
		}
		if draft := m.orch.TakeDraft(); draft != "" {
			m.editor.SetValue(draft)
			return tea.Batch(
				m.setPane(ui.PaneEditor),
				m.setStatus("Generated SQL loaded into the editor. Review it, then ctrl+e to run.", ui.StatusSuccess),
			)
		}
		if errMsg := m.orch.Assist().Err; errMsg != "" {
			return m.setStatus(errMsg, ui.StatusError)
		}

	case orchestrator.DiagramLoadedMsg:
		m.diagram.SetState(m.orch.Diagram())

	case orchestrator.DownloadDoneMsg:
		if msg.Err != nil {
			return m.setStatus(gateway.Message(msg.Err), ui.StatusError)
		}
		return m.setStatus(fmt.Sprintf("Saved %s (%s)", msg.Result.Path, humanize.Bytes(uint64(msg.Result.StoredBytes))), ui.StatusSuccess)
	}
	return nil
}

// handleKeyPress processes keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}

	// Overlays take every key while open
	switch {
	case m.prompt.IsVisible():
		_, cmd := m.prompt.Update(msg)
		return cmd
	case m.picker.IsOpen():
		_, cmd := m.picker.Update(msg)
		return cmd
	case m.debugPanel.IsVisible():
		_, cmd := m.debugPanel.Update(msg)
		return cmd
	case m.diagram.IsVisible():
		return m.handleDiagramKey(msg)
	case m.helpVisible:
		if key.Matches(msg, m.keys.Help, m.keys.CloseDialog) {
			m.helpVisible = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.NextPane):
		return m.setPane(m.pane.Next())
	case key.Matches(msg, m.keys.PrevPane):
		return m.setPane(m.pane.Prev())
	}

	// The editor owns printable keys, so single-letter shortcuts stay off
	if m.pane == ui.PaneEditor {
		if key.Matches(msg, m.keys.CloseDialog) {
			return m.setPane(ui.PaneResults)
		}
		_, cmd := m.editor.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.helpVisible = true
		return nil
	case key.Matches(msg, m.keys.Debug):
		m.debugPanel.Toggle()
		return nil
	case key.Matches(msg, m.keys.TabData):
		return m.setTab(session.TabData)
	case key.Matches(msg, m.keys.TabInsights):
		return m.setTab(session.TabInsights)
	case key.Matches(msg, m.keys.TabPlan):
		return m.setTab(session.TabExplainPlan)
	case key.Matches(msg, m.keys.Upload):
		return m.prompt.Show(components.PromptUploadPath, "Open Database", "Path to a .sqlite or .db file", "")
	case key.Matches(msg, m.keys.Download):
		if !m.state.HasSession() {
			return m.setStatus("No database loaded", ui.StatusWarning)
		}
		return m.prompt.Show(components.PromptDownloadPath, "Save Database",
			"End the name with .gz, .lz4 or .zst to compress", defaultDownloadName(m.fileName))
	case key.Matches(msg, m.keys.Diagram):
		return m.openDiagram()
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.Export):
		if m.grid.Result() == nil {
			return m.setStatus("No results to export", ui.StatusWarning)
		}
		return m.prompt.Show(components.PromptExportPath, "Export Results",
			"A .json name writes JSON, anything else writes CSV", "results.csv")
	case key.Matches(msg, m.keys.CopyCell):
		cell, ok := m.grid.SelectedCell()
		if !ok {
			return m.setStatus("No cell selected", ui.StatusWarning)
		}
		return m.copy(cell, "Copied cell")
	case key.Matches(msg, m.keys.CopyRow):
		row, ok := m.grid.SelectedRow()
		if !ok {
			return m.setStatus("No row selected", ui.StatusWarning)
		}
		return m.copy(strings.Join(row, "\t"), "Copied row")
	case key.Matches(msg, m.keys.Close):
		if !m.state.HasSession() {
			return nil
		}
		name := m.fileName
		m.orch.EndSession()
		m.diagram.SetState(m.orch.Diagram())
		return m.setStatus(fmt.Sprintf("Closed %s", name), ui.StatusInfo)
	case key.Matches(msg, m.keys.NextPage):
		cmd, err := m.orch.NextPage()
		return m.launch("Loading page", cmd, err)
	case key.Matches(msg, m.keys.PrevPage):
		cmd, err := m.orch.PrevPage()
		return m.launch("Loading page", cmd, err)
	}

	if m.pane == ui.PaneSidebar {
		return m.handleSidebarKey(msg)
	}
	m.handleResultsKey(msg)
	return nil
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.Move(1)
	case key.Matches(msg, m.keys.Home):
		m.sidebar.Home()
	case key.Matches(msg, m.keys.End):
		m.sidebar.End()
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		m.sidebar.ToggleExpand()
	case key.Matches(msg, m.keys.Select):
		table := m.sidebar.Current()
		if table == "" {
			return nil
		}
		cmd, err := m.orch.SelectTable(table)
		return m.launch("Loading "+table, cmd, err)
	}
	return nil
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.grid.MoveRow(-1)
	case key.Matches(msg, m.keys.Down):
		m.grid.MoveRow(1)
	case key.Matches(msg, m.keys.Left):
		m.grid.MoveCol(-1)
	case key.Matches(msg, m.keys.Right):
		m.grid.MoveCol(1)
	case key.Matches(msg, m.keys.Home):
		m.grid.Home()
	case key.Matches(msg, m.keys.End):
		m.grid.End()
	}
}

func (m *Model) handleDiagramKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.CloseDialog), key.Matches(msg, m.keys.Diagram):
		m.diagram.Hide()
		return nil
	case key.Matches(msg, m.keys.CopyCell):
		if m.diagram.Source() == "" {
			return m.setStatus("The diagram is not loaded yet", ui.StatusWarning)
		}
		return m.copy(m.diagram.Source(), "Copied diagram source")
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.orch.FetchDiagram(true)
		m.diagram.SetState(m.orch.Diagram())
		return cmd
	}
	_, cmd := m.diagram.Update(msg)
	return cmd
}

// handlePrompt acts on a confirmed dialog.
func (m *Model) handlePrompt(msg components.PromptSubmitMsg) tea.Cmd {
	switch msg.Kind {
	case components.PromptUploadPath:
		return m.upload(expandHome(msg.Value))

	case components.PromptDownloadPath:
		path, compression := compressionForPath(expandHome(msg.Value))
		cmd, err := m.orch.Download(path, compression)
		if err != nil {
			return m.setStatus(gateway.Message(err), ui.StatusWarning)
		}
		return tea.Batch(cmd, m.setStatus("Saving database...", ui.StatusInfo))

	case components.PromptExportPath:
		result := m.grid.Result()
		if result == nil {
			return m.setStatus("No results to export", ui.StatusWarning)
		}
		return exportResult(result, msg.Value)

	case components.PromptSnippetName:
		if m.snippets == nil {
			return nil
		}
		replaced, err := m.snippets.Save(msg.Value, m.pendingSnippet,
			sqleditor.SnippetContext{Database: m.fileName, Schema: m.state.Schema})
		if err != nil {
			return m.setStatus(err.Error(), ui.StatusError)
		}
		m.pendingSnippet = ""
		verb := "Saved"
		if replaced {
			verb = "Updated"
		}
		return m.setStatus(fmt.Sprintf("%s snippet '%s'", verb, msg.Value), ui.StatusSuccess)

	case components.PromptAssist:
		cmd := m.orch.GenerateSQL(msg.Value)
		if cmd == nil {
			return m.setStatus(m.orch.Assist().Err, ui.StatusWarning)
		}
		return tea.Batch(cmd, m.setStatus("Asking the assistant...", ui.StatusInfo))
	}
	return nil
}

func (m *Model) upload(path string) tea.Cmd {
	cmd, err := m.orch.UploadFile(path)
	return m.launch("Uploading "+filepath.Base(path), cmd, err)
}

func (m *Model) runQuery(msg sqleditor.QueryRequestMsg) tea.Cmd {
	if msg.Explain {
		cmd, err := m.orch.Explain(msg.SQL)
		m.queryRunning = err == nil
		return m.launch("Explaining query", cmd, err)
	}
	cmd, err := m.orch.RunQuery(msg.SQL)
	m.queryRunning = err == nil
	return m.launch("Running query", cmd, err)
}

func (m *Model) setTab(tab session.Tab) tea.Cmd {
	cmd := m.orch.SetTab(tab)
	if m.orch.Store().ActiveTab() != tab {
		return m.setStatus("Select a table to see its insights", ui.StatusWarning)
	}
	return cmd
}

func (m *Model) refresh() tea.Cmd {
	if !m.state.HasSession() {
		return m.setStatus("No database loaded", ui.StatusWarning)
	}
	if m.state.ActiveTab == session.TabInsights {
		cmd, err := m.orch.FetchInsights()
		return m.launch("", cmd, err)
	}
	p, table, ok := m.orch.Store().Pagination()
	if !ok || table == "" {
		return m.setStatus("Only table pages can be refreshed", ui.StatusInfo)
	}
	cmd, err := m.orch.ChangePage(p.Page)
	return m.launch("Refreshing "+table, cmd, err)
}

func (m *Model) openDiagram() tea.Cmd {
	if !m.state.HasSession() {
		return m.setStatus("No database loaded", ui.StatusWarning)
	}
	cmd := m.orch.FetchDiagram(false)
	m.diagram.SetState(m.orch.Diagram())
	m.diagram.Show()
	return cmd
}

func (m *Model) copy(text, done string) tea.Cmd {
	if m.clipboard == nil {
		return m.setStatus("Clipboard unavailable", ui.StatusWarning)
	}
	if err := m.clipboard.Write(text); err != nil {
		return m.setStatus(err.Error(), ui.StatusError)
	}
	return m.setStatus(done, ui.StatusSuccess)
}

// launch reports a guard failure or records what the pending command is
// waiting for.
func (m *Model) launch(activity string, cmd tea.Cmd, err error) tea.Cmd {
	if err != nil {
		level := ui.StatusError
		if gateway.IsValidation(err) {
			level = ui.StatusWarning
		}
		return m.setStatus(gateway.Message(err), level)
	}
	if cmd != nil && activity != "" {
		m.activity = activity
		m.statusBar.SetLoading(m.state.Loading, activity)
	}
	return cmd
}

func (m *Model) setStatus(text string, level ui.StatusLevel) tea.Cmd {
	m.statusSeq++
	m.statusText = text
	m.statusLevel = level
	return clearStatusAfter(m.statusSeq)
}

func (m *Model) setPane(p ui.Pane) tea.Cmd {
	m.pane = p
	if p == ui.PaneEditor {
		return m.editor.Focus()
	}
	m.editor.Blur()
	return nil
}

// layout returns the sidebar width, body height and editor height.
func (m *Model) layout() (sidebarWidth, bodyHeight, editorHeight int) {
	sidebarWidth = min(max(m.width/4, 24), 40)
	// Header, footer and status bar take a line each
	bodyHeight = max(m.height-3, 10)
	editorHeight = min(max(bodyHeight/3, 6), 12)
	return sidebarWidth, bodyHeight, editorHeight
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	sidebarWidth, bodyHeight, editorHeight := m.layout()
	rightWidth := max(width-sidebarWidth, 20)
	resultsHeight := bodyHeight - editorHeight

	m.statusBar.SetSize(width)
	m.help.SetSize(width, bodyHeight)
	m.debugPanel.SetSize(width, bodyHeight)
	m.prompt.SetSize(width, bodyHeight)
	m.picker.SetSize(width, bodyHeight)
	m.diagram.SetSize(width, bodyHeight)

	m.sidebar.SetSize(sidebarWidth, bodyHeight)
	// Panel border and the three-line tab bar
	m.grid.SetSize(rightWidth-4, max(resultsHeight-5, 3))
	m.editor.SetSize(rightWidth, editorHeight)
}

// View renders the application UI
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch {
	case m.prompt.IsVisible():
		body = m.prompt.View()
	case m.picker.IsOpen():
		body = m.picker.View()
	case m.diagram.IsVisible():
		body = m.diagram.View()
	case m.debugPanel.IsVisible():
		body = m.debugPanel.View()
	case m.helpVisible:
		body = m.help.View()
	default:
		body = m.renderMain()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
		m.statusBar.View(),
	)
}

// renderHeader renders the application header
func (m *Model) renderHeader() string {
	title := "Datascope - SQLite Browser"
	if m.fileName != "" {
		title = "Datascope - " + m.fileName
	}
	return styles.HeaderStyle.Render(title) + styles.MutedStyle.Render("  "+m.pane.String())
}

func (m *Model) renderMain() string {
	sidebarWidth, bodyHeight, editorHeight := m.layout()
	rightWidth := max(m.width-sidebarWidth, 20)

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderResults(rightWidth, bodyHeight-editorHeight),
		m.editor.View(m.queryRunning),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(m.pane == ui.PaneSidebar), right)
}

// renderResults renders the tab bar and the active tab inside a panel.
func (m *Model) renderResults(width, height int) string {
	style := styles.PanelStyle
	if m.pane == ui.PaneResults {
		style = styles.PanelFocusedStyle
	}
	inner := max(width-4, 10)
	tabBar := browser.RenderTabBar(m.state)

	var content string
	switch m.state.ActiveTab {
	case session.TabInsights:
		content = browser.RenderInsights(m.state.Insights, m.state.SelectedTable, inner)
	case session.TabExplainPlan:
		content = browser.RenderPlan(m.state.Plan, inner)
	default:
		content = m.renderData()
	}

	contentHeight := max(height-2-lipgloss.Height(tabBar), 1)
	content = lipgloss.NewStyle().MaxHeight(contentHeight).MaxWidth(inner).Render(content)
	return style.Width(max(width-2, 12)).Height(max(height-2, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Left, tabBar, content))
}

func (m *Model) renderData() string {
	if m.state.HasSession() {
		return m.grid.View()
	}
	if m.serviceErr != nil {
		return styles.ErrorStyle.Render(FormatServiceError(m.serviceErr, m.config.Service.BaseURL))
	}
	return styles.InfoStyle.Render("Press o to open a SQLite database (.sqlite or .db).")
}

// renderFooter shows the latest status message, the current error or the
// key hints for the focused pane.
func (m *Model) renderFooter() string {
	var line string
	switch {
	case m.statusText != "":
		line = statusStyle(m.statusLevel).Render(m.statusText)
	case m.state.Err != "":
		line = styles.ErrorStyle.Render("✕ " + firstLine(m.state.Err))
	case m.orch.Assist().Busy:
		line = styles.AssistBadgeStyle.Render("AI") + " " + styles.MutedStyle.Render("generating SQL...")
	default:
		line = components.ShortHelp(m.paneHints()...)
	}
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(line)
}

func (m *Model) paneHints() []key.Binding {
	k := m.keys
	switch m.pane {
	case ui.PaneEditor:
		return []key.Binding{k.Execute, k.Explain, k.Assist, k.HistorySearch, k.Snippets, k.CloseDialog}
	case ui.PaneResults:
		return []key.Binding{k.TabData, k.TabInsights, k.TabPlan, k.NextPage, k.PrevPage, k.Export, k.CopyCell, k.Help}
	default:
		return []key.Binding{k.Select, k.Upload, k.Diagram, k.NextPane, k.Help, k.Quit}
	}
}

func statusStyle(level ui.StatusLevel) lipgloss.Style {
	switch level {
	case ui.StatusSuccess:
		return styles.SuccessStyle
	case ui.StatusWarning:
		return styles.WarningStyle
	case ui.StatusError:
		return styles.ErrorStyle
	default:
		return styles.InfoStyle
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// defaultDownloadName suggests a file next to the original that does not
// overwrite it.
func defaultDownloadName(fileName string) string {
	if fileName == "" {
		return "database.db"
	}
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + "-copy" + ext
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
