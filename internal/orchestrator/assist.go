package orchestrator

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/datascope/internal/gateway"
)

// AssistState is the AI-assist panel's own busy and error state. It never
// touches the store's loading flag or error message.
type AssistState struct {
	Busy  bool
	Err   string
	Draft string
}

// DiagramState holds the schema diagram source for the current session.
type DiagramState struct {
	Loading   bool
	Err       string
	Source    string
	SessionID string
}

// Assist returns the AI-assist state.
func (o *Orchestrator) Assist() AssistState {
	return o.assist
}

// Diagram returns the schema diagram state.
func (o *Orchestrator) Diagram() DiagramState {
	return o.diagram
}

// GenerateSQL asks the service to write SQL for prompt against the loaded
// schema. Guard failures are reported in the assist state only.
func (o *Orchestrator) GenerateSQL(prompt string) tea.Cmd {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		o.assist.Err = "Please enter a prompt"
		return nil
	}
	schema := o.store.Schema()
	if schema == nil || schema.Len() == 0 {
		o.assist.Err = "Upload a database first so the assistant knows the schema"
		return nil
	}
	schemaText := gateway.BuildSchemaText(schema)

	gen := o.begin(KindGenerateSQL)
	o.assist.Busy = true
	o.assist.Err = ""

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		sql, err := svc.GenerateSQL(ctx, prompt, schemaText)
		return SQLGeneratedMsg{Gen: gen, Prompt: prompt, SQL: sql, Err: err}
	}
}

// TakeDraft returns the generated SQL and clears it, so an editor adopts a
// draft once.
func (o *Orchestrator) TakeDraft() string {
	d := o.assist.Draft
	o.assist.Draft = ""
	return d
}

func (o *Orchestrator) applyGenerated(msg SQLGeneratedMsg) bool {
	if !o.current(KindGenerateSQL, msg.Gen) {
		return false
	}
	o.assist.Busy = false
	if msg.Err != nil {
		o.assist.Err = gateway.Message(msg.Err)
		return true
	}
	o.assist.Err = ""
	o.assist.Draft = msg.SQL
	return true
}

// FetchDiagram loads the schema diagram source. A diagram already loaded
// for this session is reused unless force is set.
func (o *Orchestrator) FetchDiagram(force bool) tea.Cmd {
	sid := o.store.SessionID()
	if sid == "" {
		o.diagram = DiagramState{Err: "No database loaded"}
		return nil
	}
	if !force && o.diagram.SessionID == sid && (o.diagram.Loading || o.diagram.Source != "") {
		return nil
	}

	gen := o.begin(KindDiagram)
	o.diagram = DiagramState{Loading: true, SessionID: sid}

	ctx, svc := o.ctx, o.svc
	return func() tea.Msg {
		src, err := svc.FetchDiagramSource(ctx, sid)
		return DiagramLoadedMsg{Gen: gen, SessionID: sid, Source: src, Err: err}
	}
}

func (o *Orchestrator) applyDiagram(msg DiagramLoadedMsg) bool {
	if !o.current(KindDiagram, msg.Gen) || msg.SessionID != o.store.SessionID() {
		return false
	}
	if msg.Err != nil {
		o.diagram = DiagramState{SessionID: msg.SessionID, Err: gateway.Message(msg.Err)}
		return true
	}
	o.diagram = DiagramState{SessionID: msg.SessionID, Source: msg.Source}
	return true
}
