package orchestrator

import (
	"fmt"
	"time"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/session"
)

// Kind identifies an action kind. Each kind has its own generation counter.
type Kind int

const (
	KindUpload Kind = iota
	KindSelectTable
	KindChangePage
	KindRunQuery
	KindExplain
	KindInsights
	KindGenerateSQL
	KindDiagram
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindUpload:
		return "upload"
	case KindSelectTable:
		return "select_table"
	case KindChangePage:
		return "change_page"
	case KindRunQuery:
		return "run_query"
	case KindExplain:
		return "explain"
	case KindInsights:
		return "insights"
	case KindGenerateSQL:
		return "generate_sql"
	case KindDiagram:
		return "diagram"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// UploadDoneMsg completes an upload.
type UploadDoneMsg struct {
	Gen    uint64
	Name   string
	Result *gateway.UploadResult
	Err    error
}

// ViewLoadedMsg completes a table selection, page change or query run.
type ViewLoadedMsg struct {
	Kind      Kind
	Gen       uint64
	SessionID string
	Table     string
	Query     string
	Result    *session.ViewResult
	Elapsed   time.Duration
	Err       error
}

// PlanLoadedMsg completes an explain.
type PlanLoadedMsg struct {
	Gen       uint64
	SessionID string
	Query     string
	Plan      session.QueryPlan
	Elapsed   time.Duration
	Err       error
}

// InsightsLoadedMsg completes an insights fetch for Table.
type InsightsLoadedMsg struct {
	Gen       uint64
	SessionID string
	Table     string
	Report    *session.InsightsReport
	Err       error
}

// SQLGeneratedMsg completes an AI-assist request.
type SQLGeneratedMsg struct {
	Gen    uint64
	Prompt string
	SQL    string
	Err    error
}

// DiagramLoadedMsg completes a schema diagram fetch.
type DiagramLoadedMsg struct {
	Gen       uint64
	SessionID string
	Source    string
	Err       error
}

// DownloadDoneMsg reports a saved database file. It carries no state.
type DownloadDoneMsg struct {
	Result *gateway.DownloadResult
	Err    error
}
