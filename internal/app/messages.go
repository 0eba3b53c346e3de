package app

import (
	"time"

	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

// StatusBarTickMsg is sent periodically to update the status bar
type StatusBarTickMsg struct {
	Timestamp time.Time
}

// pingTickMsg schedules the next service health check.
type pingTickMsg struct{}

// exportDoneMsg reports a finished result export.
type exportDoneMsg struct {
	Result *sqleditor.ExportResult
}
