package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

const (
	pingInterval  = 30 * time.Second
	pingTimeout   = 5 * time.Second
	statusTimeout = 4 * time.Second
)

// tickStatusBar creates a command to update the status bar timestamp
func tickStatusBar() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return StatusBarTickMsg{Timestamp: t}
	})
}

// pingService creates a command that checks the data service is reachable
func pingService(ctx context.Context, p Pinger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		start := time.Now()
		err := p.Ping(ctx)
		return ui.PingResultMsg{Latency: time.Since(start), CheckedAt: time.Now(), Err: err}
	}
}

// schedulePing waits for the next health check
func schedulePing() tea.Cmd {
	return tea.Tick(pingInterval, func(time.Time) tea.Msg {
		return pingTickMsg{}
	})
}

// clearStatusAfter clears the footer message seq unless a newer one replaced it
func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ui.ClearStatusMsg{Seq: seq}
	})
}

// exportResult writes result to path in the format its extension names
func exportResult(result *session.ViewResult, path string) tea.Cmd {
	return func() tea.Msg {
		return exportDoneMsg{Result: sqleditor.Export(result, path, sqleditor.FormatForPath(path))}
	}
}

// compressionForPath splits a compression suffix off path. The service
// client appends it again when saving.
func compressionForPath(path string) (string, gateway.CompressionType) {
	lower := strings.ToLower(path)
	for _, c := range []gateway.CompressionType{gateway.CompressionGzip, gateway.CompressionLZ4, gateway.CompressionZstd} {
		if ext := c.Extension(); strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)], c
		}
	}
	return path, gateway.CompressionNone
}
