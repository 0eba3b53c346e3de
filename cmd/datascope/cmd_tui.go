package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/datascope/internal/app"
	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
	"github.com/willibrandon/datascope/internal/ui"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

// runTUI starts the interactive browser, uploading path first when set.
func runTUI(ctx context.Context, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	defer logger.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clip := ui.NewClipboardWriter()
	if !clip.IsAvailable() {
		logger.Debug("Clipboard unavailable", "reason", clip.Error())
	}

	opts := []app.Option{
		app.WithContext(ctx),
		app.WithClipboard(clip),
	}

	store, closeHistory, err := openHistory(cfg)
	if err != nil {
		// History is optional; the browser works without it
		logger.Warn("Query history unavailable", "error", err)
	} else if store != nil {
		defer closeHistory()
		opts = append(opts, app.WithHistory(sqleditor.NewHistoryManager(store, cfg.History.MaxEntries)))
	}

	snippets, err := sqleditor.NewSnippetManager(config.ConfigDir())
	if err != nil {
		logger.Warn("Snippets unavailable", "error", err)
	} else {
		opts = append(opts, app.WithSnippets(snippets))
	}

	if path != "" {
		opts = append(opts, app.WithInitialFile(path))
	}

	model := app.New(cfg, newClient(cfg), opts...)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// openHistory opens the query history database when history is enabled.
// It returns a nil store when disabled.
func openHistory(cfg *config.Config) (*sqlite.HistoryStore, func(), error) {
	if !cfg.History.Enabled {
		return nil, func() {}, nil
	}
	db, err := sqlite.Open(cfg.History.ResolvedPath())
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close history database", "error", err)
		}
	}
	return sqlite.NewHistoryStore(db, cfg.History.MaxEntries), closeFn, nil
}
