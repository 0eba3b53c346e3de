package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/orchestrator"
	"github.com/willibrandon/datascope/internal/session"
)

// cliSession is a database uploaded for a single command. It drives the
// same orchestrator as the browser, one action at a time.
type cliSession struct {
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	name   string
	closer func()
}

// newServiceFunc builds the data service client. Tests replace it.
var newServiceFunc = func(cfg *config.Config) orchestrator.Service {
	return newClient(cfg)
}

// openSession loads the configuration, starts logging and uploads path.
// Callers must Close the session.
func openSession(ctx context.Context, path string) (*cliSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	initLogging(cfg)

	opts := []orchestrator.Option{
		orchestrator.WithContext(ctx),
		orchestrator.WithPageSize(cfg.UI.PageSize),
		orchestrator.WithInsightsCacheTTL(cfg.Service.InsightsCacheTTL),
	}

	closer := logger.Close
	store, closeHistory, err := openHistory(cfg)
	if err != nil {
		logger.Warn("Query history unavailable", "error", err)
	} else if store != nil {
		opts = append(opts, orchestrator.WithHistory(store))
		closer = func() {
			closeHistory()
			logger.Close()
		}
	}

	s := &cliSession{
		cfg:    cfg,
		orch:   orchestrator.New(session.NewStore(), newServiceFunc(cfg), opts...),
		name:   filepath.Base(path),
		closer: closer,
	}

	if _, err := s.run(s.orch.UploadFile(path)); err != nil {
		s.Close()
		return nil, err
	}
	logger.Debug("Session opened", "file", path, "session", s.orch.Store().SessionID())
	return s, nil
}

// Close releases the history database and the log file.
func (s *cliSession) Close() {
	s.closer()
}

// State returns the current session state.
func (s *cliSession) State() session.State {
	return s.orch.Store().Snapshot()
}

// run executes an action's command and returns its completion message, or
// the error the action or the service reported.
func (s *cliSession) run(cmd tea.Cmd, err error) (tea.Msg, error) {
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, nil
	}
	msg := s.orch.Run(cmd)
	if err := completionErr(msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// completionErr extracts the error from an orchestrator completion.
func completionErr(msg tea.Msg) error {
	switch m := msg.(type) {
	case orchestrator.UploadDoneMsg:
		return m.Err
	case orchestrator.ViewLoadedMsg:
		return m.Err
	case orchestrator.PlanLoadedMsg:
		return m.Err
	case orchestrator.InsightsLoadedMsg:
		return m.Err
	case orchestrator.SQLGeneratedMsg:
		return m.Err
	case orchestrator.DiagramLoadedMsg:
		return m.Err
	case orchestrator.DownloadDoneMsg:
		return m.Err
	}
	return nil
}

// view returns the grid content after a table or query action.
func (s *cliSession) view() (*session.ViewResult, error) {
	st := s.State()
	if st.View == nil {
		return nil, fmt.Errorf("no rows were returned")
	}
	return st.View, nil
}

// selectTable shows page of table.
func (s *cliSession) selectTable(table string, page int) (*session.ViewResult, error) {
	if _, err := s.run(s.orch.SelectTable(table)); err != nil {
		return nil, err
	}
	if page > 1 {
		if _, err := s.run(s.orch.ChangePage(page)); err != nil {
			return nil, err
		}
	}
	return s.view()
}

// insights loads column statistics for table.
func (s *cliSession) insights(table string) (*session.InsightsReport, error) {
	if _, err := s.run(s.orch.SelectTable(table)); err != nil {
		return nil, err
	}
	if _, err := s.run(s.orch.SetTab(session.TabInsights), nil); err != nil {
		return nil, err
	}
	ins := s.State().Insights
	if ins.Err != "" {
		return nil, fmt.Errorf("%s", ins.Err)
	}
	if ins.Report == nil {
		return nil, fmt.Errorf("no insights for %s", table)
	}
	return ins.Report, nil
}

// generate asks the assistant for SQL.
func (s *cliSession) generate(prompt string) (string, error) {
	cmd := s.orch.GenerateSQL(prompt)
	if cmd == nil {
		return "", &gateway.ValidationError{Field: "Prompt", Message: s.orch.Assist().Err}
	}
	if _, err := s.run(cmd, nil); err != nil {
		return "", err
	}
	return s.orch.TakeDraft(), nil
}

// diagram loads the schema diagram source.
func (s *cliSession) diagram() (string, error) {
	cmd := s.orch.FetchDiagram(true)
	if cmd == nil {
		return "", &gateway.ValidationError{Field: "SessionID", Message: s.orch.Diagram().Err}
	}
	if _, err := s.run(cmd, nil); err != nil {
		return "", err
	}
	return s.orch.Diagram().Source, nil
}
