package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

var (
	historyLimit int
	forceFlag    bool
)

const maxQueryPreview = 60

// newHistoryCmd creates the history command group
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded queries",
		Long: `Show the queries run or explained in earlier sessions, most recent
first. Queries differing only in literal values share one entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(store *sqlite.HistoryStore) error {
				entries, err := store.GetRecent(historyLimit)
				if err != nil {
					return err
				}
				return renderHistory(cmd.OutOrStdout(), entries, outputFormat)
			})
		},
	}
	cmd.PersistentFlags().IntVarP(&historyLimit, "limit", "l", 20, "maximum entries to show")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table or json")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <text>",
			Short: "Find recorded queries containing text",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withHistory(func(store *sqlite.HistoryStore) error {
					entries, err := store.Search(args[0], historyLimit)
					if err != nil {
						return err
					}
					return renderHistory(cmd.OutOrStdout(), entries, outputFormat)
				})
			},
		},
		newHistoryClearCmd(),
	)
	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(store *sqlite.HistoryStore) error {
				n, err := store.Count()
				if err != nil {
					return err
				}
				if !forceFlag && n > 0 {
					return fmt.Errorf("refusing to delete %s without --force", english.Plural(n, "entry", "entries"))
				}
				if err := store.Clear(); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", english.Plural(n, "entry", "entries"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "delete without confirmation")
	return cmd
}

// withHistory opens the history database for fn.
func withHistory(fn func(store *sqlite.HistoryStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	defer logger.Close()

	if !cfg.History.Enabled {
		return fmt.Errorf("query history is disabled (history.enabled in %s)", configFileHint())
	}
	store, closeHistory, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer closeHistory()
	return fn(store)
}

// historyJSON is the --output json shape of an entry.
type historyJSON struct {
	SQL        string    `json:"sql"`
	Kind       string    `json:"kind"`
	ExecutedAt time.Time `json:"executed_at"`
	DurationMs int64     `json:"duration_ms"`
	RowCount   int64     `json:"row_count"`
	Error      string    `json:"error,omitempty"`
}

func renderHistory(w io.Writer, entries []sqlite.HistoryEntry, format string) error {
	if format == formatJSON {
		out := make([]historyJSON, len(entries))
		for i, e := range entries {
			out[i] = historyJSON{e.SQL, string(e.Kind), e.ExecutedAt, e.DurationMs, e.RowCount, e.Error}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		mutedColor.Fprintln(w, "No queries recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Kind", "Query", "Time", "Rows", "Status"})
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = "error"
		}
		rows := "-"
		if e.Kind == sqlite.KindRun && e.Error == "" {
			rows = humanize.Comma(e.RowCount)
		}
		t.AppendRow(table.Row{
			humanize.Time(e.ExecutedAt),
			string(e.Kind),
			previewSQL(e.SQL, maxQueryPreview),
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			rows,
			status,
		})
	}
	t.Render()
	return nil
}

// previewSQL collapses whitespace and shortens sql to max runes.
func previewSQL(sql string, max int) string {
	s := strings.Join(strings.Fields(sql), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// newSnippetsCmd creates the snippets command group
func newSnippetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "List saved query snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := openSnippets()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			list := sm.All()
			if len(list) == 0 {
				mutedColor.Fprintf(out, "No snippets saved in %s\n", sm.Path())
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Tables", "Query", "Database", "Runs", "Saved"})
			for _, sn := range list {
				tables := strings.Join(sn.Tables, ", ")
				if tables == "" {
					tables = "-"
				}
				t.AppendRow(table.Row{sn.Name, tables, previewSQL(sn.SQL, maxQueryPreview),
					sn.Database, sn.Runs, humanize.Time(sn.SavedAt)})
			}
			t.Render()
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print a snippet's SQL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sm, err := openSnippets()
				if err != nil {
					return err
				}
				sn, err := sm.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sn.SQL)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a snippet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sm, err := openSnippets()
				if err != nil {
					return err
				}
				if err := sm.Delete(args[0]); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Deleted snippet '%s'\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func openSnippets() (*sqleditor.SnippetManager, error) {
	return sqleditor.NewSnippetManager(config.ConfigDir())
}
