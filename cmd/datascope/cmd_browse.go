package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/components"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

var (
	pageFlag int
	runDraft bool
)

// newTablesCmd creates the tables subcommand
func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tables <file.db>",
		Aliases: []string{"schema"},
		Short:   "List the tables and columns of a database",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			schema := s.State().Schema
			if outputFormat == formatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(schema)
			}
			renderSchemaTree(out, s.name, schema)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table or json")
	return cmd
}

// newTableCmd creates the table subcommand
func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table <file.db> <table>",
		Short: "Print one page of a table",
		Long: `Print one page of a table. Pages hold ui.page_size rows and are
numbered from 1.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.selectTable(args[1], pageFlag)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}
	cmd.Flags().IntVarP(&pageFlag, "page", "p", 1, "page number")
	addOutputFlag(cmd)
	return cmd
}

// newQueryCmd creates the query subcommand
func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <file.db> <sql>",
		Short: "Run a SQL query",
		Long: `Run a SQL query against the database. All result rows are printed;
query results are not paged. The query is recorded in the history.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.run(s.orch.RunQuery(args[1])); err != nil {
				return err
			}
			result, err := s.view()
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// newExplainCmd creates the explain subcommand
func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <file.db> <sql>",
		Short: "Show the query plan of a SQL query",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.run(s.orch.Explain(args[1])); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			plan := s.State().Plan
			if outputFormat == formatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if plan == nil {
					plan = session.QueryPlan{}
				}
				return enc.Encode(plan)
			}
			fmt.Fprintln(out, components.RenderPlanTree(plan, termWidth(out), isTerminal(out)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table or json")
	return cmd
}

// newInsightsCmd creates the insights subcommand
func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights <file.db> <table>",
		Short: "Show per-column statistics of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.insights(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFormat == formatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderInsights(out, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table or json")
	return cmd
}

// newDiagramCmd creates the diagram subcommand
func newDiagramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagram <file.db>",
		Short: "Print the schema diagram source",
		Long: `Print the entity-relationship diagram of the database as Mermaid
source. Paste it into any Mermaid renderer to view it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			src, err := s.diagram()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(src, "\n"))
			return nil
		},
	}
}

// newAskCmd creates the ask subcommand
func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <file.db> <prompt>",
		Short: "Generate SQL from a natural-language prompt",
		Long: `Ask the AI assistant to write SQL for a prompt. The database schema is
sent along with the prompt. Use --run to execute the generated query.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			sql, err := s.generate(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isTerminal(out) {
				fmt.Fprintln(out, sqleditor.HighlightSQL(sql, s.cfg.UI.SyntaxTheme()))
			} else {
				fmt.Fprintln(out, sql)
			}
			if !runDraft {
				return nil
			}

			fmt.Fprintln(out)
			if _, err := s.run(s.orch.RunQuery(sql)); err != nil {
				return err
			}
			result, err := s.view()
			if err != nil {
				return err
			}
			return renderResult(out, result, outputFormat)
		},
	}
	cmd.Flags().BoolVar(&runDraft, "run", false, "execute the generated SQL")
	addOutputFlag(cmd)
	return cmd
}
