package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
	"golang.org/x/term"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/views/browser"
	"github.com/willibrandon/datascope/internal/ui/views/sqleditor"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

const defaultTermWidth = 100

var (
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.Faint)
)

// addOutputFlag registers --output on commands that print rows.
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, json or csv")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of w when it is a terminal.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}

// renderResult prints a table page or query result in format.
func renderResult(w io.Writer, result *session.ViewResult, format string) error {
	switch format {
	case formatJSON:
		return sqleditor.WriteJSON(w, result)
	case formatCSV:
		return sqleditor.WriteCSV(w, result)
	case formatTable, "":
		renderResultTable(w, result)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use table, json or csv)", format)
	}
}

// renderResultTable renders rows as a box-drawn table followed by a
// position line.
func renderResultTable(w io.Writer, result *session.ViewResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		r := make(table.Row, len(result.Columns))
		for i, col := range result.Columns {
			r[i] = browser.FormatValue(row[col])
		}
		t.AppendRow(r)
	}
	t.Render()

	mutedColor.Fprintln(w, resultFooter(result))
}

// resultFooter describes where the rows sit in their table.
func resultFooter(result *session.ViewResult) string {
	if !result.TableBacked() {
		return fmt.Sprintf("(%s)", pluralize(len(result.Rows), "row"))
	}
	p := result.Pagination
	if p.TotalRows == 0 {
		return fmt.Sprintf("%s is empty", result.TableName)
	}
	return fmt.Sprintf("Rows %s-%s of %s (page %d of %d)",
		humanize.Comma(int64(p.StartRow())), humanize.Comma(int64(p.EndRow())),
		humanize.Comma(int64(p.TotalRows)), p.Page, p.TotalPages)
}

// renderSchemaTree prints the tables and columns of schema under root.
func renderSchemaTree(w io.Writer, root string, schema *session.Schema) {
	tree := treeprint.NewWithRoot(root)
	for _, name := range schema.TableNames() {
		tbl, _ := schema.Table(name)
		branch := tree.AddBranch(fmt.Sprintf("%s (%s)", name, pluralize(len(tbl.Columns), "column")))
		for _, col := range tbl.Columns {
			branch.AddNode(describeColumn(col))
		}
	}
	fmt.Fprint(w, tree.String())
}

// describeColumn renders "name TYPE PK NOT NULL".
func describeColumn(col session.Column) string {
	parts := []string{col.Name}
	if col.Type != "" {
		parts = append(parts, col.Type)
	}
	if col.PrimaryKey {
		parts = append(parts, "PK")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

// renderInsights prints one row of statistics per column.
func renderInsights(w io.Writer, report *session.InsightsReport) {
	fmt.Fprintf(w, "%s: %s, %s\n", report.TableName,
		pluralize(report.TotalRows, "row"), pluralize(report.TotalCols, "column"))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Missing", "Unique", "Mean", "Median", "Std Dev", "Min", "Max", "Top Values"})

	for _, cs := range report.ColumnStats {
		mean, median, std, lo, hi := "-", "-", "-", "-", "-"
		if ns := cs.NumericStats; ns != nil {
			mean = browser.FormatStat(ns.Mean)
			median = browser.FormatStat(ns.Median)
			std = browser.FormatStat(ns.StdDev)
			lo = browser.FormatStat(ns.Min)
			hi = browser.FormatStat(ns.Max)
		}
		t.AppendRow(table.Row{
			cs.Name,
			cs.Type,
			fmt.Sprintf("%s (%.1f%%)", humanize.Comma(int64(cs.MissingCount)), cs.MissingPercent),
			fmt.Sprintf("%s (%.1f%%)", humanize.Comma(int64(cs.UniqueCount)), cs.UniquePercent),
			mean, median, std, lo, hi,
			topValues(cs.CategoricalStats, 3),
		})
	}
	t.Render()
}

// topValues lists the n most frequent values, ties broken by value.
func topValues(stats *session.CategoricalStats, n int) string {
	if stats == nil || len(stats.TopValues) == 0 {
		return "-"
	}
	type entry struct {
		value string
		count int
	}
	entries := make([]entry, 0, len(stats.TopValues))
	for v, c := range stats.TopValues {
		entries = append(entries, entry{v, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%d)", e.value, e.count)
	}
	return strings.Join(parts, ", ")
}

// pluralize formats n with singular or plural noun.
func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
