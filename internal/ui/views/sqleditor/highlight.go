// Package sqleditor provides the SQL editor pane: the query buffer, query
// history, saved snippets and result export.
package sqleditor

import (
	"bytes"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/willibrandon/datascope/internal/ui/styles"
)

// Syntax highlighting is applied to:
// 1. The editor preview while the buffer is not focused
// 2. History and snippet entries in the picker
// 3. The CLI echo of a query before its result

// HighlightSQL applies syntax highlighting to SQL using Chroma with the
// theme matching the UI. Returns the original string if highlighting fails.
func HighlightSQL(sql, theme string) string {
	return HighlightSQLWithStyle(sql, styles.SQLTheme(theme))
}

// HighlightSQLWithStyle applies syntax highlighting with a named Chroma
// style such as "monokai", "dracula" or the built-in datascope themes.
func HighlightSQLWithStyle(sql, style string) string {
	if sql == "" {
		return ""
	}
	if style == "" {
		style = styles.SQLThemeDark
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, sql, "sql", "terminal256", style); err != nil {
		return sql
	}

	return buf.String()
}
