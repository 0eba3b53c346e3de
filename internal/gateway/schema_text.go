package gateway

import (
	"strings"

	"github.com/willibrandon/datascope/internal/session"
)

// BuildSchemaText renders the schema as CREATE TABLE statements, the form
// the SQL generator expects as context.
func BuildSchemaText(schema *session.Schema) string {
	if schema == nil {
		return ""
	}

	blocks := make([]string, 0, schema.Len())
	for _, t := range schema.Tables {
		var b strings.Builder
		b.WriteString("CREATE TABLE ")
		b.WriteString(t.Name)
		b.WriteString(" (\n")
		for i, col := range t.Columns {
			b.WriteString("  ")
			b.WriteString(col.Name)
			b.WriteString(" ")
			b.WriteString(col.Type)
			if col.PrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}
			if col.NotNull {
				b.WriteString(" NOT NULL")
			}
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(");")
		blocks = append(blocks, b.String())
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}
