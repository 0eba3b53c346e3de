package sqleditor

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/views/browser"
)

// ExportFormat represents the export file format.
type ExportFormat int

const (
	ExportFormatCSV ExportFormat = iota
	ExportFormatJSON
)

func (f ExportFormat) String() string {
	if f == ExportFormatJSON {
		return "JSON"
	}
	return "CSV"
}

func (f ExportFormat) extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".csv"
}

// FormatForPath picks JSON for a .json path and CSV otherwise.
func FormatForPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatCSV
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	FilePath string // Absolute path to the exported file
	RowCount int
	Format   ExportFormat
	Error    error
}

// WriteCSV writes result as RFC 4180 CSV with a header row. NULL cells are
// written as empty fields.
func WriteCSV(w io.Writer, result *session.ViewResult) error {
	if err := checkExportable(result); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			if v, ok := row[col]; ok && v != nil {
				record[i] = browser.FormatValue(v)
				if s, isString := v.(string); isString {
					record[i] = s
				}
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}

// WriteJSON writes result as an indented array of objects keyed by column
// name. NULL values are written as JSON null.
func WriteJSON(w io.Writer, result *session.ViewResult) error {
	if err := checkExportable(result); err != nil {
		return err
	}

	records := make([]map[string]any, len(result.Rows))
	for i, row := range result.Rows {
		record := make(map[string]any, len(result.Columns))
		for _, col := range result.Columns {
			record[col] = row[col]
		}
		records[i] = record
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func checkExportable(result *session.ViewResult) error {
	if result == nil {
		return fmt.Errorf("no results to export")
	}
	if len(result.Columns) == 0 {
		return fmt.Errorf("no columns in result set")
	}
	return nil
}

// Export writes result to filename in format, adding the format's
// extension when missing and creating parent directories.
func Export(result *session.ViewResult, filename string, format ExportFormat) *ExportResult {
	if err := checkExportable(result); err != nil {
		return &ExportResult{Error: err}
	}

	absPath, err := expandPath(filename)
	if err != nil {
		return &ExportResult{Error: fmt.Errorf("invalid path: %w", err)}
	}
	if !strings.HasSuffix(strings.ToLower(absPath), format.extension()) {
		absPath += format.extension()
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return &ExportResult{Error: fmt.Errorf("failed to create directory: %w", err)}
	}

	file, err := os.Create(absPath)
	if err != nil {
		return &ExportResult{Error: fmt.Errorf("failed to create file: %w", err)}
	}
	defer file.Close()

	if format == ExportFormatJSON {
		err = WriteJSON(file, result)
	} else {
		err = WriteCSV(file, result)
	}
	if err != nil {
		return &ExportResult{Error: err}
	}

	return &ExportResult{
		FilePath: absPath,
		RowCount: len(result.Rows),
		Format:   format,
	}
}

// expandPath expands ~ to home directory and returns absolute path.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	return absPath, nil
}

// FormatExportSuccess returns a success message for export operation.
func FormatExportSuccess(result *ExportResult) string {
	return fmt.Sprintf("Exported %d rows to %s: %s", result.RowCount, result.Format, result.FilePath)
}
