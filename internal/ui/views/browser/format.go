// Package browser renders the database browser: the schema sidebar, the
// data grid and the Data, Insights and Explain Plan tabs.
package browser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// NullDisplay is shown for SQL NULL cells.
const NullDisplay = "NULL"

// FormatValue renders a cell value the way the grid shows it. Integral
// floats print without a fraction since JSON numbers arrive as float64.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NullDisplay
	case string:
		return strings.ReplaceAll(val, "\n", "↵")
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "1"
		}
		return "0"
	case []byte:
		return fmt.Sprintf("<blob %s>", humanize.Bytes(uint64(len(val))))
	default:
		return fmt.Sprint(val)
	}
}

// FormatStat renders an optional numeric statistic with two decimals and
// thousands separators.
func FormatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", *v)
}

// padOrTruncate fits s into exactly width display cells.
func padOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
