package components

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/willibrandon/datascope/internal/ui/styles"
)

// Latency trails are request durations in milliseconds, oldest first.

// sparkBlocks are the eight heights of a one-line sparkline.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// LatencyTrend is the direction request latency moved across a trail.
type LatencyTrend int

const (
	LatencySteady LatencyTrend = iota
	LatencyRising
	LatencyFalling
)

// Arrow returns the arrow shown next to the sparkline.
func (t LatencyTrend) Arrow() string {
	switch t {
	case LatencyRising:
		return "↑"
	case LatencyFalling:
		return "↓"
	default:
		return "→"
	}
}

// ClassifyLatency compares the median of the oldest quarter of the trail
// with the newest quarter. Changes under 15% or 2ms are steady.
func ClassifyLatency(ms []float64) LatencyTrend {
	if len(ms) < 4 {
		return LatencySteady
	}
	q := len(ms) / 4
	before, after := median(ms[:q]), median(ms[len(ms)-q:])
	tolerance := math.Max(before*0.15, 2)
	switch {
	case after-before > tolerance:
		return LatencyRising
	case before-after > tolerance:
		return LatencyFalling
	default:
		return LatencySteady
	}
}

// LatencySparkline draws the newest width samples on one line, scaled from
// zero to the slowest sample so a fast service stays low. Samples at or
// above slow are drawn in the warning color.
func LatencySparkline(ms []float64, width int, slow time.Duration) string {
	if width <= 0 {
		return ""
	}
	if len(ms) == 0 {
		return strings.Repeat("─", width)
	}
	ms = tail(ms, width)

	top := 0.0
	for _, v := range ms {
		top = math.Max(top, v)
	}
	slowMs := float64(slow) / float64(time.Millisecond)

	var sb strings.Builder
	for _, v := range ms {
		block := string(sparkBlocks[0])
		if top > 0 {
			idx := int(math.Round(v / top * float64(len(sparkBlocks)-1)))
			block = string(sparkBlocks[max(0, min(idx, len(sparkBlocks)-1))])
		}
		if slow > 0 && v >= slowMs {
			block = styles.WarningStyle.Render(block)
		} else {
			block = styles.InfoStyle.Render(block)
		}
		sb.WriteString(block)
	}
	return sb.String()
}

// LatencyGraph plots the newest width samples height rows tall, with the
// trail's minimum, median and maximum in the caption.
func LatencyGraph(ms []float64, width, height int) string {
	if len(ms) == 0 {
		return ""
	}
	ms = tail(ms, width)
	lo, hi := ms[0], ms[0]
	for _, v := range ms {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	caption := fmt.Sprintf("latency ms: min %.1f  median %.1f  max %.1f", lo, median(ms), hi)
	return asciigraph.Plot(ms,
		asciigraph.Height(max(height, 2)),
		asciigraph.LowerBound(0),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

func tail(ms []float64, n int) []float64 {
	if n > 0 && len(ms) > n {
		return ms[len(ms)-n:]
	}
	return ms
}

func median(ms []float64) float64 {
	if len(ms) == 0 {
		return 0
	}
	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
