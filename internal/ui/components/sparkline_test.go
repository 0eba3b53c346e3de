package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestClassifyLatency(t *testing.T) {
	tests := []struct {
		name string
		ms   []float64
		want LatencyTrend
	}{
		{"too short", []float64{1, 100, 200}, LatencySteady},
		{"rising", []float64{10, 11, 10, 12, 30, 40, 45, 50}, LatencyRising},
		{"falling", []float64{90, 80, 85, 60, 30, 20, 22, 21}, LatencyFalling},
		{"jitter under 2ms", []float64{3, 4, 3, 4, 5, 4, 5, 5}, LatencySteady},
		{"one spike in the middle", []float64{20, 21, 20, 400, 20, 21, 20, 22}, LatencySteady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLatency(tt.ms))
		})
	}
	assert.Equal(t, "↑", LatencyRising.Arrow())
	assert.Equal(t, "→", LatencySteady.Arrow())
}

func TestLatencySparkline(t *testing.T) {
	assert.Equal(t, "────", LatencySparkline(nil, 4, 0))
	assert.Empty(t, LatencySparkline([]float64{1}, 0, 0))

	line := ansi.Strip(LatencySparkline([]float64{0, 50, 100}, 10, time.Second))
	assert.Equal(t, "▁▅█", line)

	// Only the newest samples fit.
	line = ansi.Strip(LatencySparkline([]float64{100, 0, 0, 100}, 2, 0))
	assert.Equal(t, "▁█", line)

	line = ansi.Strip(LatencySparkline([]float64{0, 0}, 2, 0))
	assert.Equal(t, "▁▁", line)
}

func TestLatencyGraph(t *testing.T) {
	assert.Empty(t, LatencyGraph(nil, 40, 6))

	graph := LatencyGraph([]float64{12, 15, 11, 40, 13}, 40, 6)
	assert.Contains(t, graph, "min 11.0")
	assert.Contains(t, graph, "median 13.0")
	assert.Contains(t, graph, "max 40.0")
	assert.GreaterOrEqual(t, strings.Count(graph, "\n"), 6)
}
