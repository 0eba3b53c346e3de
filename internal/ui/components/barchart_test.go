package components

import (
	"strings"
	"testing"
)

func TestBarChart_EmptyData(t *testing.T) {
	chart := NewBarChart(DefaultBarChartConfig())

	result := chart.View()

	if !strings.Contains(result, "No data available") {
		t.Errorf("Empty chart should show 'No data available', got: %s", result)
	}
}

func TestBarChart_WithTitle(t *testing.T) {
	config := DefaultBarChartConfig()
	config.Title = "status"
	chart := NewBarChart(config)

	chart.SetItems([]BarChartItem{
		{Label: "shipped", Value: 100, Rank: 1},
	})

	result := chart.View()

	if !strings.Contains(result, "status") {
		t.Errorf("Chart should contain title, got: %s", result)
	}
	if !strings.Contains(result, "shipped") {
		t.Errorf("Chart should contain label, got: %s", result)
	}
}

func TestBarChart_SetSizeMinimums(t *testing.T) {
	chart := NewBarChart(DefaultBarChartConfig())

	chart.SetSize(100, 15)
	if chart.config.Width != 100 || chart.config.Height != 15 {
		t.Errorf("SetSize(100, 15) gave %dx%d", chart.config.Width, chart.config.Height)
	}

	chart.SetSize(10, 0)
	if chart.config.Width < 40 {
		t.Errorf("Width should be at least 40, got: %d", chart.config.Width)
	}
	if chart.config.Height < 1 {
		t.Errorf("Height should be at least 1, got: %d", chart.config.Height)
	}
}

func TestTopValueItems(t *testing.T) {
	items := TopValueItems(map[string]int{
		"pending":   4,
		"shipped":   12,
		"cancelled": 4,
		"":          1,
	}, 3)

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	want := []string{"shipped", "cancelled", "pending"}
	for i, label := range want {
		if items[i].Label != label {
			t.Errorf("items[%d].Label = %q, want %q", i, items[i].Label, label)
		}
		if items[i].Rank != i+1 {
			t.Errorf("items[%d].Rank = %d, want %d", i, items[i].Rank, i+1)
		}
	}

	all := TopValueItems(map[string]int{"": 2}, 0)
	if len(all) != 1 || all[0].Label != "(empty)" {
		t.Errorf("empty label should render as (empty), got %+v", all)
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long label", 10, "this is..."},
		{"ab", 3, "ab"},
		{"abcd", 3, "abc"},
		{"日本語のラベル", 8, "日本..."},
	}

	for _, tc := range tests {
		result := truncateLabel(tc.input, tc.maxLen)
		if result != tc.expected {
			t.Errorf("truncateLabel(%q, %d) = %q, want %q",
				tc.input, tc.maxLen, result, tc.expected)
		}
	}
}

func TestRenderSimpleBarChart(t *testing.T) {
	items := []BarChartItem{
		{Label: "shipped", Value: 1200, Rank: 1},
		{Label: "pending", Value: 75, Rank: 2},
		{Label: "cancelled", Value: 50, Rank: 3},
	}

	result := RenderSimpleBarChart(items, DefaultBarChartConfig())

	for _, want := range []string{"shipped", "cancelled", "1,200", "█"} {
		if !strings.Contains(result, want) {
			t.Errorf("Result should contain %q, got: %s", want, result)
		}
	}
}

func TestRenderSimpleBarChart_Empty(t *testing.T) {
	if result := RenderSimpleBarChart(nil, DefaultBarChartConfig()); result != "" {
		t.Errorf("Empty items should return empty string, got: %s", result)
	}
}

func TestRenderSimpleBarChart_MaxItems(t *testing.T) {
	items := make([]BarChartItem, 20)
	for i := range items {
		items[i] = BarChartItem{Label: "Item", Value: float64(20 - i), Rank: i + 1}
	}

	config := DefaultBarChartConfig()
	config.Height = 5

	barLines := 0
	for _, line := range strings.Split(RenderSimpleBarChart(items, config), "\n") {
		if strings.Contains(line, "█") {
			barLines++
		}
	}

	if barLines != 5 {
		t.Errorf("Should render 5 bars, got %d", barLines)
	}
}

func TestColorBarInLine(t *testing.T) {
	style := rankStyle(1)

	tests := []string{
		"Label █████ 100",
		"No bars here",
		"Mixed ████ text ████",
	}

	for _, input := range tests {
		result := colorBarInLine(input, style)
		for _, word := range strings.Fields(strings.Map(func(r rune) rune {
			if r == '█' {
				return ' '
			}
			return r
		}, input)) {
			if !strings.Contains(result, word) {
				t.Errorf("colorBarInLine(%q) lost %q: %s", input, word, result)
			}
		}
	}
}

func BenchmarkBarChart_View(b *testing.B) {
	config := DefaultBarChartConfig()
	config.Title = "status"
	chart := NewBarChart(config)
	chart.SetItems(TopValueItems(map[string]int{
		"shipped": 100, "pending": 80, "cancelled": 60, "returned": 40, "lost": 20,
	}, 5))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = chart.View()
	}
}
