package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/datascope/internal/session"
)

func TestRenderPlanTree_Nesting(t *testing.T) {
	plan := session.QueryPlan{
		{ID: 2, ParentID: 0, Detail: "CO-ROUTINE sub"},
		{ID: 5, ParentID: 2, Detail: "SCAN orders"},
		{ID: 9, ParentID: 0, Detail: "SEARCH users USING INTEGER PRIMARY KEY (rowid=?)"},
	}

	out := RenderPlanTree(plan, 0, false)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, PlanTreeRoot, lines[0])
	assert.Contains(t, lines[1], "CO-ROUTINE sub")
	assert.Contains(t, lines[2], "SCAN orders")
	assert.Contains(t, lines[3], "SEARCH users")

	// The child is indented deeper than its parent.
	assert.Greater(t, strings.Index(lines[2], "SCAN"), strings.Index(lines[1], "CO-ROUTINE"))
}

func TestRenderPlanTree_KeepsServiceOrder(t *testing.T) {
	plan := session.QueryPlan{
		{ID: 7, Detail: "SCAN b"},
		{ID: 3, Detail: "SCAN a"},
	}
	out := RenderPlanTree(plan, 0, false)
	assert.Less(t, strings.Index(out, "SCAN b"), strings.Index(out, "SCAN a"))
}

func TestRenderPlanTree_Empty(t *testing.T) {
	assert.Contains(t, RenderPlanTree(nil, 80, false), "empty")
	assert.Contains(t, RenderPlanTree(session.QueryPlan{}, 80, true), "empty")
}

func TestFormatPlanDetail(t *testing.T) {
	assert.Equal(t, "(no detail)", formatPlanDetail("", 40))
	assert.Equal(t, "SCAN t", formatPlanDetail("SCAN t", 0))

	long := strings.Repeat("x", 100)
	got := formatPlanDetail(long, 40)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, 28)
}
