// Package session holds the canonical state of the loaded database and of
// everything derived from it that is currently on screen.
package session

import "fmt"

// DefaultPageSize is the number of rows fetched per table page.
const DefaultPageSize = 20

// Column describes a single column of a table as reported at upload time.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notnull"`
	PrimaryKey bool   `json:"pk"`
}

// Table is a named, ordered list of columns.
type Table struct {
	Name    string
	Columns []Column
}

// Row maps a column name to a scalar value or nil.
type Row map[string]any

// Pagination describes where a page sits in a table.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
}

// TotalPagesFor returns ceil(totalRows/pageSize), never less than 1.
func TotalPagesFor(totalRows, pageSize int) int {
	if pageSize <= 0 || totalRows <= 0 {
		return 1
	}
	pages := totalRows / pageSize
	if totalRows%pageSize > 0 {
		pages++
	}
	return pages
}

// Normalize repairs a pagination block received from the data service so
// that 1 <= Page <= TotalPages always holds.
func (p Pagination) Normalize(rowCount int) Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
		if rowCount > p.PageSize {
			p.PageSize = rowCount
		}
	}
	if p.TotalRows < 0 {
		p.TotalRows = 0
	}
	if p.TotalRows == 0 && rowCount > 0 {
		p.TotalRows = rowCount
	}
	p.TotalPages = TotalPagesFor(p.TotalRows, p.PageSize)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > p.TotalPages {
		p.Page = p.TotalPages
	}
	return p
}

// Contains reports whether page is a valid target for a page change.
func (p Pagination) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

// StartRow returns the 1-indexed first row of the current page.
func (p Pagination) StartRow() int {
	if p.TotalRows == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

// EndRow returns the 1-indexed last row of the current page.
func (p Pagination) EndRow() int {
	if p.TotalRows == 0 {
		return 0
	}
	end := p.Page * p.PageSize
	if end > p.TotalRows {
		end = p.TotalRows
	}
	return end
}

// ViewResult is the content of the primary data grid. TableName is empty
// when the rows came from a free-form query.
type ViewResult struct {
	TableName  string     `json:"table_name,omitempty"`
	Columns    []string   `json:"columns"`
	Rows       []Row      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TableBacked reports whether the result came from browsing a table.
func (v *ViewResult) TableBacked() bool {
	return v != nil && v.TableName != ""
}

// Clone returns a deep copy of the result.
func (v *ViewResult) Clone() *ViewResult {
	if v == nil {
		return nil
	}
	out := &ViewResult{
		TableName:  v.TableName,
		Columns:    append([]string(nil), v.Columns...),
		Rows:       make([]Row, len(v.Rows)),
		Pagination: v.Pagination,
	}
	for i, row := range v.Rows {
		cp := make(Row, len(row))
		for k, val := range row {
			cp[k] = val
		}
		out.Rows[i] = cp
	}
	return out
}

// PlanStep is one node of a query plan. Root steps have ParentID 0.
type PlanStep struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parent"`
	NotUsed  int    `json:"notused"`
	Detail   string `json:"detail"`
}

// QueryPlan is the ordered list of plan steps as returned by the service.
type QueryPlan []PlanStep

// Clone returns a copy of the plan, or nil for a nil plan.
func (p QueryPlan) Clone() QueryPlan {
	if p == nil {
		return nil
	}
	return append(QueryPlan{}, p...)
}

// PlanNode is a step with its children, in service order.
type PlanNode struct {
	Step     PlanStep
	Children []*PlanNode
}

// Tree arranges the steps into a forest by ParentID. Steps whose parent is
// unknown are treated as roots. Sibling order follows the input order.
func (p QueryPlan) Tree() []*PlanNode {
	nodes := make(map[int]*PlanNode, len(p))
	for _, step := range p {
		nodes[step.ID] = &PlanNode{Step: step}
	}
	var roots []*PlanNode
	for _, step := range p {
		node := nodes[step.ID]
		parent, ok := nodes[step.ParentID]
		if step.ParentID == 0 || !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

// Tab is the facet of the data area that is visible.
type Tab int

const (
	TabData Tab = iota
	TabInsights
	TabExplainPlan
)

func (t Tab) String() string {
	switch t {
	case TabData:
		return "Data"
	case TabInsights:
		return "Insights"
	case TabExplainPlan:
		return "Explain Plan"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

// NumericStats summarizes a numeric column.
type NumericStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	StdDev *float64 `json:"std_dev"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// CategoricalStats lists the most frequent values of a text column.
type CategoricalStats struct {
	TopValues map[string]int `json:"top_values"`
}

// ColumnStats is the per-column part of an insights report.
type ColumnStats struct {
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	MissingCount     int               `json:"missing_count"`
	MissingPercent   float64           `json:"missing_percent"`
	UniqueCount      int               `json:"unique_count"`
	UniquePercent    float64           `json:"unique_percent"`
	NumericStats     *NumericStats     `json:"numeric_stats,omitempty"`
	CategoricalStats *CategoricalStats `json:"categorical_stats,omitempty"`
}

// InsightsReport is the statistical summary of one table.
type InsightsReport struct {
	TableName   string        `json:"table_name"`
	TotalRows   int           `json:"total_rows"`
	TotalCols   int           `json:"total_cols"`
	ColumnStats []ColumnStats `json:"column_stats"`
}

// Clone returns a deep copy of the report.
func (r *InsightsReport) Clone() *InsightsReport {
	if r == nil {
		return nil
	}
	out := *r
	out.ColumnStats = make([]ColumnStats, len(r.ColumnStats))
	for i, cs := range r.ColumnStats {
		if cs.NumericStats != nil {
			ns := *cs.NumericStats
			cs.NumericStats = &ns
		}
		if cs.CategoricalStats != nil {
			top := make(map[string]int, len(cs.CategoricalStats.TopValues))
			for k, v := range cs.CategoricalStats.TopValues {
				top[k] = v
			}
			cs.CategoricalStats = &CategoricalStats{TopValues: top}
		}
		out.ColumnStats[i] = cs
	}
	return &out
}

// InsightsState tracks the insights slot for the selected table.
type InsightsState struct {
	Table   string
	Loading bool
	Report  *InsightsReport
	Err     string
}

// Settled reports whether the slot holds or is fetching data for table.
func (s InsightsState) Settled(table string) bool {
	return s.Table == table && (s.Loading || s.Report != nil)
}
