package session

import (
	"fmt"
	"sync"
)

// State is a point-in-time copy of the store. Mutating it has no effect on
// the store.
type State struct {
	SessionID     string
	Schema        *Schema
	View          *ViewResult
	ViewStale     bool
	SelectedTable string
	Plan          QueryPlan
	ActiveTab     Tab
	Loading       bool
	Err           string
	Insights      InsightsState
}

// HasSession reports whether a database is loaded.
func (s State) HasSession() bool {
	return s.SessionID != ""
}

// CheckInvariants returns an error describing the first broken invariant.
func (s State) CheckInvariants() error {
	if s.SessionID == "" {
		if s.Schema != nil {
			return fmt.Errorf("schema present without a session")
		}
		if s.View != nil {
			return fmt.Errorf("view present without a session")
		}
		if s.Plan != nil {
			return fmt.Errorf("plan present without a session")
		}
		if s.SelectedTable != "" {
			return fmt.Errorf("selected table %q without a session", s.SelectedTable)
		}
	}
	if s.ActiveTab == TabInsights && s.SelectedTable == "" {
		return fmt.Errorf("insights tab active without a selected table")
	}
	if s.View != nil {
		p := s.View.Pagination
		if p.TotalPages < 1 {
			return fmt.Errorf("total pages %d below 1", p.TotalPages)
		}
		if p.Page < 1 || p.Page > p.TotalPages {
			return fmt.Errorf("page %d outside 1..%d", p.Page, p.TotalPages)
		}
		if p.TotalRows == 0 && p.Page != 1 {
			return fmt.Errorf("page %d on an empty result", p.Page)
		}
	}
	if s.Loading && s.Err != "" {
		return fmt.Errorf("loading and error set together")
	}
	return nil
}

// Store owns the session state. Consumers read through Snapshot and the
// accessors and change it only through the mutators below.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers []func(State)

	// batch > 0 defers notifications until Atomically returns.
	batch int
	dirty bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn to receive a snapshot after every mutation.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// update applies fn under the write lock and notifies subscribers.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	if s.batch > 0 {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := s.subscribers
	var snap State
	if len(subs) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// Atomically runs fn, which may call several mutators, and notifies
// subscribers once afterwards so no intermediate state is observed.
func (s *Store) Atomically(fn func()) {
	s.mu.Lock()
	s.batch++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batch--
		fire := s.batch == 0 && s.dirty
		if fire {
			s.dirty = false
		}
		s.mu.Unlock()
		if fire {
			s.notify()
		}
	}()

	fn()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.Schema = st.Schema.Clone()
	st.View = st.View.Clone()
	st.Plan = st.Plan.Clone()
	st.Insights.Report = st.Insights.Report.Clone()
	return st
}

// SessionID returns the active session id, or "" when none is loaded.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionID
}

// SelectedTable returns the table backing the current view, or "".
func (s *Store) SelectedTable() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedTable
}

// ActiveTab returns the visible tab.
func (s *Store) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveTab
}

// Pagination returns the pagination of the current view and whether the
// view is table-backed.
func (s *Store) Pagination() (Pagination, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.View == nil {
		return Pagination{}, "", false
	}
	return s.state.View.Pagination, s.state.View.TableName, true
}

// HasTable reports whether the loaded schema contains name.
func (s *Store) HasTable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Schema.HasTable(name)
}

// Loading reports whether a grid operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Schema returns a copy of the loaded schema, or nil.
func (s *Store) Schema() *Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Schema.Clone()
}

// Insights returns the insights slot.
func (s *Store) Insights() InsightsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ins := s.state.Insights
	ins.Report = ins.Report.Clone()
	return ins
}

// StartSession replaces the whole state with a fresh session.
func (s *Store) StartSession(id string, schema *Schema) {
	fresh := schema.Clone()
	if fresh == nil {
		fresh = &Schema{}
	}
	s.update(func(st *State) {
		*st = State{
			SessionID: id,
			Schema:    fresh,
			ActiveTab: TabData,
		}
	})
}

// EndSession resets the store to the empty state.
func (s *Store) EndSession() {
	s.update(func(st *State) {
		*st = State{ActiveTab: TabData}
	})
}

// SetViewResult installs a new grid result and clears loading and error.
// A nil result clears the grid.
func (s *Store) SetViewResult(v *ViewResult) {
	cp := v.Clone()
	if cp != nil {
		cp.Pagination = cp.Pagination.Normalize(len(cp.Rows))
	}
	s.update(func(st *State) {
		if st.SessionID == "" {
			return
		}
		st.View = cp
		st.ViewStale = false
		st.Err = ""
		st.Loading = false
	})
}

// MarkViewStale flags the grid as superseded without discarding it.
func (s *Store) MarkViewStale() {
	s.update(func(st *State) {
		if st.View != nil {
			st.ViewStale = true
		}
	})
}

// SetSelectedTable records the table backing the view. Clearing it while
// the insights tab is visible moves the tab back to Data.
func (s *Store) SetSelectedTable(name string) {
	s.update(func(st *State) {
		if st.SessionID == "" {
			name = ""
		}
		st.SelectedTable = name
		if name == "" && st.ActiveTab == TabInsights {
			st.ActiveTab = TabData
		}
		if st.Insights.Table != "" && st.Insights.Table != name {
			st.Insights = InsightsState{}
		}
	})
}

// SetQueryPlan installs or clears the query plan.
func (s *Store) SetQueryPlan(plan QueryPlan) {
	cp := plan.Clone()
	s.update(func(st *State) {
		if st.SessionID == "" {
			cp = nil
		}
		st.Plan = cp
	})
}

// SetActiveTab switches the visible tab and returns the tab actually
// applied. Insights without a selected table resolves to Data.
func (s *Store) SetActiveTab(tab Tab) Tab {
	var applied Tab
	s.update(func(st *State) {
		switch tab {
		case TabData, TabExplainPlan:
		case TabInsights:
			if st.SelectedTable == "" {
				tab = TabData
			}
		default:
			tab = TabData
		}
		st.ActiveTab = tab
		applied = tab
	})
	return applied
}

// SetLoading sets the process-wide loading flag. Starting to load clears
// any previous error.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) {
		st.Loading = loading
		if loading {
			st.Err = ""
		}
	})
}

// SetError records msg as the current error and ends the in-flight
// operation. An empty msg clears the error.
func (s *Store) SetError(msg string) {
	s.update(func(st *State) {
		st.Err = msg
		st.Loading = false
	})
}

// BeginInsights marks insights for table as loading.
func (s *Store) BeginInsights(table string) {
	s.update(func(st *State) {
		st.Insights = InsightsState{Table: table, Loading: true}
	})
}

// SetInsights installs a report for table. It is ignored when table is no
// longer selected.
func (s *Store) SetInsights(table string, report *InsightsReport) {
	cp := report.Clone()
	s.update(func(st *State) {
		if st.SelectedTable != table {
			return
		}
		st.Insights = InsightsState{Table: table, Report: cp}
	})
}

// CancelInsights empties the insights slot when its fetch will never
// complete. A loaded report or error is kept.
func (s *Store) CancelInsights() {
	s.update(func(st *State) {
		if st.Insights.Loading {
			st.Insights = InsightsState{}
		}
	})
}

// SetInsightsError records an insights failure for table.
func (s *Store) SetInsightsError(table, msg string) {
	s.update(func(st *State) {
		if st.SelectedTable != table {
			return
		}
		st.Insights = InsightsState{Table: table, Err: msg}
	})
}
