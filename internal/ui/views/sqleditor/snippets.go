package sqleditor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/willibrandon/datascope/internal/session"
)

// SnippetsFileName is the snippet file inside the config directory.
const SnippetsFileName = "snippets.yaml"

const (
	snippetsVersion = 2
	maxSnippetName  = 64
)

var (
	snippetNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	// sqlIdentifier matches bare and quoted SQLite identifiers.
	sqlIdentifier = regexp.MustCompile("[A-Za-z_][A-Za-z0-9_$]*|\"[^\"]+\"|`[^`]+`|\\[[^\\]]+\\]")
)

// Snippet is a saved query together with the tables it reads.
type Snippet struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
	// Tables are the schema tables the query mentioned when it was saved.
	Tables   []string  `yaml:"tables,omitempty"`
	Database string    `yaml:"database,omitempty"`
	SavedAt  time.Time `yaml:"saved_at"`
	LastRun  time.Time `yaml:"last_run,omitempty"`
	Runs     int       `yaml:"runs,omitempty"`
}

// SnippetContext describes the database a snippet is saved against.
type SnippetContext struct {
	Database string
	Schema   *session.Schema
}

// SnippetMatch is a snippet ranked against the loaded schema.
type SnippetMatch struct {
	Snippet
	// Missing lists the snippet's tables absent from the loaded schema.
	Missing []string
}

// Runnable reports whether every table the snippet reads is loaded.
func (m SnippetMatch) Runnable() bool {
	return len(m.Missing) == 0
}

type snippetsDoc struct {
	Version  int       `yaml:"version"`
	Snippets []Snippet `yaml:"snippets"`
}

// SnippetManager keeps named queries in a YAML file.
type SnippetManager struct {
	mu    sync.RWMutex
	path  string
	byKey map[string]Snippet
}

// NewSnippetManager opens the snippet file in dir, usually
// config.ConfigDir(). A missing file is an empty collection.
func NewSnippetManager(dir string) (*SnippetManager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	sm := &SnippetManager{
		path:  filepath.Join(dir, SnippetsFileName),
		byKey: make(map[string]Snippet),
	}

	data, err := os.ReadFile(sm.path)
	switch {
	case os.IsNotExist(err):
		return sm, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read snippets: %w", err)
	}
	var doc snippetsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", sm.path, err)
	}
	for _, s := range doc.Snippets {
		sm.byKey[s.Name] = s
	}
	return sm, nil
}

// Path returns the snippet file location.
func (sm *SnippetManager) Path() string {
	return sm.path
}

// Len returns the number of saved snippets.
func (sm *SnippetManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.byKey)
}

// Save stores sql under name, recording the tables of ctx.Schema it reads.
// It reports whether an existing snippet was replaced; a replaced snippet
// keeps its run count.
func (sm *SnippetManager) Save(name, sql string, ctx SnippetContext) (replaced bool, err error) {
	name = strings.TrimSpace(name)
	sql = strings.TrimSpace(sql)
	switch {
	case name == "":
		return false, fmt.Errorf("snippet name cannot be empty")
	case len(name) > maxSnippetName || !snippetNamePattern.MatchString(name):
		return false, fmt.Errorf("snippet name must be 1-%d letters, digits, dashes, underscores or dots", maxSnippetName)
	case sql == "":
		return false, fmt.Errorf("snippet SQL cannot be empty")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	prev, replaced := sm.byKey[name]
	sm.byKey[name] = Snippet{
		Name:     name,
		SQL:      sql,
		Tables:   ReferencedTables(sql, ctx.Schema),
		Database: ctx.Database,
		SavedAt:  time.Now(),
		LastRun:  prev.LastRun,
		Runs:     prev.Runs,
	}
	if err := sm.flushLocked(); err != nil {
		if replaced {
			sm.byKey[name] = prev
		} else {
			delete(sm.byKey, name)
		}
		return false, err
	}
	return replaced, nil
}

// Get returns the named snippet.
func (sm *SnippetManager) Get(name string) (Snippet, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.byKey[strings.TrimSpace(name)]
	if !ok {
		return Snippet{}, fmt.Errorf("snippet '%s' not found", name)
	}
	return s, nil
}

// MarkRun records that the named snippet was loaded into the editor.
func (sm *SnippetManager) MarkRun(name string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.byKey[name]
	if !ok {
		return fmt.Errorf("snippet '%s' not found", name)
	}
	s.Runs++
	s.LastRun = time.Now()
	sm.byKey[name] = s
	return sm.flushLocked()
}

// Delete removes the named snippet.
func (sm *SnippetManager) Delete(name string) error {
	name = strings.TrimSpace(name)
	sm.mu.Lock()
	defer sm.mu.Unlock()
	prev, ok := sm.byKey[name]
	if !ok {
		return fmt.Errorf("snippet '%s' not found", name)
	}
	delete(sm.byKey, name)
	if err := sm.flushLocked(); err != nil {
		sm.byKey[name] = prev
		return err
	}
	return nil
}

// All returns every snippet ordered by name.
func (sm *SnippetManager) All() []Snippet {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sortedLocked()
}

// Matching returns the snippets whose name, SQL or tables contain filter,
// ranked for the loaded schema: runnable snippets first, then the most
// recently run. A nil schema ranks by recency alone.
func (sm *SnippetManager) Matching(filter string, schema *session.Schema) []SnippetMatch {
	filter = strings.ToLower(strings.TrimSpace(filter))

	sm.mu.RLock()
	all := sm.sortedLocked()
	sm.mu.RUnlock()

	var out []SnippetMatch
	for _, s := range all {
		if filter != "" && !snippetContains(s, filter) {
			continue
		}
		m := SnippetMatch{Snippet: s}
		if schema != nil {
			for _, t := range s.Tables {
				if !schema.HasTable(t) {
					m.Missing = append(m.Missing, t)
				}
			}
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Runnable() != out[j].Runnable() {
			return out[i].Runnable()
		}
		return out[i].LastRun.After(out[j].LastRun)
	})
	return out
}

// ReferencedTables returns the tables of schema named in sql, in schema
// order. Table names compare case-insensitively, as SQLite does.
func ReferencedTables(sql string, schema *session.Schema) []string {
	if schema.Len() == 0 {
		return nil
	}
	seen := make(map[string]bool)
	for _, tok := range sqlIdentifier.FindAllString(sql, -1) {
		seen[strings.ToLower(strings.Trim(tok, "\"`[]"))] = true
	}
	var tables []string
	for _, name := range schema.TableNames() {
		if seen[strings.ToLower(name)] {
			tables = append(tables, name)
		}
	}
	return tables
}

func snippetContains(s Snippet, filter string) bool {
	if strings.Contains(strings.ToLower(s.Name), filter) ||
		strings.Contains(strings.ToLower(s.SQL), filter) {
		return true
	}
	for _, t := range s.Tables {
		if strings.Contains(strings.ToLower(t), filter) {
			return true
		}
	}
	return false
}

func (sm *SnippetManager) sortedLocked() []Snippet {
	out := make([]Snippet, 0, len(sm.byKey))
	for _, s := range sm.byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// flushLocked rewrites the snippet file through a temporary file so a
// failed write leaves the previous file intact.
func (sm *SnippetManager) flushLocked() error {
	data, err := yaml.Marshal(snippetsDoc{Version: snippetsVersion, Snippets: sm.sortedLocked()})
	if err != nil {
		return fmt.Errorf("failed to marshal snippets: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(sm.path), ".snippets-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write snippets: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snippets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snippets: %w", err)
	}
	if err := os.Rename(tmp.Name(), sm.path); err != nil {
		return fmt.Errorf("failed to write snippets: %w", err)
	}
	return nil
}
