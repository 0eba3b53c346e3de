package sqleditor

import (
	"strings"
	"sync"

	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
)

// HistoryManager keeps an in-memory copy of the query history for fast
// recall, backed by the SQLite history store. A nil store keeps the
// history for the current process only.
type HistoryManager struct {
	store        *sqlite.HistoryStore
	cache        []sqlite.HistoryEntry // oldest first
	currentIndex int                   // -1 when not browsing
	maxEntries   int
	mu           sync.RWMutex
}

// NewHistoryManager creates a history manager over store.
func NewHistoryManager(store *sqlite.HistoryStore, maxEntries int) *HistoryManager {
	if maxEntries <= 0 {
		maxEntries = sqlite.DefaultMaxEntries
	}

	hm := &HistoryManager{
		store:        store,
		currentIndex: -1,
		maxEntries:   maxEntries,
	}
	hm.loadCache()
	return hm
}

// loadCache loads recent entries from SQLite, oldest first.
func (hm *HistoryManager) loadCache() {
	if hm.store == nil {
		return
	}

	entries, err := hm.store.GetRecent(hm.maxEntries)
	if err != nil {
		logger.Warn("Failed to load query history", "error", err)
		return
	}

	cache := make([]sqlite.HistoryEntry, len(entries))
	for i, entry := range entries {
		cache[len(entries)-1-i] = entry
	}

	hm.mu.Lock()
	hm.cache = cache
	hm.mu.Unlock()
}

// Add records an executed query. Repeating a query moves it to the most
// recent position instead of adding a duplicate.
func (hm *HistoryManager) Add(e sqlite.HistoryEntry) error {
	e.SQL = strings.TrimSpace(e.SQL)
	if e.SQL == "" {
		return nil
	}

	if hm.store != nil {
		if err := hm.store.Add(e); err != nil {
			return err
		}
		hm.loadCache()
	} else {
		hm.mu.Lock()
		fp := sqlite.Fingerprint(e.SQL)
		kept := hm.cache[:0]
		for _, c := range hm.cache {
			if sqlite.Fingerprint(c.SQL) != fp {
				kept = append(kept, c)
			}
		}
		hm.cache = append(kept, e)
		if len(hm.cache) > hm.maxEntries {
			hm.cache = hm.cache[len(hm.cache)-hm.maxEntries:]
		}
		hm.mu.Unlock()
	}

	hm.ResetNavigation()
	return nil
}

// Previous returns the previous (older) query in history.
// Returns empty string if history is empty.
func (hm *HistoryManager) Previous() string {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if len(hm.cache) == 0 {
		return ""
	}

	if hm.currentIndex == -1 {
		hm.currentIndex = len(hm.cache) - 1
	} else if hm.currentIndex > 0 {
		hm.currentIndex--
	}

	return hm.cache[hm.currentIndex].SQL
}

// Next returns the next (more recent) query in history. Moving past the
// newest entry ends browsing and returns "" so the editor can be cleared.
func (hm *HistoryManager) Next() string {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if len(hm.cache) == 0 || hm.currentIndex == -1 {
		return ""
	}

	if hm.currentIndex < len(hm.cache)-1 {
		hm.currentIndex++
		return hm.cache[hm.currentIndex].SQL
	}

	hm.currentIndex = -1
	return ""
}

// Current returns the entry being viewed, or nil when not browsing.
func (hm *HistoryManager) Current() *sqlite.HistoryEntry {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if hm.currentIndex < 0 || hm.currentIndex >= len(hm.cache) {
		return nil
	}

	entry := hm.cache[hm.currentIndex]
	return &entry
}

// ResetNavigation resets the history navigation position.
func (hm *HistoryManager) ResetNavigation() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.currentIndex = -1
}

// IsBrowsing returns true if currently navigating history.
func (hm *HistoryManager) IsBrowsing() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.currentIndex >= 0
}

// Search returns entries containing query (case-insensitive), most recent
// first. An empty query returns everything.
func (hm *HistoryManager) Search(query string) []sqlite.HistoryEntry {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	queryLower := strings.ToLower(strings.TrimSpace(query))
	var results []sqlite.HistoryEntry
	for i := len(hm.cache) - 1; i >= 0; i-- {
		if queryLower == "" || strings.Contains(strings.ToLower(hm.cache[i].SQL), queryLower) {
			results = append(results, hm.cache[i])
		}
	}
	return results
}

// Len returns the number of entries in the cache.
func (hm *HistoryManager) Len() int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.cache)
}
