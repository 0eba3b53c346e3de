package config

import (
	"fmt"
	"path/filepath"
)

// HistoryConfig holds configuration for the local query history.
type HistoryConfig struct {
	// Enabled indicates whether executed queries are recorded
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite file holding the history; empty uses the config dir
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// MaxEntries caps the number of distinct queries kept
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// DefaultHistoryConfig returns default history configuration.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:    true,
		MaxEntries: 1000,
	}
}

// ResolvedPath returns Path or the default history file location.
func (h HistoryConfig) ResolvedPath() string {
	if h.Path != "" {
		return h.Path
	}
	return filepath.Join(ConfigDir(), "history.db")
}

// ValidateHistoryConfig validates history settings.
func ValidateHistoryConfig(h *HistoryConfig) error {
	if h.MaxEntries < 1 || h.MaxEntries > 100000 {
		return fmt.Errorf("history.max_entries must be between 1 and 100000, got %d", h.MaxEntries)
	}
	return nil
}
