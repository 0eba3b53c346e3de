package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFromPath_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		t.Fatalf("LoadConfigFromPath: %v", err)
	}
	if cfg.Service.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("base_url = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 60*time.Second {
		t.Errorf("timeout = %v", cfg.Service.Timeout)
	}
	if cfg.UI.PageSize != 20 {
		t.Errorf("page_size = %d", cfg.UI.PageSize)
	}
	if !cfg.History.Enabled || cfg.History.MaxEntries != 1000 {
		t.Errorf("history = %+v", cfg.History)
	}
}

func TestLoadConfigFromPath_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `service:
  base_url: http://data.internal:9000
  timeout: 15s
ui:
  theme: light
  page_size: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATASCOPE_UI_PAGE_SIZE", "25")

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		t.Fatalf("LoadConfigFromPath: %v", err)
	}
	if cfg.Service.BaseURL != "http://data.internal:9000" {
		t.Errorf("base_url = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 15*time.Second {
		t.Errorf("timeout = %v", cfg.Service.Timeout)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.UI.PageSize != 25 {
		t.Errorf("page_size = %d, want env override 25", cfg.UI.PageSize)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty url", func(c *Config) { c.Service.BaseURL = "" }, "service.base_url cannot be empty"},
		{"bad scheme", func(c *Config) { c.Service.BaseURL = "ftp://x" }, "service.base_url must be"},
		{"short timeout", func(c *Config) { c.Service.Timeout = time.Millisecond }, "service.timeout"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"page size", func(c *Config) { c.UI.PageSize = 0 }, "ui.page_size"},
		{"history cap", func(c *Config) { c.History.MaxEntries = 0 }, "history.max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefaultConfig(path, false); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	if err := WriteDefaultConfig(path, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Service.InsightsCacheTTL != 5*time.Minute {
		t.Errorf("insights_cache_ttl = %v", cfg.Service.InsightsCacheTTL)
	}
}

func TestHistoryResolvedPath(t *testing.T) {
	h := HistoryConfig{Path: "/tmp/h.db"}
	if h.ResolvedPath() != "/tmp/h.db" {
		t.Errorf("explicit path ignored")
	}
	h.Path = ""
	if !strings.HasSuffix(h.ResolvedPath(), filepath.Join("datascope", "history.db")) {
		t.Errorf("default path = %q", h.ResolvedPath())
	}
}
