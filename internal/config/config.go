package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the root configuration structure
type Config struct {
	Service ServiceConfig `mapstructure:"service" yaml:"service"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	LogFile string        `mapstructure:"log_file" yaml:"log_file,omitempty"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// ServiceConfig locates the data service.
type ServiceConfig struct {
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	InsightsCacheTTL time.Duration `mapstructure:"insights_cache_ttl" yaml:"insights_cache_ttl"`
}

// UIConfig holds user interface preferences
type UIConfig struct {
	Theme      string `mapstructure:"theme" yaml:"theme"`
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
	PageSize   int    `mapstructure:"page_size" yaml:"page_size"`
	// SQLStyle names a chroma style for SQL highlighting; empty follows Theme.
	SQLStyle string `mapstructure:"sql_style" yaml:"sql_style,omitempty"`
}

// ConfigDir returns ~/.config/datascope.
func ConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "datascope")
	}
	return filepath.Join(homeDir, ".config", "datascope")
}

// LoadConfig loads configuration from the default locations and the
// environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFromPath("")
}

// LoadConfigFromPath loads configuration from path, or from the default
// locations when path is empty. DATASCOPE_* environment variables override
// file values.
func LoadConfigFromPath(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("DATASCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:          "http://127.0.0.1:8000",
			Timeout:          60 * time.Second,
			InsightsCacheTTL: 5 * time.Minute,
		},
		UI: UIConfig{
			Theme:      "dark",
			DateFormat: "2006-01-02 15:04:05",
			PageSize:   20,
		},
		History: DefaultHistoryConfig(),
	}
}

// WriteDefaultConfig writes the default configuration as YAML to path. It
// refuses to overwrite an existing file unless force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SyntaxTheme returns the highlighting theme name for the editor.
func (u UIConfig) SyntaxTheme() string {
	if u.SQLStyle != "" {
		return u.SQLStyle
	}
	return u.Theme
}

// ValidateConfig validates the configuration values
func ValidateConfig(cfg *Config) error {
	if cfg.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url cannot be empty")
	}
	u, err := url.Parse(cfg.Service.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.base_url must be an http(s) URL, got %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout < time.Second || cfg.Service.Timeout > 10*time.Minute {
		return fmt.Errorf("service.timeout must be between 1s and 10m, got %v", cfg.Service.Timeout)
	}
	if cfg.Service.InsightsCacheTTL < 0 {
		return fmt.Errorf("service.insights_cache_ttl must be >= 0, got %v", cfg.Service.InsightsCacheTTL)
	}

	validThemes := []string{"dark", "light"}
	validTheme := false
	for _, theme := range validThemes {
		if cfg.UI.Theme == theme {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("ui.theme must be one of: %v, got %s", validThemes, cfg.UI.Theme)
	}
	if cfg.UI.PageSize < 1 || cfg.UI.PageSize > 1000 {
		return fmt.Errorf("ui.page_size must be between 1 and 1000, got %d", cfg.UI.PageSize)
	}

	return ValidateHistoryConfig(&cfg.History)
}

// applyDefaults sets default configuration values
func applyDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("service.base_url", d.Service.BaseURL)
	v.SetDefault("service.timeout", d.Service.Timeout.String())
	v.SetDefault("service.insights_cache_ttl", d.Service.InsightsCacheTTL.String())

	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.date_format", d.UI.DateFormat)
	v.SetDefault("ui.page_size", d.UI.PageSize)
	v.SetDefault("ui.sql_style", "")

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.max_entries", d.History.MaxEntries)

	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)
}
