// Package config loads iterm-relay configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (ITERM_RELAY_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .iterm-relay.yaml in current directory
//  2. ~/.config/iterm-relay/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all iterm-relay configuration.
type Config struct {
	// LLM settings for the diagnose command
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int64  `yaml:"max_tokens"`

	// Automation
	Timeout string `yaml:"timeout"` // Go duration string, e.g. "30s"; "0"/"off" disables

	// Monitor
	Refresh      string `yaml:"refresh"` // Go duration string, e.g. "3s"
	Parallel     int    `yaml:"parallel"`
	CaptureLines int    `yaml:"capture_lines"`
	// ExcludeTerminals lists identifier patterns the monitor skips.
	// A trailing "*" makes a pattern a prefix match, e.g. "term-231-*".
	ExcludeTerminals []string `yaml:"exclude_terminals"`

	// Activity feed
	ActivitySocket string `yaml:"activity_socket"`
	ActivityTTL    string `yaml:"activity_ttl"` // Go duration string, e.g. "10m"

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// Parsed durations (not from YAML, set after loading)
	TimeoutDuration     time.Duration `yaml:"-"`
	RefreshDuration     time.Duration `yaml:"-"`
	ActivityTTLDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-5",
		MaxTokens:    4096,
		Timeout:      "30s",
		Refresh:      "3s",
		Parallel:     4,
		CaptureLines: 40,
		ActivityTTL:  "10m",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	mergeEnv(cfg)

	// Parse durations
	var err error
	cfg.TimeoutDuration, err = parseDurationOrDisable(cfg.Timeout, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid automation timeout %q: %w", cfg.Timeout, err)
	}
	cfg.RefreshDuration, err = parseDurationOrDisable(cfg.Refresh, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %w", cfg.Refresh, err)
	}
	cfg.ActivityTTLDuration, err = parseDurationOrDisable(cfg.ActivityTTL, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid activity TTL %q: %w", cfg.ActivityTTL, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".iterm-relay.yaml"); err == nil {
		return ".iterm-relay.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "iterm-relay", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.APIKey != "" {
		cfg.APIKey = file.APIKey
	}
	if file.MaxTokens > 0 {
		cfg.MaxTokens = file.MaxTokens
	}
	if file.Timeout != "" {
		cfg.Timeout = file.Timeout
	}
	if file.Refresh != "" {
		cfg.Refresh = file.Refresh
	}
	if file.Parallel > 0 {
		cfg.Parallel = file.Parallel
	}
	if file.CaptureLines > 0 {
		cfg.CaptureLines = file.CaptureLines
	}
	if len(file.ExcludeTerminals) > 0 {
		cfg.ExcludeTerminals = file.ExcludeTerminals
	}
	if file.ActivitySocket != "" {
		cfg.ActivitySocket = file.ActivitySocket
	}
	if file.ActivityTTL != "" {
		cfg.ActivityTTL = file.ActivityTTL
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("ITERM_RELAY_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("ITERM_RELAY_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("ITERM_RELAY_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ITERM_RELAY_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ITERM_RELAY_TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv("ITERM_RELAY_REFRESH"); v != "" {
		cfg.Refresh = v
	}
	if v := os.Getenv("ITERM_RELAY_ACTIVITY_SOCKET"); v != "" {
		cfg.ActivitySocket = v
	}
	if v := os.Getenv("ITERM_RELAY_ACTIVITY_TTL"); v != "" {
		cfg.ActivityTTL = v
	}
	if v := os.Getenv("ITERM_RELAY_EXCLUDE_TERMINALS"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		cfg.ExcludeTerminals = patterns
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}

	// API key fallbacks
	if cfg.APIKey == "" {
		if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
			cfg.APIKey = v
		}
	}
	if cfg.APIKey == "" {
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.APIKey = v
		}
	}
	if cfg.APIKey == "" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.APIKey = v
		}
	}

	// Azure base URL fallback
	if cfg.BaseURL == "" {
		if rn := os.Getenv("AZURE_RESOURCE_NAME"); rn != "" {
			switch cfg.Provider {
			case "anthropic":
				cfg.BaseURL = fmt.Sprintf("https://%s.services.ai.azure.com/anthropic/", rn)
			case "openai":
				cfg.BaseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/v1", rn)
			}
		}
	}
}

// MatchesExcludeList reports whether name matches any pattern. A trailing
// "*" makes a pattern a prefix match; anything else is an exact match.
func MatchesExcludeList(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(name, strings.TrimSuffix(p, "*")) {
				return true
			}
		} else if name == p {
			return true
		}
	}
	return false
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// ParseDurationOrDisable parses a duration string from a command-line
// flag. "0", "off", "disable" return 0.
func ParseDurationOrDisable(s string) (time.Duration, error) {
	return parseDurationOrDisable(s, 0)
}

// IsAzureEndpoint returns true if the URL is an Azure endpoint.
func IsAzureEndpoint(url string) bool {
	return len(url) > 0 && (contains(url, ".azure.com") || contains(url, ".azure.us"))
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchString(s, substr)
}

func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
