// Package config handles loading and managing configuration for taskboard.
// It supports loading from YAML files, environment variables, and hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for taskboard.
type Config struct {
	// Store is the task store spec, e.g. "http:url=https://tasks.example.com"
	Store string `yaml:"store"`

	// WorkspaceID selects the workspace whose tasks are shown
	WorkspaceID string `yaml:"workspace_id"`

	// APIToken is sent as a Bearer token to the remote store
	APIToken string `yaml:"api_token"`

	// RedisURL is the Redis connection URL for the collection cache
	RedisURL string `yaml:"redis_url"`

	// CacheEnabled turns on the Redis collection cache
	CacheEnabled bool `yaml:"cache_enabled"`

	// CacheTTL bounds how long a cached collection is served
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RequestTimeout bounds each request to the remote store
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Calendar CalendarConfig `yaml:"calendar"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CalendarConfig holds calendar view settings.
type CalendarConfig struct {
	// OverflowLimit is how many tasks a month cell shows before "+N more"
	OverflowLimit int `yaml:"overflow_limit"`

	// DefaultView is month, week or day
	DefaultView string `yaml:"default_view"`
}

// ServerConfig holds settings for the local dev server.
type ServerConfig struct {
	Listen   string `yaml:"listen"`
	SeedFile string `yaml:"seed_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	Console    bool   `yaml:"console"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default configuration values
const (
	DefaultStore          = "http:url=http://127.0.0.1:8787"
	DefaultRedisURL       = "redis://localhost:6379"
	DefaultCacheTTL       = 5 * time.Minute
	DefaultRequestTimeout = 30 * time.Second
	DefaultOverflowLimit  = 3
	DefaultView           = "month"
	DefaultListen         = "127.0.0.1:8787"
	DefaultLogLevel       = "info"
)

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// MustGet returns the global configuration, panicking if loading fails.
func MustGet() *Config {
	cfg, err := Get()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

// Defaults returns a config with every hardcoded default applied.
func Defaults() *Config {
	return &Config{
		Store:          DefaultStore,
		RedisURL:       DefaultRedisURL,
		CacheTTL:       DefaultCacheTTL,
		RequestTimeout: DefaultRequestTimeout,
		Calendar: CalendarConfig{
			OverflowLimit: DefaultOverflowLimit,
			DefaultView:   DefaultView,
		},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/taskboard/config.yaml (or config.yml)
// 3. ~/.taskboard.yaml
// 4. Hardcoded defaults
//
// A file that exists but cannot be parsed is an error.
func Load() (*Config, error) {
	cfg := Defaults()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, path := range layerPaths(homeDir) {
			if err := cfg.mergeFile(path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// layerPaths lists config files from lowest to highest priority.
func layerPaths(homeDir string) []string {
	return []string{
		filepath.Join(homeDir, ".taskboard.yaml"),
		filepath.Join(homeDir, ".config", "taskboard", "config.yaml"),
		filepath.Join(homeDir, ".config", "taskboard", "config.yml"),
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("TASKBOARD_STORE"); val != "" {
		c.Store = val
	}
	if val := os.Getenv("TASKBOARD_WORKSPACE"); val != "" {
		c.WorkspaceID = val
	}
	if val := os.Getenv("TASKBOARD_API_TOKEN"); val != "" {
		c.APIToken = val
	}

	// Redis URL (support both REDIS_URL and TASKBOARD_REDIS_URL)
	if val := os.Getenv("TASKBOARD_REDIS_URL"); val != "" {
		c.RedisURL = val
		c.CacheEnabled = true
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	if val := os.Getenv("TASKBOARD_CACHE"); val != "" {
		c.CacheEnabled = parseBool(val)
	}
	if d, ok := parseDurationEnv("TASKBOARD_CACHE_TTL"); ok {
		c.CacheTTL = d
	}
	if d, ok := parseDurationEnv("TASKBOARD_REQUEST_TIMEOUT"); ok {
		c.RequestTimeout = d
	}

	if val := os.Getenv("TASKBOARD_LISTEN"); val != "" {
		c.Server.Listen = val
	}
	if val := os.Getenv("TASKBOARD_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("TASKBOARD_LOG_FILE"); val != "" {
		c.Logging.File = val
	}
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	if c.Calendar.OverflowLimit <= 0 {
		c.Calendar.OverflowLimit = DefaultOverflowLimit
	}
	if c.Calendar.DefaultView == "" {
		c.Calendar.DefaultView = DefaultView
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
}

// parseDurationEnv reads a Go duration, or plain seconds for convenience.
func parseDurationEnv(key string) (time.Duration, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

func parseBool(val string) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Redacted returns a copy safe to print, with the API token masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIToken != "" {
		out.APIToken = "***"
	}
	return &out
}

// YAML renders the config in file format.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Reload forces a reload of the configuration.
// This resets the global singleton and returns the newly loaded config.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// ConfigPaths returns the paths where config files are searched, highest
// priority first.
func ConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	layers := layerPaths(homeDir)
	out := make([]string, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		out = append(out, layers[i])
	}
	return out
}

// WriteExample writes an example configuration file to the specified path.
func WriteExample(path string) error {
	example := `# Taskboard configuration file
# Place this file at ~/.config/taskboard/config.yaml or ~/.taskboard.yaml

# Task store: http:url=..., file:path=tasks.yaml, or memory
store: http:url=http://127.0.0.1:8787

# Workspace whose tasks are shown
workspace_id: ""

# Bearer token for the remote store (or TASKBOARD_API_TOKEN)
api_token: ""

# Redis collection cache
redis_url: redis://localhost:6379
cache_enabled: false
cache_ttl: 5m

# Per-request timeout (Go duration format, e.g., "30s", "1m")
request_timeout: 30s

calendar:
  # Tasks shown per month cell before "+N more"
  overflow_limit: 3
  # month, week or day
  default_view: month

server:
  listen: 127.0.0.1:8787
  seed_file: ""

logging:
  level: info
  file: ""
  json: false
  console: false
`
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(example), 0644)
}
