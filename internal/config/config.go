// Package config loads and saves the YAML configuration, with environment
// overrides for the API key, base URL and database path.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the persistent application configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Home    HomeConfig    `yaml:"home"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds catalog service settings
type APIConfig struct {
	Key       string        `yaml:"key,omitempty"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit time.Duration `yaml:"rate_limit"` // Minimum gap between requests
}

// StorageConfig holds the favorites database location
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig holds search screen tuning
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	PageSize int           `yaml:"page_size"`
}

// HomeConfig holds home screen tuning
type HomeConfig struct {
	RandomCount int `yaml:"random_count"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Path  string `yaml:"path,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"` // e.g. "127.0.0.1:9464"
}

// Environment variables that override the file.
const (
	EnvAPIKey   = "SPOONACULAR_API_KEY"
	EnvBaseURL  = "RECIPEAPP_BASE_URL"
	EnvDB       = "RECIPEAPP_DB"
	EnvLogLevel = "RECIPEAPP_LOG_LEVEL"
)

// Dir returns ~/.recipeapp.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recipeapp")
}

// DefaultPath returns the path to the config file
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.spoonacular.com",
			Timeout:   30 * time.Second,
			RateLimit: 250 * time.Millisecond,
		},
		Storage: StorageConfig{
			Path: filepath.Join(Dir(), "favorites.db"),
		},
		Search: SearchConfig{
			Debounce: 350 * time.Millisecond,
			PageSize: 20,
		},
		Home: HomeConfig{
			RandomCount: 15,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, then applies .env files and
// environment overrides. A missing file is not an error. An empty path
// selects DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	// .env never overrides variables already set in the environment.
	if files := existing(".env", ".env.local"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects values the app cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("api.rate_limit must not be negative, got %s", c.API.RateLimit))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Search.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("search.debounce must be positive, got %s", c.Search.Debounce))
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > 100 {
		errs = append(errs, fmt.Errorf("search.page_size must be between 1 and 100, got %d", c.Search.PageSize))
	}
	if c.Home.RandomCount < 1 || c.Home.RandomCount > 100 {
		errs = append(errs, fmt.Errorf("home.random_count must be between 1 and 100, got %d", c.Home.RandomCount))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Save writes config to path, creating its directory
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// Init writes the defaults to path unless a file exists and force is false
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	return DefaultConfig().Save(path)
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
