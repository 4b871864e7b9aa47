package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/storefront/internal/domain"
)

// Config holds the storefront configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Algolia      AlgoliaConfig      `yaml:"algolia"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Cache        CacheConfig        `yaml:"cache"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  string `yaml:"file"`  // terminal client log destination
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"` // websocket origins; empty = same host only
}

// DatabaseConfig holds Redis connection settings. Without addrs the service
// keeps history in memory and disables the response cache.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AlgoliaConfig holds hosted search credentials and index layout.
type AlgoliaConfig struct {
	AppID             string   `yaml:"app_id"`
	APIKey            string   `yaml:"api_key"`
	ProductsIndex     string   `yaml:"products_index"`
	SuggestionsIndex  string   `yaml:"suggestions_index"`
	MerchIndex        string   `yaml:"merch_index"`
	MerchQuery        string   `yaml:"merch_query"`
	CategoryAttribute string   `yaml:"category_attribute"`
	Facets            []string `yaml:"facets"`
	HitsPerPage       int      `yaml:"hits_per_page"`
	TimeoutSec        int      `yaml:"timeout_sec"`
}

// AutocompleteConfig holds panel behaviour settings.
type AutocompleteConfig struct {
	DebounceMs   int    `yaml:"debounce_ms"`
	PoolSize     int    `yaml:"pool_size"`
	HistoryKey   string `yaml:"history_key"`
	HistoryLimit int    `yaml:"history_limit"`
	HistoryTTL   int    `yaml:"history_ttl_hours"` // 0 = keep forever
}

// CacheConfig holds search response cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// Debounce returns the commit debounce window.
func (c AutocompleteConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Catalog converts the index layout to its domain form.
func (c AlgoliaConfig) Catalog() domain.CatalogConfig {
	return domain.CatalogConfig{
		ProductsIndex:     c.ProductsIndex,
		SuggestionsIndex:  c.SuggestionsIndex,
		MerchIndex:        c.MerchIndex,
		MerchQuery:        c.MerchQuery,
		CategoryAttribute: c.CategoryAttribute,
		Facets:            c.Facets,
		HitsPerPage:       c.HitsPerPage,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	def := domain.DefaultCatalogConfig()
	if c.Algolia.ProductsIndex == "" {
		c.Algolia.ProductsIndex = def.ProductsIndex
	}
	if c.Algolia.SuggestionsIndex == "" {
		c.Algolia.SuggestionsIndex = def.SuggestionsIndex
	}
	if c.Algolia.MerchIndex == "" {
		c.Algolia.MerchIndex = c.Algolia.ProductsIndex
	}
	if c.Algolia.CategoryAttribute == "" {
		c.Algolia.CategoryAttribute = def.CategoryAttribute
	}
	if len(c.Algolia.Facets) == 0 {
		c.Algolia.Facets = def.Facets
	}
	if c.Algolia.HitsPerPage <= 0 {
		c.Algolia.HitsPerPage = def.HitsPerPage
	}
	if c.Algolia.TimeoutSec <= 0 {
		c.Algolia.TimeoutSec = 5
	}

	if c.Autocomplete.DebounceMs <= 0 {
		c.Autocomplete.DebounceMs = 500
	}
	if c.Autocomplete.PoolSize <= 0 {
		c.Autocomplete.PoolSize = 256
	}
	if c.Autocomplete.HistoryKey == "" {
		c.Autocomplete.HistoryKey = domain.HistoryKey
	}
	if c.Autocomplete.HistoryLimit <= 0 {
		c.Autocomplete.HistoryLimit = domain.HistoryLimit
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Algolia.AppID == "" {
		return fmt.Errorf("algolia.app_id is required")
	}
	if c.Algolia.APIKey == "" {
		return fmt.Errorf("algolia.api_key is required")
	}
	if c.Cache.Enabled && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("cache.enabled requires database.addrs")
	}
	if c.Autocomplete.HistoryLimit > 50 {
		return fmt.Errorf("autocomplete.history_limit must be at most 50, got %d", c.Autocomplete.HistoryLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
