package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchgate configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Search  SearchConfig  `yaml:"search"`
	Journal JournalConfig `yaml:"journal"`
	Stream  StreamConfig  `yaml:"stream"`
	Auth    AuthConfig    `yaml:"auth"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Engine auth modes.
const (
	AuthNone  = "none"
	AuthBasic = "basic"
	AuthAWS   = "aws"
)

// EngineConfig holds search engine connection and indexing settings.
type EngineConfig struct {
	Endpoint         string           `yaml:"endpoint"`
	Auth             EngineAuthConfig `yaml:"auth"`
	IndexPrefix      string           `yaml:"index_prefix"`
	BatchSize        int              `yaml:"batch_size"`
	MaxConcurrency   int              `yaml:"max_concurrency"`
	TLS              TLSConfig        `yaml:"tls"`
	ReadinessTimeout int              `yaml:"readiness_timeout_sec"`
}

// EngineAuthConfig selects how requests to the engine are authenticated.
type EngineAuthConfig struct {
	Type     string `yaml:"type"` // none, basic, aws (default: none)
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Region   string `yaml:"region"`
	Service  string `yaml:"service"` // SigV4 service name (default: es)
}

// TLSConfig holds engine TLS settings.
type TLSConfig struct {
	// VerifyHostname is a pointer so an absent key defaults to true.
	VerifyHostname *bool  `yaml:"verify_hostname"`
	CAFile         string `yaml:"ca_file"`
}

// Verify reports whether server certificates are verified.
func (t TLSConfig) Verify() bool {
	return t.VerifyHostname == nil || *t.VerifyHostname
}

// SearchConfig holds query policy and pagination settings.
type SearchConfig struct {
	ExcludedKind    string        `yaml:"excluded_kind"`
	KeywordSuffix   string        `yaml:"keyword_suffix"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	MaxResultWindow int           `yaml:"max_result_window"`
	Facets          []FacetConfig `yaml:"facets"`
}

// FacetConfig describes one terms aggregation returned with search results.
type FacetConfig struct {
	Name    string `yaml:"name"`
	Field   string `yaml:"field"`
	Size    int    `yaml:"size"`
	Missing string `yaml:"missing"`
}

// JournalConfig holds document journal (Redis/Valkey) settings.
type JournalConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Addrs      []string `yaml:"addrs"`
	Password   string   `yaml:"password"`
	KeyPrefix  string   `yaml:"key_prefix"`
	Standalone bool     `yaml:"standalone"` // skip cluster discovery
}

// StreamConfig holds Redis Streams ingestion settings.
type StreamConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StreamKey string `yaml:"stream_key"`
	Group     string `yaml:"group"`
	Consumer  string `yaml:"consumer"`
	BlockMS   int    `yaml:"block_ms"`
	// ClaimIdleMS is how long an entry stays pending before redelivery.
	ClaimIdleMS int `yaml:"claim_idle_ms"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// DefaultFacets are the aggregations returned when none are configured.
func DefaultFacets() []FacetConfig {
	return []FacetConfig{
		{Name: "kinds", Field: "kind", Size: 20, Missing: "Unknown"},
		{Name: "lifecycles", Field: "lifecycle", Size: 10, Missing: "N/A"},
		{Name: "namespaces", Field: "namespace", Size: 20, Missing: "default"},
		{Name: "owners", Field: "owner", Size: 20, Missing: "N/A"},
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Engine.Auth.Type == "" {
		c.Engine.Auth.Type = AuthNone
	}
	if c.Engine.Auth.Service == "" {
		c.Engine.Auth.Service = "es"
	}
	if c.Engine.IndexPrefix == "" {
		c.Engine.IndexPrefix = "backstage"
	}
	if c.Engine.BatchSize == 0 {
		c.Engine.BatchSize = 100
	}
	if c.Engine.MaxConcurrency == 0 {
		c.Engine.MaxConcurrency = 5
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 10
	}

	if c.Search.ExcludedKind == "" {
		c.Search.ExcludedKind = "Location"
	}
	if c.Search.KeywordSuffix == "" {
		c.Search.KeywordSuffix = "keyword"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 25
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.MaxResultWindow <= 0 {
		c.Search.MaxResultWindow = 10000
	}
	if len(c.Search.Facets) == 0 {
		c.Search.Facets = DefaultFacets()
	}
	for i := range c.Search.Facets {
		if c.Search.Facets[i].Size <= 0 {
			c.Search.Facets[i].Size = 20
		}
	}

	if c.Journal.KeyPrefix == "" {
		c.Journal.KeyPrefix = "searchgate:"
	}

	if c.Stream.StreamKey == "" {
		c.Stream.StreamKey = "searchgate:documents"
	}
	if c.Stream.Group == "" {
		c.Stream.Group = "searchgate"
	}
	if c.Stream.Consumer == "" {
		if host, err := os.Hostname(); err == nil && host != "" {
			c.Stream.Consumer = host
		} else {
			c.Stream.Consumer = "searchgate"
		}
	}
	if c.Stream.BlockMS <= 0 {
		c.Stream.BlockMS = 2000
	}
	if c.Stream.ClaimIdleMS <= 0 {
		c.Stream.ClaimIdleMS = 60000
	}

	if c.Tracing.SampleRatio <= 0 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	if c.Engine.Endpoint == "" {
		return errors.New("engine.endpoint is required")
	}
	switch c.Engine.Auth.Type {
	case AuthNone:
	case AuthBasic:
		if c.Engine.Auth.Username == "" || c.Engine.Auth.Password == "" {
			return errors.New("engine.auth.username and engine.auth.password are required for basic auth")
		}
	case AuthAWS:
		if c.Engine.Auth.Region == "" {
			return errors.New("engine.auth.region is required for aws auth")
		}
	default:
		return fmt.Errorf("engine.auth.type must be one of none, basic, aws, got %q", c.Engine.Auth.Type)
	}
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("engine.batch_size must be positive, got %d", c.Engine.BatchSize)
	}
	if c.Engine.MaxConcurrency <= 0 {
		return fmt.Errorf("engine.max_concurrency must be positive, got %d", c.Engine.MaxConcurrency)
	}

	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	seen := make(map[string]bool, len(c.Search.Facets))
	for i, f := range c.Search.Facets {
		if f.Name == "" || f.Field == "" {
			return fmt.Errorf("search.facets[%d]: name and field are required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("search.facets[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
	}

	if c.Journal.Enabled && len(c.Journal.Addrs) == 0 {
		return errors.New("journal.addrs is required when the journal is enabled")
	}
	if c.Stream.Enabled && len(c.Journal.Addrs) == 0 {
		return errors.New("journal.addrs is required when stream ingestion is enabled")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within (0, 1], got %g", c.Tracing.SampleRatio)
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
