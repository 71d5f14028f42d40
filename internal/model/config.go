package model

import (
	"fmt"
	"time"
)

// DateLayout is the dd-mm-yyyy layout the API expects for its datum parameter
const DateLayout = "02-01-2006"

// Environments
const (
	EnvProd = "prod"
	EnvPre  = "pre"
)

// Config holds all runtime configuration
type Config struct {
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Run          RunConfig          `yaml:"run" mapstructure:"run"`
	RateLimiting RateLimitingConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// APIConfig selects the environment and credentials
type APIConfig struct {
	Env     string `yaml:"env" mapstructure:"env"`         // prod or pre
	Key     string `yaml:"key,omitempty" mapstructure:"key"` // API key (prefer RTR_API_KEY)
	KeyDir  string `yaml:"key_dir" mapstructure:"key_dir"` // Directory holding <env>_API_key.txt
	Accept  string `yaml:"accept" mapstructure:"accept"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"` // Overrides the env-derived base URL
}

// HTTPConfig configures the transport
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RunConfig holds the per-run parameters
type RunConfig struct {
	Date             string `yaml:"date,omitempty" mapstructure:"date"` // dd-mm-yyyy, defaults to today
	ArchiveDocuments bool   `yaml:"archive_documents" mapstructure:"archive_documents"`
	TrackLocations   bool   `yaml:"track_locations" mapstructure:"track_locations"`
	Catalog          string `yaml:"catalog" mapstructure:"catalog"`
}

// RateLimitingConfig paces outgoing requests
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig controls in-run response memoization
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig controls where results are written
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	LogDir      string `yaml:"log_dir" mapstructure:"log_dir"`
	DocumentDir string `yaml:"document_dir" mapstructure:"document_dir"` // Relative to log_dir
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Env:    EnvProd,
			KeyDir: ".",
			Accept: "application/hal+json, application/xml",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "rtrarchive/0.1",
			MaxBodyBytes: 20_000_000,
		},
		Run: RunConfig{
			Catalog: "activities.yaml",
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     6 * time.Hour,
		},
		Output: OutputConfig{
			Dir:         "output",
			LogDir:      "log",
			DocumentDir: "STTR_RegelBeheerObjecten",
			Sheet:       "RTR",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
	}
}

// Validate checks run parameters that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.API.Env != EnvProd && c.API.Env != EnvPre {
		return fmt.Errorf("api.env must be %q or %q, got %q", EnvProd, EnvPre, c.API.Env)
	}
	if _, err := time.Parse(DateLayout, c.Run.Date); err != nil {
		return fmt.Errorf("run.date must be dd-mm-yyyy, got %q", c.Run.Date)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	return nil
}

// BaseURL returns the API base URL for the configured environment
func (c *Config) BaseURL() string {
	if c.API.BaseURL != "" {
		return c.API.BaseURL
	}
	return BaseURLForEnv(c.API.Env)
}

// BaseURLForEnv composes the base URL for prod or a pre-production host
func BaseURLForEnv(env string) string {
	suffix := ""
	if env != EnvProd {
		suffix = ".pre"
	}
	return fmt.Sprintf("https://service%s.omgevingswet.overheid.nl/publiek/toepasbare-regels/api", suffix)
}
