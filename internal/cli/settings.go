package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/spf13/viper"
)

// ErrNoAPIKey is returned when neither RTR_API_KEY nor a key file is available
var ErrNoAPIKey = errors.New("no API key configured")

// registerDefaults makes every config key known to v so that environment
// variables reach Unmarshal even without a config file
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	defaults := map[string]any{
		"api.env":                        cfg.API.Env,
		"api.key":                        cfg.API.Key,
		"api.key_dir":                    cfg.API.KeyDir,
		"api.accept":                     cfg.API.Accept,
		"api.base_url":                   cfg.API.BaseURL,
		"http.timeout":                   cfg.HTTP.Timeout,
		"http.user_agent":                cfg.HTTP.UserAgent,
		"http.max_body_bytes":            cfg.HTTP.MaxBodyBytes,
		"http.http_proxy":                cfg.HTTP.HTTPProxy,
		"http.https_proxy":               cfg.HTTP.HTTPSProxy,
		"http.no_proxy":                  cfg.HTTP.NoProxy,
		"run.date":                       cfg.Run.Date,
		"run.archive_documents":          cfg.Run.ArchiveDocuments,
		"run.track_locations":            cfg.Run.TrackLocations,
		"run.catalog":                    cfg.Run.Catalog,
		"rate_limit.requests_per_second": cfg.RateLimiting.RequestsPerSecond,
		"rate_limit.burst":               cfg.RateLimiting.BurstSize,
		"cache.enabled":                  cfg.Cache.Enabled,
		"cache.ttl":                      cfg.Cache.TTL,
		"output.dir":                     cfg.Output.Dir,
		"output.log_dir":                 cfg.Output.LogDir,
		"output.document_dir":            cfg.Output.DocumentDir,
		"output.sheet":                   cfg.Output.Sheet,
		"log.level":                      cfg.Log.Level,
		"log.format":                     cfg.Log.Format,
		"log.output":                     cfg.Log.Output,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// loadConfig resolves the configuration from defaults, config file,
// environment and bound flags. An empty run date becomes today.
func loadConfig(v *viper.Viper, now time.Time) (*model.Config, error) {
	cfg := model.DefaultConfig()
	registerDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.API.Env = strings.ToLower(strings.TrimSpace(cfg.API.Env))
	if cfg.Run.Date == "" {
		cfg.Run.Date = now.Format(model.DateLayout)
	}
	if v.GetBool("verbose") && cfg.Log.Level == model.DefaultConfig().Log.Level {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// APIKeyFile returns the key file path for env under dir
func APIKeyFile(dir, env string) string {
	return filepath.Join(dir, env+"_API_key.txt")
}

// ResolveAPIKey returns the configured key, falling back to the first line
// of <key_dir>/<env>_API_key.txt
func ResolveAPIKey(cfg *model.Config) (string, error) {
	if key := strings.TrimSpace(cfg.API.Key); key != "" {
		return key, nil
	}

	path := APIKeyFile(cfg.API.KeyDir, cfg.API.Env)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: set %s_API_KEY or create %s", ErrNoAPIKey, EnvPrefix, path)
		}
		return "", fmt.Errorf("read API key file: %w", err)
	}

	key, _, _ := strings.Cut(string(data), "\n")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoAPIKey, path)
	}
	return key, nil
}
