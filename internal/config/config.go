// Package config loads and validates job parser configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/jobparser/internal/fetcher/static"
)

// DefaultUserAgent is the desktop Chrome user agent sent when none is configured.
const DefaultUserAgent = static.DefaultUserAgent

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Render  RenderConfig  `mapstructure:"render"`
	Extract ExtractConfig `mapstructure:"extract"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	BatchWorkers          int `mapstructure:"batch_workers"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig configures the static content fetcher.
type FetchConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	UserAgent       string `mapstructure:"user_agent"`
	MinContentChars int    `mapstructure:"min_content_chars"`
	// PerHostRPS paces outbound requests per host; zero disables pacing.
	PerHostRPS   float64 `mapstructure:"per_host_rps"`
	PerHostBurst int     `mapstructure:"per_host_burst"`
}

// RenderConfig configures the headless render queue.
type RenderConfig struct {
	Enabled                bool     `mapstructure:"enabled"`
	MaxConcurrentInstances int      `mapstructure:"max_concurrent_instances"`
	QueueTimeoutSeconds    int      `mapstructure:"queue_timeout_seconds"`
	RequestTimeoutSeconds  int      `mapstructure:"request_timeout_seconds"`
	DefaultWaitSeconds     int      `mapstructure:"default_wait_seconds"`
	ShutdownGraceSeconds   int      `mapstructure:"shutdown_grace_seconds"`
	SettleMillis           int      `mapstructure:"settle_millis"`
	NoSandbox              bool     `mapstructure:"no_sandbox"`
	BrowserPaths           []string `mapstructure:"browser_paths"`
	JSHeavyDomains         []string `mapstructure:"js_heavy_domains"`
	PromotionThreshold     int      `mapstructure:"promotion_threshold"`
}

// ExtractConfig tunes the site extractors.
type ExtractConfig struct {
	MinElementCount int  `mapstructure:"min_element_count"`
	GenericFallback bool `mapstructure:"generic_fallback"`
}

// StorageConfig selects where failure snapshots are archived.
type StorageConfig struct {
	SnapshotBackend string `mapstructure:"snapshot_backend"`
	LocalDir        string `mapstructure:"local_dir"`
	GCSBucket       string `mapstructure:"gcs_bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// CacheConfig selects the parse result cache.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
	MaxEntries    int    `mapstructure:"max_entries"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("server.port", "JOBPARSER_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("server.batch_workers", 4)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.min_content_chars", 100)
	v.SetDefault("fetch.per_host_rps", 2.0)
	v.SetDefault("fetch.per_host_burst", 4)
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.max_concurrent_instances", 3)
	v.SetDefault("render.queue_timeout_seconds", 60)
	v.SetDefault("render.request_timeout_seconds", 30)
	v.SetDefault("render.default_wait_seconds", 5)
	v.SetDefault("render.shutdown_grace_seconds", 10)
	v.SetDefault("render.settle_millis", 1000)
	v.SetDefault("render.no_sandbox", false)
	v.SetDefault("render.browser_paths", []string{})
	v.SetDefault("render.js_heavy_domains", []string{})
	v.SetDefault("render.promotion_threshold", 2048)
	v.SetDefault("extract.min_element_count", 50)
	v.SetDefault("extract.generic_fallback", true)
	v.SetDefault("storage.snapshot_backend", "none")
	v.SetDefault("storage.local_dir", "")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "snapshots")
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.PerHostRPS < 0 {
		return fmt.Errorf("fetch.per_host_rps must be >= 0")
	}
	if c.Render.Enabled {
		if c.Render.MaxConcurrentInstances <= 0 {
			return fmt.Errorf("render.max_concurrent_instances must be > 0 when rendering is enabled")
		}
		if c.Render.QueueTimeoutSeconds <= 0 || c.Render.RequestTimeoutSeconds <= 0 {
			return fmt.Errorf("render queue and request timeouts must be > 0 when rendering is enabled")
		}
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.SnapshotBackend {
	case "", "none", "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local snapshot backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs snapshot backend")
		}
	default:
		return fmt.Errorf("unknown storage.snapshot_backend %q", c.Storage.SnapshotBackend)
	}
	switch c.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr must be set for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be >= 0")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0")
	}
	return nil
}

// FetchTimeout is the per-call fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return seconds(c.Fetch.TimeoutSeconds)
}

// RequestTimeout bounds one HTTP request to the service.
func (c Config) RequestTimeout() time.Duration {
	return seconds(c.Server.RequestTimeoutSeconds)
}

// RenderBudget is the longest a caller can wait on the render queue.
func (c Config) RenderBudget() time.Duration {
	return seconds(c.Render.QueueTimeoutSeconds + c.Render.RequestTimeoutSeconds)
}

// CacheTTL is how long successful results stay cached.
func (c Config) CacheTTL() time.Duration {
	return seconds(c.Cache.TTLSeconds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
