package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Render.MaxConcurrentInstances != 3 || cfg.Render.QueueTimeoutSeconds != 60 {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Extract.MinElementCount != 50 || !cfg.Extract.GenericFallback {
		t.Fatalf("unexpected extract defaults: %+v", cfg.Extract)
	}
	if cfg.Fetch.PerHostRPS != 2 || cfg.Fetch.PerHostBurst != 4 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.Fetch)
	}
	if cfg.Fetch.UserAgent != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", cfg.Fetch.UserAgent)
	}
	if cfg.Cache.Backend != "none" || cfg.CacheTTL() != time.Hour || cfg.Cache.MaxEntries != 10000 {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if got := cfg.RenderBudget(); got != 90*time.Second {
		t.Fatalf("expected render budget 90s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout_seconds: 45
auth:
  enabled: true
  api_key: secret
fetch:
  timeout_seconds: 12
  user_agent: real-agent
render:
  enabled: true
  max_concurrent_instances: 5
  queue_timeout_seconds: 20
  request_timeout_seconds: 10
  js_heavy_domains: ["careers.example.com"]
extract:
  min_element_count: 25
  generic_fallback: false
storage:
  snapshot_backend: gcs
  gcs_bucket: bucket
  prefix: failures
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Render.MaxConcurrentInstances != 5 {
		t.Fatalf("expected render overrides to apply: %+v", cfg.Render)
	}
	if len(cfg.Render.JSHeavyDomains) != 1 || cfg.Render.JSHeavyDomains[0] != "careers.example.com" {
		t.Fatalf("expected js heavy domains to load: %+v", cfg.Render.JSHeavyDomains)
	}
	if cfg.Extract.GenericFallback || cfg.Extract.MinElementCount != 25 {
		t.Fatalf("expected extract overrides to apply: %+v", cfg.Extract)
	}
	if cfg.Storage.SnapshotBackend != "gcs" || cfg.Storage.GCSBucket != "bucket" {
		t.Fatalf("expected storage overrides to apply: %+v", cfg.Storage)
	}
	if got := cfg.FetchTimeout(); got != 12*time.Second {
		t.Fatalf("expected fetch timeout 12s, got %v", got)
	}
	if got := cfg.RenderBudget(); got != 30*time.Second {
		t.Fatalf("expected render budget 30s, got %v", got)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 8080, RequestTimeoutSeconds: 30},
		Fetch:  FetchConfig{TimeoutSeconds: 10},
		Render: RenderConfig{
			Enabled:                true,
			MaxConcurrentInstances: 3,
			QueueTimeoutSeconds:    60,
			RequestTimeoutSeconds:  30,
		},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid fetch timeout",
			cfg: func() Config {
				c := base
				c.Fetch.TimeoutSeconds = 0
				return c
			}(),
			want: "fetch.timeout_seconds",
		},
		{
			name: "negative rate",
			cfg: func() Config {
				c := base
				c.Fetch.PerHostRPS = -1
				return c
			}(),
			want: "fetch.per_host_rps",
		},
		{
			name: "render missing instances",
			cfg: func() Config {
				c := base
				c.Render.MaxConcurrentInstances = 0
				return c
			}(),
			want: "render.max_concurrent_instances",
		},
		{
			name: "render missing timeouts",
			cfg: func() Config {
				c := base
				c.Render.QueueTimeoutSeconds = 0
				return c
			}(),
			want: "timeouts",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
		{
			name: "gcs missing bucket",
			cfg: func() Config {
				c := base
				c.Storage.SnapshotBackend = "gcs"
				return c
			}(),
			want: "storage.gcs_bucket",
		},
		{
			name: "local missing dir",
			cfg: func() Config {
				c := base
				c.Storage.SnapshotBackend = "local"
				return c
			}(),
			want: "storage.local_dir",
		},
		{
			name: "unknown backend",
			cfg: func() Config {
				c := base
				c.Storage.SnapshotBackend = "s3"
				return c
			}(),
			want: "snapshot_backend",
		},
		{
			name: "redis cache missing addr",
			cfg: func() Config {
				c := base
				c.Cache.Backend = "redis"
				return c
			}(),
			want: "cache.redis_addr",
		},
		{
			name: "unknown cache backend",
			cfg: func() Config {
				c := base
				c.Cache.Backend = "memcached"
				return c
			}(),
			want: "cache.backend",
		},
		{
			name: "negative cache ttl",
			cfg: func() Config {
				c := base
				c.Cache.TTLSeconds = -1
				return c
			}(),
			want: "cache.ttl_seconds",
		},
		{
			name: "negative cache size",
			cfg: func() Config {
				c := base
				c.Cache.MaxEntries = -5
				return c
			}(),
			want: "cache.max_entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigValidateRenderDisabled(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server: ServerConfig{Port: 8080, RequestTimeoutSeconds: 30},
		Fetch:  FetchConfig{TimeoutSeconds: 10},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled render config to validate, got %v", err)
	}
}
