package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
search:
  max_concurrent: 8
  rate_limit: 25
  cache_ttl_seconds: 120
  user_agent: custom-agent
http:
  timeout_seconds: 10
  max_retries: 5
  backoff_base_ms: 250
proxy:
  verify_timeout_seconds: 3
  probe_url: https://probe.example.com
  endpoints:
    - http://10.0.0.1:8080
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
	if cfg.Search.MaxConcurrent != 8 || cfg.Search.RateLimit != 25 {
		t.Fatalf("expected search overrides to apply, got %+v", cfg.Search)
	}
	if cfg.Search.UserAgent != "custom-agent" {
		t.Fatalf("expected custom user agent, got %q", cfg.Search.UserAgent)
	}
	if cfg.HTTP.MaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.HTTP.MaxRetries)
	}
	if len(cfg.Proxy.Endpoints) != 1 {
		t.Fatalf("expected one proxy endpoint, got %v", cfg.Proxy.Endpoints)
	}
	if cfg.Logging.Development {
		t.Fatal("expected development logging disabled")
	}
	if cfg.CacheTTL() != 120*time.Second {
		t.Fatalf("expected 120s cache ttl, got %v", cfg.CacheTTL())
	}
	if cfg.BackoffBase() != 250*time.Millisecond {
		t.Fatalf("expected 250ms backoff base, got %v", cfg.BackoffBase())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Search.MaxConcurrent != 5 {
		t.Fatalf("expected default max_concurrent 5, got %d", cfg.Search.MaxConcurrent)
	}
	if cfg.Search.RateLimit != 10 {
		t.Fatalf("expected default rate_limit 10, got %v", cfg.Search.RateLimit)
	}
	if cfg.Search.UserAgent != "fast-web-search" {
		t.Fatalf("unexpected default user agent %q", cfg.Search.UserAgent)
	}
	if cfg.FetchTimeout() != 5*time.Second {
		t.Fatalf("expected 5s fetch timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.VerifyTimeout() != 5*time.Second {
		t.Fatalf("expected 5s verify timeout, got %v", cfg.VerifyTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Search.MaxConcurrent = 0 }},
		{"zero rate limit", func(c *Config) { c.Search.RateLimit = 0 }},
		{"negative cache ttl", func(c *Config) { c.Search.CacheTTLSeconds = -1 }},
		{"zero retries", func(c *Config) { c.HTTP.MaxRetries = 0 }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"zero verify timeout", func(c *Config) { c.Proxy.VerifyTimeoutSeconds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
