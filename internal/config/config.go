// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Brave   BraveConfig   `mapstructure:"brave"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SearchConfig governs the orchestration gate and result caching.
type SearchConfig struct {
	MaxConcurrent   int     `mapstructure:"max_concurrent"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	UserAgent       string  `mapstructure:"user_agent"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffBaseMs  int `mapstructure:"backoff_base_ms"`
}

// ProxyConfig controls proxy pool verification.
type ProxyConfig struct {
	VerifyTimeoutSeconds int      `mapstructure:"verify_timeout_seconds"`
	ProbeURL             string   `mapstructure:"probe_url"`
	Endpoints            []string `mapstructure:"endpoints"`
}

// BraveConfig holds credentials for the Brave Search API provider.
type BraveConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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
	v.SetDefault("search.max_concurrent", 5)
	v.SetDefault("search.rate_limit", 10.0)
	v.SetDefault("search.cache_ttl_seconds", 3600)
	v.SetDefault("search.user_agent", "fast-web-search")
	v.SetDefault("http.timeout_seconds", 5)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("proxy.verify_timeout_seconds", 5)
	v.SetDefault("proxy.probe_url", "https://www.google.com")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Search.MaxConcurrent <= 0 {
		return fmt.Errorf("search.max_concurrent must be > 0")
	}
	if c.Search.RateLimit <= 0 {
		return fmt.Errorf("search.rate_limit must be > 0")
	}
	if c.Search.CacheTTLSeconds < 0 {
		return fmt.Errorf("search.cache_ttl_seconds must be >= 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Proxy.VerifyTimeoutSeconds <= 0 {
		return fmt.Errorf("proxy.verify_timeout_seconds must be > 0")
	}
	return nil
}

// CacheTTL returns the content cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-request transport timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry backoff delay.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}

// VerifyTimeout returns the proxy liveness probe timeout.
func (c Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Proxy.VerifyTimeoutSeconds) * time.Second
}
