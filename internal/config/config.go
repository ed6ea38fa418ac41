// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - Durations are expressed in explicit units (ms, seconds) to keep env vars flat.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Upstream market API.
	UpstreamBaseURL       string  `koanf:"upstream_base_url"`
	UpstreamTimeoutMS     int     `koanf:"upstream_timeout_ms"`
	UpstreamMaxRetries    int     `koanf:"upstream_max_retries"`
	UpstreamBackoffMS     int     `koanf:"upstream_backoff_ms"`
	UpstreamRetryStatuses []int   `koanf:"upstream_retry_statuses"`
	UpstreamRPS           float64 `koanf:"upstream_rps"`

	// BreakerFailures consecutive failures open an endpoint's breaker for
	// BreakerOpenSeconds.
	BreakerFailures    int `koanf:"breaker_failures"`
	BreakerOpenSeconds int `koanf:"breaker_open_seconds"`

	// CacheTTLSeconds is the payload freshness window.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RedisURL enables the shared payload cache, e.g. redis://localhost:6379/0.
	RedisURL string `koanf:"redis_url"`

	// RefreshCron enables the background warmer, e.g. "@every 2m".
	RefreshCron string `koanf:"refresh_cron"`

	// ValorizationSamples is the sample count of the valorization estimate.
	ValorizationSamples int `koanf:"valorization_samples"`

	// RandomSeed seeds the valorization estimate; 0 seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`

	// PhotoFormat and CrestSize select image resolutions.
	PhotoFormat string `koanf:"photo_format"`
	CrestSize   string `koanf:"crest_size"`

	// PostgresDSN enables persistent projection history.
	PostgresDSN string `koanf:"postgres_dsn"`

	// TelegramToken and TelegramChatID enable market notifications.
	TelegramToken  string `koanf:"telegram_token"`
	TelegramChatID int64  `koanf:"telegram_chat_id"`

	// NotifyWorkers deliver notifications from a queue of NotifyQueueSize;
	// 0 delivers inside the fetch cycle.
	NotifyWorkers   int `koanf:"notify_workers"`
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// MaxRankingLimit caps GET /rankings/{board}?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// MCPEnabled mounts the agent tool endpoint on /mcp.
	MCPEnabled bool `koanf:"mcp_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		UpstreamBaseURL:       "https://api.cartola.globo.com",
		UpstreamTimeoutMS:     15_000,
		UpstreamMaxRetries:    5,
		UpstreamBackoffMS:     1_000,
		UpstreamRetryStatuses: []int{429, 500, 502, 503, 504},
		UpstreamRPS:           2,
		BreakerFailures:       5,
		BreakerOpenSeconds:    30,
		CacheTTLSeconds:       60,
		ValorizationSamples:   100,
		PhotoFormat:           "140x140",
		CrestSize:             "60x60",
		NotifyWorkers:         1,
		NotifyQueueSize:       16,
		MaxRankingLimit:       50,
		MCPEnabled:            true,
	}
}

// UpstreamTimeout returns the per-request timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// UpstreamBackoff returns the base retry delay.
func (c *Config) UpstreamBackoff() time.Duration {
	return time.Duration(c.UpstreamBackoffMS) * time.Millisecond
}

// BreakerOpen returns how long a tripped breaker stays open.
func (c *Config) BreakerOpen() time.Duration {
	return time.Duration(c.BreakerOpenSeconds) * time.Second
}

// CacheTTL returns the payload freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
