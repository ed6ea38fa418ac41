package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "CARTOLA_"
	EnvFile   = "CARTOLA_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CARTOLA_CONFIG is set
//  3. env (prefix CARTOLA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CARTOLA_CACHE_TTL_SECONDS -> cache_ttl_seconds (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvFile {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.CacheTTLSeconds < 1 || c.CacheTTLSeconds > 3600:
		return invalid("cache_ttl_seconds must be within 1..3600, got %d", c.CacheTTLSeconds)
	case c.UpstreamTimeoutMS <= 0:
		return invalid("upstream_timeout_ms must be positive")
	case c.UpstreamMaxRetries < 0:
		return invalid("upstream_max_retries must not be negative")
	case c.UpstreamBackoffMS < 0:
		return invalid("upstream_backoff_ms must not be negative")
	case c.UpstreamRPS < 0:
		return invalid("upstream_rps must not be negative")
	case c.BreakerFailures <= 0 || c.BreakerOpenSeconds <= 0:
		return invalid("breaker_failures and breaker_open_seconds must be positive")
	case c.ValorizationSamples <= 0:
		return invalid("valorization_samples must be positive")
	case c.MaxRankingLimit <= 0:
		return invalid("max_ranking_limit must be positive")
	case c.NotifyWorkers < 0:
		return invalid("notify_workers must not be negative")
	case c.NotifyWorkers > 0 && c.NotifyQueueSize <= 0:
		return invalid("notify_queue_size must be positive when notify_workers is set")
	case c.TelegramToken != "" && c.TelegramChatID == 0:
		return invalid("telegram_chat_id is required with telegram_token")
	}
	for _, code := range c.UpstreamRetryStatuses {
		if code < 100 || code > 599 {
			return invalid("upstream_retry_statuses has invalid code %d", code)
		}
	}
	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("upstream_base_url %q is not an absolute URL", c.UpstreamBaseURL)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
