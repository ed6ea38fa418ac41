package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/cartola/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.UpstreamMaxRetries, convey.ShouldEqual, 5)
				convey.So(cfg.RedisURL, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CARTOLA_ADDR", ":8080")
			_ = os.Setenv("CARTOLA_CACHE_TTL_SECONDS", "120")
			_ = os.Setenv("CARTOLA_UPSTREAM_BASE_URL", "http://localhost:9090")
			_ = os.Setenv("CARTOLA_UPSTREAM_RETRY_STATUSES", "500,503")
			_ = os.Setenv("CARTOLA_RANDOM_SEED", "7")
			_ = os.Setenv("CARTOLA_MCP_ENABLED", "false")
			_ = os.Setenv("CARTOLA_REFRESH_CRON", "@every 2m")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.UpstreamBaseURL, convey.ShouldEqual, "http://localhost:9090")
				convey.So(cfg.UpstreamRetryStatuses, convey.ShouldResemble, []int{500, 503})
				convey.So(cfg.RandomSeed, convey.ShouldEqual, int64(7))
				convey.So(cfg.MCPEnabled, convey.ShouldBeFalse)
				convey.So(cfg.RefreshCron, convey.ShouldEqual, "@every 2m")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9091"
cache_ttl_seconds: 30
valorization_samples: 500
photo_format: "220x220"
upstream_retry_statuses: [502, 504]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CARTOLA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9091")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.ValorizationSamples, convey.ShouldEqual, 500)
				convey.So(cfg.PhotoFormat, convey.ShouldEqual, "220x220")
				convey.So(cfg.UpstreamRetryStatuses, convey.ShouldResemble, []int{502, 504})
				convey.So(cfg.CrestSize, convey.ShouldEqual, "60x60")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9091\"\ncache_ttl_seconds: 30\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CARTOLA_CONFIG", tmpFile)
			_ = os.Setenv("CARTOLA_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CARTOLA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CARTOLA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CARTOLA_CACHE_TTL_SECONDS", "not_a_number")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given configs outside their ranges", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero cache ttl", func(c *config.Config) { c.CacheTTLSeconds = 0 }},
			{"huge cache ttl", func(c *config.Config) { c.CacheTTLSeconds = 3601 }},
			{"zero timeout", func(c *config.Config) { c.UpstreamTimeoutMS = 0 }},
			{"negative retries", func(c *config.Config) { c.UpstreamMaxRetries = -1 }},
			{"zero samples", func(c *config.Config) { c.ValorizationSamples = 0 }},
			{"bad retry status", func(c *config.Config) { c.UpstreamRetryStatuses = []int{42} }},
			{"relative base url", func(c *config.Config) { c.UpstreamBaseURL = "api.cartola" }},
			{"token without chat", func(c *config.Config) { c.TelegramToken = "t" }},
			{"zero breaker", func(c *config.Config) { c.BreakerFailures = 0 }},
			{"zero ranking limit", func(c *config.Config) { c.MaxRankingLimit = 0 }},
			{"negative rate limit", func(c *config.Config) { c.UpstreamRPS = -1 }},
			{"negative notify workers", func(c *config.Config) { c.NotifyWorkers = -1 }},
			{"workers without queue", func(c *config.Config) { c.NotifyQueueSize = 0 }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the cache ttl is at its bounds", func() {
			cfg := config.New()
			cfg.CacheTTLSeconds = 3600

			convey.Convey("Then it is accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "cartola-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	_ = tmpFile.Close()
	return tmpFile.Name()
}
