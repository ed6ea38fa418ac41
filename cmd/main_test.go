package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/cartola/internal/config"
	"github.com/okian/cartola/internal/mockmarket"
	"github.com/okian/cartola/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.UpstreamBaseURL = baseURL
	cfg.UpstreamMaxRetries = 0
	cfg.UpstreamRPS = 100
	return cfg
}

func TestBuild(t *testing.T) {
	convey.Convey("Given a mock Cartola upstream", t, func() {
		mc := mockmarket.DefaultConfig()
		mc.Clubs = 4
		upstreamSrv := httptest.NewServer(mockmarket.NewServer(mc, nil).Handler())
		defer upstreamSrv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		convey.Convey("When the application is built with defaults", func() {
			a, err := build(ctx, testConfig(upstreamSrv.URL), logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(a.svc.Start(ctx), convey.ShouldBeNil)
			defer a.close()

			convey.Convey("Then the API serves the upstream market", func() {
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/market", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"label":"open"`)
			})

			convey.Convey("Then the docs, landing page and agent endpoint are mounted", func() {
				for _, path := range []string{"/api-docs", "/openapi.yaml", "/", "/dashboard"} {
					rec := httptest.NewRecorder()
					a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}

				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
				convey.So(rec.Code, convey.ShouldNotEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When the agent endpoint is disabled", func() {
			cfg := testConfig(upstreamSrv.URL)
			cfg.MCPEnabled = false
			a, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then /mcp is not routed", func() {
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When the redis url is malformed", func() {
			cfg := testConfig(upstreamSrv.URL)
			cfg.RedisURL = "not a url"
			a, err := build(ctx, cfg, logger.Nop())

			convey.Convey("Then building fails before serving", func() {
				convey.So(a, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "redis cache")
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		a, err := build(ctx, testConfig("http://127.0.0.1:1"), logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then they update and stop with the context", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateBreakerMetrics(a.client) }, convey.ShouldNotPanic)
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startBreakerMetricsUpdater(ctx, a.client) }, convey.ShouldNotPanic)
		})
	})
}
