package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cartola/internal/adapters/cache"
	"github.com/okian/cartola/internal/adapters/history"
	"github.com/okian/cartola/internal/adapters/http/api"
	"github.com/okian/cartola/internal/adapters/http/site"
	"github.com/okian/cartola/internal/adapters/http/swagger"
	"github.com/okian/cartola/internal/adapters/mcptools"
	"github.com/okian/cartola/internal/adapters/notify"
	"github.com/okian/cartola/internal/adapters/upstream"
	app "github.com/okian/cartola/internal/app"
	"github.com/okian/cartola/internal/config"
	"github.com/okian/cartola/pkg/logger"
	"github.com/okian/cartola/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	breakerMetricsInterval    = 5 * time.Second
	maxBackoff                = 16 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var version = "dev"

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build application", logger.Error(err))
		return
	}
	defer a.close()

	if err := a.svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)
	go startBreakerMetricsUpdater(ctx, a.client)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// application holds the wired components of one process.
type application struct {
	svc     *app.Service
	client  *upstream.Client
	handler http.Handler
}

// close stops the service, which also closes the cache and history stores.
func (a *application) close() {
	a.svc.Stop()
}

// build wires the collaborators selected by cfg. Optional backends are
// dialed here so a bad DSN fails the process before it starts serving.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	client := upstream.NewClient(
		upstream.WithBaseURL(cfg.UpstreamBaseURL),
		upstream.WithTimeout(cfg.UpstreamTimeout()),
		upstream.WithMaxRetries(cfg.UpstreamMaxRetries),
		upstream.WithBackoff(cfg.UpstreamBackoff(), maxBackoff),
		upstream.WithRetryStatuses(cfg.UpstreamRetryStatuses...),
		upstream.WithRateLimit(cfg.UpstreamRPS, 1),
		upstream.WithBreaker(uint32(cfg.BreakerFailures), cfg.BreakerOpen()), //nolint:gosec // validated positive
		upstream.WithLogger(log.Named("upstream")),
	)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithFetcher(client),
		app.WithCacheTTL(cfg.CacheTTL()),
		app.WithValorizationSamples(cfg.ValorizationSamples),
		app.WithRandomSeed(cfg.RandomSeed),
		app.WithPhotoFormat(cfg.PhotoFormat),
		app.WithCrestSize(cfg.CrestSize),
		app.WithMaxRankingLimit(cfg.MaxRankingLimit),
		app.WithRefreshSchedule(cfg.RefreshCron),
		app.WithAsyncNotifications(cfg.NotifyWorkers, cfg.NotifyQueueSize),
	}

	if cfg.RedisURL != "" {
		rc, err := cache.DialRedis(ctx, cfg.RedisURL, cfg.CacheTTL())
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		opts = append(opts, app.WithCache(rc))
		log.Info(ctx, "using redis payload cache")
	}

	if cfg.PostgresDSN != "" {
		store, err := history.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		opts = append(opts, app.WithHistory(store))
		log.Info(ctx, "using postgres projection history")
	}

	if cfg.TelegramToken != "" {
		tn, err := notify.DialTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		opts = append(opts, app.WithNotifier(tn))
		log.Info(ctx, "market notifications go to telegram", logger.Any("chat_id", cfg.TelegramChatID))
	}

	svc := app.New(opts...)

	mux := http.NewServeMux()
	api.NewServer(svc, api.WithLogger(log.Named("http"))).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	if cfg.MCPEnabled {
		mux.Handle("/mcp", mcptools.New(svc, version).Handler())
	}

	return &application{svc: svc, client: client, handler: mux}, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startBreakerMetricsUpdater polls the upstream breakers. Reading the state
// moves an expired open breaker to half-open, which publishes the change.
func startBreakerMetricsUpdater(ctx context.Context, client *upstream.Client) {
	ticker := time.NewTicker(breakerMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateBreakerMetrics(client)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateBreakerMetrics(client *upstream.Client) {
	for _, endpoint := range []string{upstream.EndpointMarket, upstream.EndpointMatches, upstream.EndpointStatus} {
		metrics.UpdateBreakerState(endpoint, int(client.BreakerState(endpoint)))
	}
}
