// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cartola/internal/adapters/cache"
	"github.com/okian/cartola/internal/adapters/history"
	"github.com/okian/cartola/internal/adapters/mq/worker"
	"github.com/okian/cartola/internal/adapters/notify"
	"github.com/okian/cartola/internal/adapters/upstream"
	"github.com/okian/cartola/internal/domain/lineup"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/pipeline"
	"github.com/okian/cartola/internal/domain/ranking"
	"github.com/okian/cartola/internal/domain/scoring"
	"github.com/okian/cartola/pkg/logger"
	"github.com/okian/cartola/pkg/metrics"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

const (
	snapshotKey        = "snapshot"
	outboxDrainTimeout = 10 * time.Second
	cycleTimeout       = 2 * time.Minute
)

// Service owns the fetch cycle and serves derived views of the current snapshot.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	fetcher  upstream.Fetcher
	cache    cache.PayloadCache
	history  history.Store
	notifier notify.Notifier
	lineups  *lineup.Store

	// Built on Start
	engine  *scoring.Engine
	deriver *pipeline.Deriver
	ranker  *ranking.Ranker
	watcher *notify.Watcher
	outbox  *worker.Outbox
	cron    *cron.Cron

	// Configuration
	cacheTTL        time.Duration
	samples         int
	seed            int64
	photoFormat     string
	crestSize       string
	maxRankingLimit int
	refreshSpec     string
	outboxWorkers   int
	outboxCapacity  int

	// State
	flight          singleflight.Group
	current         *pipeline.Snapshot
	projectedRound  int
	reconciledRound int
	cycles          int
	failures        int
	lastError       string
	started         bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the upstream fetcher.
func WithFetcher(f upstream.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithCache sets the payload cache.
func WithCache(c cache.PayloadCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheTTL sets the freshness window of the default memory cache.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithHistory sets the projection history store.
func WithHistory(h history.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithNotifier sets where market transitions are announced.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAsyncNotifications delivers notifications from a bounded outbox with
// the given number of workers instead of inside the fetch cycle.
func WithAsyncNotifications(workers, capacity int) Option {
	return func(s *Service) {
		if workers > 0 && capacity > 0 {
			s.outboxWorkers = workers
			s.outboxCapacity = capacity
		}
	}
}

// WithLineupStore sets the selection store.
func WithLineupStore(l *lineup.Store) Option {
	return func(s *Service) {
		if l != nil {
			s.lineups = l
		}
	}
}

// WithValorizationSamples sets the valorization sample count.
func WithValorizationSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithRandomSeed seeds the valorization random source. Zero seeds from the clock.
func WithRandomSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithPhotoFormat sets the photo resolution used in views.
func WithPhotoFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.photoFormat = format
		}
	}
}

// WithCrestSize sets the escudos key used for club crests.
func WithCrestSize(size string) Option {
	return func(s *Service) {
		if size != "" {
			s.crestSize = size
		}
	}
}

// WithMaxRankingLimit caps ranking sizes.
func WithMaxRankingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}

// WithRefreshSchedule enables a cron-driven warmer, e.g. "@every 2m".
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.refreshSpec = spec
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:        cache.DefaultTTL,
		samples:         100,
		seed:            42,
		photoFormat:     model.DefaultPhotoFormat,
		maxRankingLimit: 50,
		logger:          nil, // Will be replaced when service starts
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the derivation components and the optional warmer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting analytics service...")

	if s.fetcher == nil {
		s.fetcher = upstream.NewClient(upstream.WithLogger(s.logger.Named("upstream")))
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(s.cacheTTL)
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger.Named("notify"))
	}
	if s.lineups == nil {
		s.lineups = lineup.NewStore(lineup.WithPhotoFormat(s.photoFormat), lineup.WithLogger(s.logger.Named("lineup")))
	}

	s.engine = scoring.NewEngine(scoring.WithSeed(s.seed), scoring.WithSamples(s.samples))
	s.deriver = pipeline.NewDeriver(s.engine,
		pipeline.WithLogger(s.logger.Named("pipeline")),
		pipeline.WithCrestSize(s.crestSize),
	)
	s.ranker = ranking.NewRanker(ranking.WithPhotoFormat(s.photoFormat), ranking.WithMaxLimit(s.maxRankingLimit))
	var announcer notify.Notifier = s.notifier
	if s.outboxWorkers > 0 {
		s.outbox = worker.NewOutbox(s.notifier, s.outboxWorkers, s.outboxCapacity,
			worker.WithLogger(s.logger.Named("outbox")),
		)
		s.outbox.Start(ctx)
		announcer = s.outbox
	}
	s.watcher = notify.NewWatcher(announcer, s.logger.Named("notify"))

	if s.refreshSpec != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.refreshSpec, s.warm); err != nil {
			return fmt.Errorf("refresh schedule %q: %w", s.refreshSpec, err)
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Int("valorizationSamples", s.samples),
		logger.String("refreshSchedule", s.refreshSpec),
	)
	return nil
}

// Stop gracefully shuts down the service. A refresh already in flight is
// allowed to finish before the stores are closed.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	sched, outbox := s.cron, s.outbox
	s.cron, s.outbox = nil, nil
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping analytics service...")

	// The running job publishes under s.mu, so wait without holding it.
	if sched != nil {
		<-sched.Stop().Done()
	}
	if outbox != nil {
		ctx, cancel := context.WithTimeout(context.Background(), outboxDrainTimeout)
		if err := outbox.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "notification outbox not drained", logger.Error(err))
		}
		cancel()
	}
	for _, c := range []any{s.cache, s.history} {
		if closer, ok := c.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.logger.Info(context.Background(), "analytics service stopped")
}

func (s *Service) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "scheduled refresh failed", logger.Error(err))
	}
}

// Snapshot returns the snapshot of the cached payload, fetching a new payload
// when the cache is stale. A failed fetch yields ErrUnavailable and no data.
func (s *Service) Snapshot(ctx context.Context) (*pipeline.Snapshot, error) {
	return s.cycle(ctx, false)
}

// Refresh drops the cached payload and runs a new fetch cycle.
func (s *Service) Refresh(ctx context.Context) (*pipeline.Snapshot, error) {
	return s.cycle(ctx, true)
}

// cycle shares one load between concurrent callers. The load runs detached
// from any single caller, so a caller that goes away only stops waiting.
func (s *Service) cycle(ctx context.Context, force bool) (*pipeline.Snapshot, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	ch := s.flight.DoChan(snapshotKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cycleTimeout)
		defer cancel()
		return s.load(lctx, force)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pipeline.Snapshot), nil
	}
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) load(ctx context.Context, force bool) (*pipeline.Snapshot, error) {
	if !force {
		payload, ok, err := s.cache.Get(ctx)
		if err != nil {
			metrics.RecordErrorByComponent("cache", "get")
			s.logger.Warn(ctx, "payload cache read failed", logger.Error(err))
		}
		if ok {
			if snap := s.currentFor(payload); snap != nil {
				return snap, nil
			}
			return s.install(ctx, payload), nil
		}
	}

	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RecordCycle("unavailable")
		s.mu.Lock()
		s.current = nil
		s.failures++
		s.lastError = err.Error()
		s.mu.Unlock()
		s.logger.Error(ctx, "fetch cycle failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := s.cache.Set(ctx, payload); err != nil {
		metrics.RecordErrorByComponent("cache", "set")
		s.logger.Warn(ctx, "payload cache write failed", logger.Error(err))
	}
	return s.install(ctx, payload), nil
}

// currentFor returns the current snapshot when it was derived from payload.
func (s *Service) currentFor(payload model.Payload) *pipeline.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil && s.current.FetchedAt.Equal(payload.FetchedAt) {
		return s.current
	}
	return nil
}

func (s *Service) install(ctx context.Context, payload model.Payload) *pipeline.Snapshot {
	snap := s.deriver.Derive(ctx, payload)
	metrics.RecordCycle("ok")

	s.mu.Lock()
	s.current = snap
	s.cycles++
	s.lastError = ""
	s.mu.Unlock()

	s.watcher.Observe(ctx, snap.Market)
	s.track(ctx, snap)
	return snap
}

// track records projections for the open round and reconciles the previous
// one, whose points are the last round points of the open market.
func (s *Service) track(ctx context.Context, snap *pipeline.Snapshot) {
	if !snap.Market.Open || snap.Round <= 0 {
		return
	}
	s.mu.Lock()
	project := s.projectedRound < snap.Round
	reconcile := snap.Round > 1 && s.reconciledRound < snap.Round-1
	s.mu.Unlock()

	if project {
		var ps []history.Projection
		for _, a := range snap.Athletes {
			if a.IsProbable() {
				ps = append(ps, history.Projection{AthleteID: a.ID, Nickname: a.Nickname, Projected: a.AveragePoints})
			}
		}
		if err := s.history.RecordProjections(ctx, snap.Round, ps); err != nil {
			s.logger.Warn(ctx, "recording projections failed", logger.Error(err))
		} else {
			s.mu.Lock()
			s.projectedRound = snap.Round
			s.mu.Unlock()
		}
	}
	if reconcile {
		points := make(map[int]float64, len(snap.Athletes))
		for _, a := range snap.Athletes {
			points[a.ID] = a.LastRoundPoints
		}
		if err := s.history.RecordResults(ctx, snap.Round-1, points); err != nil {
			s.logger.Warn(ctx, "recording results failed", logger.Error(err))
		} else {
			s.mu.Lock()
			s.reconciledRound = snap.Round - 1
			s.mu.Unlock()
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"cycles":              s.cycles,
		"failures":            s.failures,
		"cacheTTLSeconds":     int(s.cacheTTL / time.Second),
		"valorizationSamples": s.samples,
		"refreshSchedule":     s.refreshSpec,
	}
	if s.outbox != nil {
		stats["notificationBacklog"] = s.outbox.Backlog()
	}
	if s.lastError != "" {
		stats["lastError"] = s.lastError
	}
	if s.current != nil {
		stats["snapshotID"] = s.current.ID
		stats["fetchedAt"] = s.current.FetchedAt
		stats["athletes"] = len(s.current.Athletes)
		stats["skipped"] = s.current.SkippedCount()
		stats["marketOpen"] = s.current.Market.Open
		stats["round"] = s.current.Round
	}
	return stats
}

// IsUnavailable reports whether err comes from a failed fetch cycle.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
