// Package upstream fetches the raw Cartola documents over HTTP.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/pkg/logger"
	"github.com/okian/cartola/pkg/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Endpoints of the public API.
const (
	EndpointMarket  = "atletas/mercado"
	EndpointMatches = "partidas"
	EndpointStatus  = "mercado/status"
)

// Defaults mirror the retry policy of the public dashboard.
const (
	DefaultBaseURL    = "https://api.cartola.globo.com"
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 5
	DefaultBackoff    = time.Second
	defaultMaxBackoff = 16 * time.Second
	defaultRPS        = 2
	defaultFailures   = 5
	defaultOpenFor    = 30 * time.Second
	maxBodyBytes      = 16 << 20
)

// DefaultRetryStatuses are the transient HTTP statuses.
var DefaultRetryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fetcher returns one raw payload or ErrFetchFailure.
type Fetcher interface {
	Fetch(ctx context.Context) (model.Payload, error)
}

// Client is a Fetcher over the Cartola HTTP API.
type Client struct {
	http            *http.Client
	baseURL         string
	maxRetries      int
	backoff         time.Duration
	maxBackoff      time.Duration
	retryStatuses   map[int]struct{}
	limiter         *rate.Limiter
	breakerFailures uint32
	breakerTimeout  time.Duration
	breakers        map[string]*gobreaker.CircuitBreaker
	logger          logger.Logger
	now             func() time.Time
}

// NewClient creates a client with the dashboard's retry policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:            &http.Client{Timeout: DefaultTimeout},
		baseURL:         DefaultBaseURL,
		maxRetries:      DefaultMaxRetries,
		backoff:         DefaultBackoff,
		maxBackoff:      defaultMaxBackoff,
		limiter:         rate.NewLimiter(rate.Limit(defaultRPS), 1),
		breakerFailures: defaultFailures,
		breakerTimeout:  defaultOpenFor,
		logger:          logger.Nop(),
		now:             time.Now,
	}
	WithRetryStatuses(DefaultRetryStatuses...)(c)
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	c.breakers = make(map[string]*gobreaker.CircuitBreaker, 3)
	for _, endpoint := range []string{EndpointMarket, EndpointMatches, EndpointStatus} {
		c.breakers[endpoint] = gobreaker.NewCircuitBreaker(c.breakerSettings(endpoint))
	}
	return c
}

func (c *Client) breakerSettings(endpoint string) gobreaker.Settings {
	failures := c.breakerFailures
	return gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("endpoint", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
}

// BreakerState returns the breaker state of an endpoint.
func (c *Client) BreakerState(endpoint string) gobreaker.State {
	if b, ok := c.breakers[endpoint]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}

// Fetch downloads the market, fixtures and market status documents. Market and
// fixtures are required; a failed status download leaves Status empty, which
// reads as a closed market.
func (c *Client) Fetch(ctx context.Context) (model.Payload, error) {
	var (
		p      model.Payload
		status []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, EndpointMarket, &p.Market)
	})
	g.Go(func() error {
		return c.getJSON(gctx, EndpointMatches, &p.Matches)
	})
	g.Go(func() error {
		raw, err := c.Get(gctx, EndpointStatus)
		if err != nil {
			c.logger.Warn(gctx, "market status unavailable", logger.Error(err))
			return nil
		}
		status = raw
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Payload{}, err
	}
	p.Status = status
	p.FetchedAt = c.now()
	return p, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		metrics.RecordErrorByComponent("upstream", "decode")
		return fmt.Errorf("%w: decode %s: %v", ErrFetchFailure, endpoint, err)
	}
	return nil
}

// Get downloads one endpoint through its breaker and the retry loop.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
	breaker, ok := c.breakers[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: unknown endpoint %q", ErrFetchFailure, endpoint)
	}
	out, err := breaker.Execute(func() (interface{}, error) {
		return c.retry(ctx, endpoint)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.RecordUpstreamRequest(endpoint, outcome)
		if errors.Is(err, ErrFetchFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailure, endpoint, err)
	}
	metrics.RecordUpstreamRequest(endpoint, "ok")
	return out.([]byte), nil
}

func (c *Client) retry(ctx context.Context, endpoint string) ([]byte, error) {
	url := c.baseURL + "/" + endpoint
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordUpstreamRetry(endpoint)
			if err := c.wait(ctx, c.delay(attempt)); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, err := c.do(ctx, url, endpoint)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !errors.Is(err, errTransient) || ctx.Err() != nil {
			break
		}
		c.logger.Debug(ctx, "retrying upstream request",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	c.logger.Warn(ctx, "upstream request failed",
		logger.String("endpoint", endpoint),
		logger.Error(lastErr),
	)
	return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailure, endpoint, lastErr)
}

// delay is base * 2^(attempt-1), capped.
func (c *Client) delay(attempt int) time.Duration {
	d := c.backoff << (attempt - 1)
	if d <= 0 || d > c.maxBackoff {
		return c.maxBackoff
	}
	return d
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, url, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	metrics.RecordUpstreamLatency(endpoint, float64(c.now().Sub(start).Milliseconds()))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: send request: %v", errTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", errTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if _, ok := c.retryStatuses[resp.StatusCode]; ok {
		return nil, fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	}
	return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
}
