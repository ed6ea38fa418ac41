// Package pipeline turns one raw payload into an immutable derived snapshot.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/cartola/internal/domain/athlete"
	"github.com/okian/cartola/internal/domain/market"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/reference"
	"github.com/okian/cartola/internal/domain/scoring"
	"github.com/okian/cartola/pkg/logger"
	"github.com/okian/cartola/pkg/metrics"
)

// Snapshot is the output of one derivation cycle. It is never mutated after
// Derive returns.
type Snapshot struct {
	ID        string                `json:"id"`
	FetchedAt time.Time             `json:"fetched_at"`
	DerivedAt time.Time             `json:"derived_at"`
	Market    market.Status         `json:"market"`
	Round     int                   `json:"round"`
	Clubs     []model.Club          `json:"clubs"`
	Positions []model.Position      `json:"positions"`
	Matches   []model.Match         `json:"matches"`
	Athletes  []model.ScoredAthlete `json:"athletes"`
	Skipped   []athlete.Skip        `json:"-"`

	byID map[int]int
}

// Athlete returns the scored athlete with id.
func (s *Snapshot) Athlete(id int) (model.ScoredAthlete, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.ScoredAthlete{}, false
	}
	return s.Athletes[i], true
}

// Select returns the athletes with the given ids, in order, and the ids
// that are not in the snapshot.
func (s *Snapshot) Select(ids []int) (found []model.Athlete, missing []int) {
	for _, id := range ids {
		a, ok := s.Athlete(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		found = append(found, a.Athlete)
	}
	return found, missing
}

// SkippedCount returns how many raw athletes could not be resolved.
func (s *Snapshot) SkippedCount() int { return len(s.Skipped) }

// Option applies a configuration option to the Deriver.
type Option func(*Deriver)

// WithLogger sets the deriver logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Deriver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCrestSize sets the escudos key used for club crests.
func WithCrestSize(size string) Option {
	return func(d *Deriver) {
		if size != "" {
			d.crestSize = size
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Deriver) {
		if now != nil {
			d.now = now
		}
	}
}

// Deriver runs reference resolution, record building and scoring.
type Deriver struct {
	engine    *scoring.Engine
	logger    logger.Logger
	crestSize string
	now       func() time.Time
}

// NewDeriver creates a deriver scoring with engine.
func NewDeriver(engine *scoring.Engine, opts ...Option) *Deriver {
	d := &Deriver{
		engine:    engine,
		logger:    logger.Nop(),
		crestSize: reference.DefaultCrestSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive builds a fresh snapshot from payload.
func (d *Deriver) Derive(ctx context.Context, payload model.Payload) *Snapshot {
	start := d.now()

	resolver := reference.NewResolver(payload.Market.Clubs, payload.Market.Positions, reference.WithCrestSize(d.crestSize))
	if keys := resolver.InvalidKeys(); len(keys) > 0 {
		d.logger.Warn(ctx, "ignoring non-numeric reference keys", logger.Any("keys", keys))
	}

	built := athlete.NewBuilder(resolver, athlete.WithLogger(d.logger)).Build(ctx, payload.Market.Athletes)
	matches := payload.Matches.ToMatches()
	scored := d.engine.DeriveAll(built.Sorted(), matches)

	status := market.Interpret(payload.Status)
	round := status.Round
	if round == 0 {
		round = payload.Matches.Round
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: payload.FetchedAt,
		DerivedAt: d.now(),
		Market:    status,
		Round:     round,
		Clubs:     resolver.Clubs(),
		Positions: resolver.Positions(),
		Matches:   matches,
		Athletes:  scored,
		Skipped:   built.Skipped,
		byID:      make(map[int]int, len(scored)),
	}
	for i, a := range scored {
		snap.byID[a.ID] = i
		if a.Metrics.ValorizationScore != scoring.NotApplicable {
			metrics.RecordValorizationEstimate()
		}
	}
	sort.Slice(snap.Skipped, func(i, j int) bool { return snap.Skipped[i].AthleteID < snap.Skipped[j].AthleteID })

	metrics.RecordCycleDuration(float64(snap.DerivedAt.Sub(start).Milliseconds()))
	metrics.UpdateSnapshot(len(scored), len(built.Skipped), status.Open, snap.DerivedAt.Unix())
	d.logger.Info(ctx, "snapshot derived",
		logger.String("snapshot_id", snap.ID),
		logger.Int("athletes", len(scored)),
		logger.Int("skipped", len(built.Skipped)),
		logger.Bool("market_open", status.Open),
		logger.Int("round", round),
	)
	return snap
}

// Empty returns a snapshot with no data.
func Empty() *Snapshot {
	return &Snapshot{byID: map[int]int{}}
}
