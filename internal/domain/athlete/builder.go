// Package athlete flattens the raw athlete list into enriched records.
package athlete

import (
	"context"
	"sort"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/reference"
	"github.com/okian/cartola/pkg/logger"
)

// Skip records an athlete dropped from the batch.
type Skip struct {
	AthleteID int
	Reason    error
}

// Result is the outcome of one build.
type Result struct {
	Athletes map[int]model.Athlete
	Skipped  []Skip
}

// SkippedCount returns how many athletes were dropped.
func (r Result) SkippedCount() int { return len(r.Skipped) }

// Sorted returns the athletes ordered by id.
func (r Result) Sorted() []model.Athlete {
	out := make([]model.Athlete, 0, len(r.Athletes))
	for _, a := range r.Athletes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLogger sets the logger used to report skipped athletes.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Builder enriches raw athletes with reference data.
type Builder struct {
	lookup reference.Lookup
	logger logger.Logger
}

// NewBuilder creates a builder resolving against lookup.
func NewBuilder(lookup reference.Lookup, opts ...Option) *Builder {
	b := &Builder{lookup: lookup, logger: logger.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build enriches every raw athlete. Athletes whose club or position cannot be
// resolved are dropped and reported in Result.Skipped; the batch never fails.
// A repeated id keeps the last occurrence.
func (b *Builder) Build(ctx context.Context, raw []model.RawAthlete) Result {
	res := Result{Athletes: make(map[int]model.Athlete, len(raw))}
	for _, r := range raw {
		a, err := b.enrich(r)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{AthleteID: r.ID, Reason: err})
			b.logger.Debug(ctx, "skipping athlete",
				logger.Int("athlete_id", r.ID),
				logger.String("nickname", r.Nickname),
				logger.Error(err),
			)
			continue
		}
		res.Athletes[a.ID] = a
	}
	return res
}

func (b *Builder) enrich(r model.RawAthlete) (model.Athlete, error) {
	club, err := b.lookup.ClubOf(r.ClubID)
	if err != nil {
		return model.Athlete{}, err
	}
	pos, err := b.lookup.PositionOf(r.PositionID)
	if err != nil {
		return model.Athlete{}, err
	}
	return model.Athlete{
		ID:               r.ID,
		Nickname:         r.Nickname,
		ClubID:           r.ClubID,
		PositionID:       r.PositionID,
		Status:           model.StatusID(r.StatusID),
		AveragePoints:    r.AveragePoints,
		LastRoundPoints:  r.LastRoundPoints,
		Price:            r.Price,
		PhotoURLTemplate: r.Photo,
		Scout:            model.NormalizeScout(r.Scout),
		ClubName:         club.Name,
		ClubCrest:        club.CrestURL,
		ClubAbbreviation: club.Abbreviation,
		PositionName:     pos.Name,
	}, nil
}
