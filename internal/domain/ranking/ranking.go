// Package ranking builds the top-N boards of the dashboard.
package ranking

import (
	"sort"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/scoring"
	"github.com/okian/cartola/internal/domain/types"
)

// DefaultLimit is the board size when none is requested.
const DefaultLimit = 6

// Board names.
const (
	BoardCaptain      = "captain"
	BoardRising       = "rising"
	BoardFalling      = "falling"
	BoardValorization = "valorization"
	BoardSG           = "sg"
	BoardGoal         = "goal"
)

// Boards lists every athlete board served by Ranker.Board.
var Boards = []string{BoardCaptain, BoardRising, BoardFalling, BoardValorization, BoardGoal}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithPhotoFormat sets the photo resolution of board entries.
func WithPhotoFormat(format string) Option {
	return func(r *Ranker) {
		if format != "" {
			r.photoFormat = format
		}
	}
}

// WithMaxLimit caps the requested board size.
func WithMaxLimit(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.maxLimit = n
		}
	}
}

// Ranker orders scored athletes into boards.
type Ranker struct {
	photoFormat string
	maxLimit    int
}

// NewRanker creates a ranker.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{photoFormat: model.DefaultPhotoFormat, maxLimit: 50}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit normalizes a requested board size.
func (r *Ranker) Limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > r.maxLimit {
		return r.maxLimit
	}
	return n
}

// Board dispatches by name. ok is false for unknown boards.
func (r *Ranker) Board(name string, athletes []model.ScoredAthlete, limit int) ([]types.Entry, bool) {
	switch name {
	case BoardCaptain:
		return r.Captain(athletes, limit), true
	case BoardRising:
		return r.Rising(athletes, limit), true
	case BoardFalling:
		return r.Falling(athletes, limit), true
	case BoardValorization:
		return r.Valorization(athletes, limit), true
	case BoardGoal:
		return r.GoalChance(athletes, limit), true
	default:
		return nil, false
	}
}

// Captain ranks midfielders and forwards by captain score, one per club.
func (r *Ranker) Captain(athletes []model.ScoredAthlete, limit int) []types.Entry {
	eligible := keep(athletes, func(a model.ScoredAthlete) bool {
		return a.PositionID == model.PositionMidfielder || a.PositionID == model.PositionForward
	})
	return r.top(eligible, limit, true, captainScore, captainScore)
}

// Rising ranks by highest trend, one per club.
func (r *Ranker) Rising(athletes []model.ScoredAthlete, limit int) []types.Entry {
	return r.top(athletes, limit, true, trend, trend)
}

// Falling ranks by lowest trend, one per club.
func (r *Ranker) Falling(athletes []model.ScoredAthlete, limit int) []types.Entry {
	return r.top(athletes, limit, true, func(a model.ScoredAthlete) float64 { return -a.Metrics.Trend }, trend)
}

// Valorization ranks valorization candidates. Sentinel scores are excluded.
func (r *Ranker) Valorization(athletes []model.ScoredAthlete, limit int) []types.Entry {
	eligible := keep(athletes, func(a model.ScoredAthlete) bool {
		return a.Metrics.ValorizationScore != scoring.NotApplicable
	})
	return r.top(eligible, limit, false, valorization, valorization)
}

// GoalChance ranks forwards by goal chance, one per club.
func (r *Ranker) GoalChance(athletes []model.ScoredAthlete, limit int) []types.Entry {
	eligible := keep(athletes, func(a model.ScoredAthlete) bool {
		return a.PositionID == model.PositionForward
	})
	return r.top(eligible, limit, true,
		func(a model.ScoredAthlete) float64 { return a.AveragePoints },
		func(a model.ScoredAthlete) float64 { return float64(a.Metrics.GoalChance) },
	)
}

// SGByClub lists one row per club ordered by clean sheet probability.
func (r *Ranker) SGByClub(athletes []model.ScoredAthlete, limit int) []types.ClubEntry {
	limit = r.Limit(limit)
	seen := make(map[int]types.ClubEntry)
	for _, a := range athletes {
		if _, ok := seen[a.ClubID]; ok {
			continue
		}
		seen[a.ClubID] = types.ClubEntry{
			ClubID:    a.ClubID,
			ClubName:  a.ClubName,
			ClubCrest: a.ClubCrest,
			Value:     float64(a.Metrics.SGProbability),
		}
	}
	clubs := make([]types.ClubEntry, 0, len(seen))
	for _, c := range seen {
		clubs = append(clubs, c)
	}
	sort.Slice(clubs, func(i, j int) bool {
		if clubs[i].Value != clubs[j].Value {
			return clubs[i].Value > clubs[j].Value
		}
		return clubs[i].ClubID < clubs[j].ClubID
	})
	if len(clubs) > limit {
		clubs = clubs[:limit]
	}
	for i := range clubs {
		clubs[i].Rank = i + 1
	}
	return clubs
}

func keep(athletes []model.ScoredAthlete, fn func(model.ScoredAthlete) bool) []model.ScoredAthlete {
	out := make([]model.ScoredAthlete, 0, len(athletes))
	for _, a := range athletes {
		if fn(a) {
			out = append(out, a)
		}
	}
	return out
}

func captainScore(a model.ScoredAthlete) float64 { return a.Metrics.CaptainScore }
func trend(a model.ScoredAthlete) float64 { return a.Metrics.Trend }
func valorization(a model.ScoredAthlete) float64 { return a.Metrics.ValorizationScore }

// top sorts by key descending with ties broken by id, optionally keeps the
// first athlete of each club, and truncates to limit. Entries carry value(a).
func (r *Ranker) top(athletes []model.ScoredAthlete, limit int, perClub bool, key, value func(model.ScoredAthlete) float64) []types.Entry {
	limit = r.Limit(limit)
	sorted := make([]model.ScoredAthlete, len(athletes))
	copy(sorted, athletes)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := key(sorted[i]), key(sorted[j])
		if vi != vj {
			return vi > vj
		}
		return sorted[i].ID < sorted[j].ID
	})

	entries := make([]types.Entry, 0, limit)
	clubs := make(map[int]struct{})
	for _, a := range sorted {
		if len(entries) == limit {
			break
		}
		if perClub {
			if _, dup := clubs[a.ClubID]; dup {
				continue
			}
			clubs[a.ClubID] = struct{}{}
		}
		entries = append(entries, types.Entry{
			Rank:         len(entries) + 1,
			AthleteID:    a.ID,
			Nickname:     a.Nickname,
			ClubName:     a.ClubName,
			ClubCrest:    a.ClubCrest,
			PositionName: a.PositionName,
			PhotoURL:     a.PhotoURL(r.photoFormat),
			Value:        value(a),
		})
	}
	return entries
}
