// Package scoring computes the per-athlete metrics of a fetch cycle.
package scoring

import (
	"math/rand"
	"sync"
	"time"

	"github.com/okian/cartola/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Scoring constants.
const (
	HomeSGProbability = 78
	AwaySGProbability = 48

	// NotApplicable is the valorization sentinel for non-candidates.
	NotApplicable = -1.0

	minValueFactor      = 0.37
	maxMinValue         = 4.0
	defaultSamples      = 100
	defaultRandomSeed   = 42
	sampleSpreadLow     = 0.8
	sampleSpreadWidth   = 0.4
	captainAverageCoeff = 0.6
	captainGoalCoeff    = 2.0
	captainAssistCoeff  = 1.5
	riskFoulCoeff       = 0.5
	riskYellowCoeff     = 2.0
	riskConcededCoeff   = 2.0
	goalChanceFactor    = 10.0
	goalChanceCap       = 92
)

// HomeClubs returns the set of clubs playing at home this round.
func HomeClubs(matches []model.Match) map[int]struct{} {
	homes := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		homes[m.HomeClubID] = struct{}{}
	}
	return homes
}

// SGProbability is 78 for home clubs and 48 otherwise, bye rounds included.
func SGProbability(a model.Athlete, homes map[int]struct{}) int {
	if _, ok := homes[a.ClubID]; ok {
		return HomeSGProbability
	}
	return AwaySGProbability
}

// CaptainScore ranks midfielders and forwards for the captain armband.
func CaptainScore(a model.Athlete) float64 {
	return captainAverageCoeff*a.AveragePoints +
		captainGoalCoeff*float64(a.Scout.Count(model.ScoutGoal)) +
		captainAssistCoeff*float64(a.Scout.Count(model.ScoutAssist))
}

// Trend is last round points minus the season average.
func Trend(a model.Athlete) float64 {
	return a.LastRoundPoints - a.AveragePoints
}

// RiskScore weighs fouls, yellow cards and goals conceded. The goals conceded
// term applies to every position.
func RiskScore(a model.Athlete) float64 {
	return riskFoulCoeff*float64(a.Scout.Count(model.ScoutFoulCommitted)) +
		riskYellowCoeff*float64(a.Scout.Count(model.ScoutYellowCard)) +
		riskConcededCoeff*float64(a.Scout.Count(model.ScoutGoalConceded))
}

// GoalChance is the forward goal percentage shown in the goal radar.
func GoalChance(a model.Athlete) int {
	v := a.AveragePoints * goalChanceFactor
	if v > goalChanceCap {
		return goalChanceCap
	}
	return int(v)
}

// MinValue is the price movement threshold used by the valorization estimate.
func MinValue(price float64) float64 {
	return price * minValueFactor
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRand injects the random source used by the valorization estimate.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds a private random source. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // estimate, not security
	}
}

// WithSamples sets the valorization sample count.
func WithSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.samples = n
		}
	}
}

// Engine computes DerivedMetrics. Its only state is the random source.
type Engine struct {
	mu      sync.Mutex
	rng     *rand.Rand
	samples int
}

// NewEngine creates an engine; by default it is seeded with 42.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
		samples: defaultSamples,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Samples returns the configured sample count.
func (e *Engine) Samples() int { return e.samples }

// Valorization estimates the valorization score of a probable athlete as the
// mean of min_value*U over the configured samples, U uniform in [0.8, 1.2].
// Non-probable athletes and min values outside (0, 4.0] get NotApplicable.
func (e *Engine) Valorization(a model.Athlete) float64 {
	if !a.IsProbable() {
		return NotApplicable
	}
	minValue := MinValue(a.Price)
	if minValue <= 0 || minValue > maxMinValue {
		return NotApplicable
	}

	draws := make([]float64, e.samples)
	e.mu.Lock()
	for i := range draws {
		draws[i] = minValue * (sampleSpreadLow + sampleSpreadWidth*e.rng.Float64())
	}
	e.mu.Unlock()
	return stat.Mean(draws, nil)
}

// Derive computes every metric for a.
func (e *Engine) Derive(a model.Athlete, homes map[int]struct{}) model.DerivedMetrics {
	return model.DerivedMetrics{
		SGProbability:     SGProbability(a, homes),
		CaptainScore:      CaptainScore(a),
		Trend:             Trend(a),
		ValorizationScore: e.Valorization(a),
		RiskScore:         RiskScore(a),
		GoalChance:        GoalChance(a),
	}
}

// DeriveAll scores athletes in order against the round's matches.
func (e *Engine) DeriveAll(athletes []model.Athlete, matches []model.Match) []model.ScoredAthlete {
	homes := HomeClubs(matches)
	out := make([]model.ScoredAthlete, 0, len(athletes))
	for _, a := range athletes {
		out = append(out, model.ScoredAthlete{Athlete: a, Metrics: e.Derive(a, homes)})
	}
	return out
}
