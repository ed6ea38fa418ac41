// Package lineup holds the user's saved athletes per position. It outlives
// fetch cycles and is never read by scoring.
package lineup

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/pkg/logger"
)

// Position names as published by the market API.
const (
	Goalkeeper = "Goleiro"
	Fullback   = "Lateral"
	CenterBack = "Zagueiro"
	Midfielder = "Meia"
	Forward    = "Atacante"
	Coach      = "Técnico"
)

// DefaultSaveCount is how many athletes SaveTop keeps.
const DefaultSaveCount = 3

// Positions lists the lineup positions in pitch order.
var Positions = []string{Goalkeeper, Fullback, CenterBack, Midfielder, Forward, Coach}

// slots is the 4-3-3 capacity per position.
var slots = map[string]int{
	Goalkeeper: 1,
	Fullback:   2,
	CenterBack: 2,
	Midfielder: 3,
	Forward:    3,
	Coach:      1,
}

// Pick is one saved athlete.
type Pick struct {
	AthleteID     int     `json:"athlete_id"`
	Nickname      string  `json:"nickname"`
	PhotoURL      string  `json:"photo_url"`
	AveragePoints float64 `json:"average_points"`
}

// Slot is one place on the pitch; Pick is nil when the place is empty.
type Slot struct {
	Position string `json:"position"`
	Index    int    `json:"index"`
	Pick     *Pick  `json:"pick,omitempty"`
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPhotoFormat sets the photo resolution stored with picks.
func WithPhotoFormat(format string) Option {
	return func(s *Store) {
		if format != "" {
			s.photoFormat = format
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is a concurrency-safe selection store keyed by position name.
type Store struct {
	mu          sync.RWMutex
	picks       map[string][]Pick
	photoFormat string
	logger      logger.Logger
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		picks:       make(map[string][]Pick, len(Positions)),
		photoFormat: model.DefaultPhotoFormat,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Valid reports whether position is a lineup position.
func Valid(position string) bool {
	_, ok := slots[position]
	return ok
}

// Save replaces the picks of position with athletes in the given order.
func (s *Store) Save(ctx context.Context, position string, athletes []model.Athlete) ([]Pick, error) {
	if !Valid(position) {
		return nil, ErrUnknownPosition
	}
	picks := make([]Pick, 0, len(athletes))
	for _, a := range athletes {
		if a.PositionName != position {
			return nil, ErrPositionMismatch
		}
		picks = append(picks, Pick{
			AthleteID:     a.ID,
			Nickname:      a.Nickname,
			PhotoURL:      a.PhotoURL(s.photoFormat),
			AveragePoints: a.AveragePoints,
		})
	}

	s.mu.Lock()
	s.picks[position] = picks
	s.mu.Unlock()

	s.logger.Info(ctx, "lineup saved",
		logger.String("position", position),
		logger.Int("picks", len(picks)),
	)
	return append([]Pick(nil), picks...), nil
}

// SaveTop keeps the n athletes of position with the best average.
func (s *Store) SaveTop(ctx context.Context, position string, athletes []model.Athlete, n int) ([]Pick, error) {
	if n <= 0 {
		n = DefaultSaveCount
	}
	sorted := make([]model.Athlete, len(athletes))
	copy(sorted, athletes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AveragePoints > sorted[j].AveragePoints
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return s.Save(ctx, position, sorted)
}

// Get returns the picks of position.
func (s *Store) Get(position string) ([]Pick, error) {
	if !Valid(position) {
		return nil, ErrUnknownPosition
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Pick{}, s.picks[position]...), nil
}

// All returns the picks of every position.
func (s *Store) All() map[string][]Pick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Pick, len(Positions))
	for _, p := range Positions {
		out[p] = append([]Pick{}, s.picks[p]...)
	}
	return out
}

// Clear removes the picks of position.
func (s *Store) Clear(position string) error {
	if !Valid(position) {
		return ErrUnknownPosition
	}
	s.mu.Lock()
	delete(s.picks, position)
	s.mu.Unlock()
	return nil
}

// Formation lays the saved picks on a 4-3-3 pitch. Picks beyond a position's
// capacity are not shown.
func (s *Store) Formation() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Slot
	for _, p := range Positions {
		saved := s.picks[p]
		for i := 0; i < slots[p]; i++ {
			slot := Slot{Position: p, Index: i}
			if i < len(saved) {
				pick := saved[i]
				slot.Pick = &pick
			}
			out = append(out, slot)
		}
	}
	return out
}
