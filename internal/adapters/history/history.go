// Package history keeps per-round projections and reconciles them with the
// points athletes actually scored.
package history

import (
	"context"
	"sort"
	"sync"
)

// Projection is the points projected for an athlete before a round.
type Projection struct {
	Round     int     `json:"round"`
	AthleteID int     `json:"athlete_id"`
	Nickname  string  `json:"nickname"`
	Projected float64 `json:"projected"`
}

// Row is a reconciled projection.
type Row struct {
	Round     int     `json:"round"`
	AthleteID int     `json:"athlete_id"`
	Nickname  string  `json:"nickname"`
	Projected float64 `json:"projected"`
	Real      float64 `json:"real"`
	Error     float64 `json:"error"`
}

// Store persists projections and results.
type Store interface {
	// RecordProjections upserts the projections of round.
	RecordProjections(ctx context.Context, round int, projections []Projection) error
	// RecordResults sets the real points of athletes already projected for round.
	RecordResults(ctx context.Context, round int, points map[int]float64) error
	// Accuracy lists reconciled rows of round ordered by absolute error.
	// A round <= 0 selects the latest reconciled round.
	Accuracy(ctx context.Context, round int) ([]Row, error)
}

type entry struct {
	projection Projection
	scored     float64
	reconciled bool
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	rounds map[int]map[int]*entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rounds: make(map[int]map[int]*entry)}
}

// RecordProjections implements Store.
func (s *MemoryStore) RecordProjections(_ context.Context, round int, projections []Projection) error {
	if round <= 0 {
		return ErrInvalidRound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byAthlete, ok := s.rounds[round]
	if !ok {
		byAthlete = make(map[int]*entry, len(projections))
		s.rounds[round] = byAthlete
	}
	for _, p := range projections {
		p.Round = round
		if e, ok := byAthlete[p.AthleteID]; ok {
			e.projection = p
			continue
		}
		byAthlete[p.AthleteID] = &entry{projection: p}
	}
	return nil
}

// RecordResults implements Store.
func (s *MemoryStore) RecordResults(_ context.Context, round int, points map[int]float64) error {
	if round <= 0 {
		return ErrInvalidRound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pts := range points {
		if e, ok := s.rounds[round][id]; ok {
			e.scored = pts
			e.reconciled = true
		}
	}
	return nil
}

// Accuracy implements Store.
func (s *MemoryStore) Accuracy(_ context.Context, round int) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if round <= 0 {
		round = s.latestReconciled()
		if round == 0 {
			return nil, nil
		}
	}
	var rows []Row
	for _, e := range s.rounds[round] {
		if !e.reconciled {
			continue
		}
		rows = append(rows, newRow(e.projection, e.scored))
	}
	SortRows(rows)
	return rows, nil
}

func (s *MemoryStore) latestReconciled() int {
	latest := 0
	for round, byAthlete := range s.rounds {
		if round <= latest {
			continue
		}
		for _, e := range byAthlete {
			if e.reconciled {
				latest = round
				break
			}
		}
	}
	return latest
}

func newRow(p Projection, scored float64) Row {
	return Row{
		Round:     p.Round,
		AthleteID: p.AthleteID,
		Nickname:  p.Nickname,
		Projected: p.Projected,
		Real:      scored,
		Error:     scored - p.Projected,
	}
}

// SortRows orders rows by absolute error, then by athlete id.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		ei, ej := abs(rows[i].Error), abs(rows[j].Error)
		if ei != ej {
			return ei > ej
		}
		return rows[i].AthleteID < rows[j].AthleteID
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
