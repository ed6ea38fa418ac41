package service

import (
	"context"
	"fmt"

	"github.com/okian/cartola/internal/adapters/history"
	"github.com/okian/cartola/internal/domain/filter"
	"github.com/okian/cartola/internal/domain/lineup"
	"github.com/okian/cartola/internal/domain/market"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/internal/domain/ranking"
	"github.com/okian/cartola/internal/domain/scoring"
	"github.com/okian/cartola/internal/domain/types"
)

// Query narrows the athlete list. Empty fields do not filter.
type Query struct {
	Clubs        []string
	Positions    []string
	Statuses     []model.StatusID
	ProbableOnly bool
}

func (q Query) predicates() []filter.Predicate {
	preds := []filter.Predicate{
		filter.ByClubNames(q.Clubs...),
		filter.ByPositionNames(q.Positions...),
		filter.ByStatuses(q.Statuses...),
	}
	if q.ProbableOnly {
		preds = append(preds, filter.ProbableOnly())
	}
	return preds
}

// Athletes returns the scored athletes matching q, ordered by id.
func (s *Service) Athletes(ctx context.Context, q Query) ([]model.ScoredAthlete, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(snap.Athletes, q.predicates()...), nil
}

// Athlete returns one scored athlete.
func (s *Service) Athlete(ctx context.Context, id int) (model.ScoredAthlete, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return model.ScoredAthlete{}, err
	}
	a, ok := snap.Athlete(id)
	if !ok {
		return model.ScoredAthlete{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// Clubs returns the clubs of the current snapshot.
func (s *Service) Clubs(ctx context.Context) ([]model.Club, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Clubs, nil
}

// Positions returns the positions of the current snapshot.
func (s *Service) Positions(ctx context.Context) ([]model.Position, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Positions, nil
}

// Market returns the interpreted market status.
func (s *Service) Market(ctx context.Context) (market.Status, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return market.Status{}, err
	}
	return snap.Market, nil
}

// Ranking returns the named board. Limits outside the allowed range fall back
// to the default size.
func (s *Service) Ranking(ctx context.Context, board string, limit int, probableOnly bool) ([]types.Entry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	athletes := snap.Athletes
	if probableOnly {
		athletes = filter.Apply(athletes, filter.ProbableOnly())
	}
	entries, ok := s.ranker.Board(board, athletes, limit)
	if !ok {
		return nil, fmt.Errorf("board %q: %w", board, ErrUnknownBoard)
	}
	return entries, nil
}

// SGRanking returns clubs ordered by clean sheet probability.
func (s *Service) SGRanking(ctx context.Context, limit int) ([]types.ClubEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.SGByClub(snap.Athletes, limit), nil
}

// Boards lists the athlete ranking names.
func (s *Service) Boards() []string {
	return append([]string(nil), ranking.Boards...)
}

// ProjectionResult is a projection plus the ids that were not found.
type ProjectionResult struct {
	scoring.Projection
	Missing []int `json:"missing,omitempty"`
}

// Project computes the round projection for the given athlete ids.
func (s *Service) Project(ctx context.Context, ids []int) (ProjectionResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ProjectionResult{}, err
	}
	found, missing := snap.Select(ids)
	p, err := scoring.Project(found)
	if err != nil {
		return ProjectionResult{Missing: missing}, err
	}
	return ProjectionResult{Projection: p, Missing: missing}, nil
}

// SaveLineup keeps the best picks among ids for position.
func (s *Service) SaveLineup(ctx context.Context, position string, ids []int) ([]lineup.Pick, error) {
	if !lineup.Valid(position) {
		return nil, lineup.ErrUnknownPosition
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	found, missing := snap.Select(ids)
	if len(missing) > 0 {
		return nil, fmt.Errorf("athletes %v: %w", missing, ErrNotFound)
	}
	return s.lineups.SaveTop(ctx, position, found, lineup.DefaultSaveCount)
}

// Lineup returns the saved picks of position.
func (s *Service) Lineup(position string) ([]lineup.Pick, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.lineups.Get(position)
}

// ClearLineup removes the saved picks of position.
func (s *Service) ClearLineup(position string) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.lineups.Clear(position)
}

// Formation returns the 4-3-3 slots filled with the saved picks.
func (s *Service) Formation() ([]lineup.Slot, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.lineups.Formation(), nil
}

// Arena compares the named athletes of position.
func (s *Service) Arena(ctx context.Context, position string, nicknames []string) ([]lineup.Contender, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return lineup.Compare(snap.Athletes, position, nicknames, s.photoFormat)
}

// History returns the reconciled projection rows of round; round <= 0
// selects the latest reconciled round.
func (s *Service) History(ctx context.Context, round int) ([]history.Row, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.history.Accuracy(ctx, round)
}
