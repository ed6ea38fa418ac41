// Package reference resolves club and position ids against the reference
// tables embedded in the market payload.
package reference

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/okian/cartola/internal/domain/model"
)

// DefaultCrestSize is the escudos key used for club crests.
const DefaultCrestSize = "60x60"

// ErrMissingReference is returned when an id has no entry in a reference table.
var ErrMissingReference = errors.New("missing reference")

// Lookup resolves ids to reference data.
type Lookup interface {
	ClubOf(id int) (model.Club, error)
	PositionOf(id int) (model.Position, error)
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithCrestSize selects the escudos resolution key.
func WithCrestSize(size string) Option {
	return func(r *Resolver) {
		if size != "" {
			r.crestSize = size
		}
	}
}

// Resolver is an immutable Lookup built once per fetch cycle.
type Resolver struct {
	crestSize   string
	clubs       map[int]model.Club
	positions   map[int]model.Position
	invalidKeys []string
}

// NewResolver indexes the raw clubes and posicoes tables. Keys that are not
// integers cannot be referenced by any athlete; they are ignored and reported
// by InvalidKeys.
func NewResolver(clubs map[string]model.RawClub, positions map[string]model.RawPosition, opts ...Option) *Resolver {
	r := &Resolver{
		crestSize: DefaultCrestSize,
		clubs:     make(map[int]model.Club, len(clubs)),
		positions: make(map[int]model.Position, len(positions)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for key, raw := range clubs {
		id, err := strconv.Atoi(key)
		if err != nil {
			r.invalidKeys = append(r.invalidKeys, "clubes:"+key)
			continue
		}
		r.clubs[id] = model.Club{
			ID:           id,
			Name:         raw.Name,
			CrestURL:     pickCrest(raw.Crests, r.crestSize),
			Abbreviation: raw.Abbreviation,
		}
	}
	for key, raw := range positions {
		id, err := strconv.Atoi(key)
		if err != nil {
			r.invalidKeys = append(r.invalidKeys, "posicoes:"+key)
			continue
		}
		r.positions[id] = model.Position{ID: id, Name: raw.Name, Abbreviation: raw.Abbreviation}
	}
	sort.Strings(r.invalidKeys)
	return r
}

// pickCrest returns the crest for size, or the first available size in key
// order when that size is missing.
func pickCrest(crests map[string]string, size string) string {
	if url, ok := crests[size]; ok {
		return url
	}
	keys := make([]string, 0, len(crests))
	for k := range crests {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if crests[k] != "" {
			return crests[k]
		}
	}
	return ""
}

// ClubOf returns the club with id.
func (r *Resolver) ClubOf(id int) (model.Club, error) {
	c, ok := r.clubs[id]
	if !ok {
		return model.Club{}, fmt.Errorf("club %d: %w", id, ErrMissingReference)
	}
	return c, nil
}

// PositionOf returns the position with id.
func (r *Resolver) PositionOf(id int) (model.Position, error) {
	p, ok := r.positions[id]
	if !ok {
		return model.Position{}, fmt.Errorf("position %d: %w", id, ErrMissingReference)
	}
	return p, nil
}

// Clubs returns all clubs ordered by id.
func (r *Resolver) Clubs() []model.Club {
	out := make([]model.Club, 0, len(r.clubs))
	for _, c := range r.clubs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Positions returns all positions ordered by id.
func (r *Resolver) Positions() []model.Position {
	out := make([]model.Position, 0, len(r.positions))
	for _, p := range r.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InvalidKeys lists reference keys that could not be parsed as ids.
func (r *Resolver) InvalidKeys() []string {
	return append([]string(nil), r.invalidKeys...)
}
