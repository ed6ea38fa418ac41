// Package filter applies AND-combined predicates over athlete collections.
package filter

import (
	"strings"

	"github.com/okian/cartola/internal/domain/model"
)

// Subject is anything carrying an athlete record.
type Subject interface {
	Record() model.Athlete
}

// Predicate reports whether an athlete is kept.
type Predicate func(model.Athlete) bool

// ByClubNames keeps athletes of the named clubs. Names match case-insensitively.
// An empty name list yields a nil predicate, which Apply skips.
func ByClubNames(names ...string) Predicate {
	set := nameSet(names)
	if len(set) == 0 {
		return nil
	}
	return func(a model.Athlete) bool {
		_, ok := set[strings.ToLower(a.ClubName)]
		return ok
	}
}

// ByPositionNames keeps athletes of the named positions.
func ByPositionNames(names ...string) Predicate {
	set := nameSet(names)
	if len(set) == 0 {
		return nil
	}
	return func(a model.Athlete) bool {
		_, ok := set[strings.ToLower(a.PositionName)]
		return ok
	}
}

// ByStatuses keeps athletes whose status is listed.
func ByStatuses(statuses ...model.StatusID) Predicate {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[model.StatusID]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(a model.Athlete) bool {
		_, ok := set[a.Status]
		return ok
	}
}

// ProbableOnly keeps athletes expected to play.
func ProbableOnly() Predicate {
	return ByStatuses(model.StatusProbable)
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

// Apply returns the items matching every non-nil predicate, preserving order.
// With no effective predicate the input slice is returned as is.
func Apply[T Subject](items []T, preds ...Predicate) []T {
	active := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		if matches(it.Record(), active) {
			out = append(out, it)
		}
	}
	return out
}

func matches(a model.Athlete, preds []Predicate) bool {
	for _, p := range preds {
		if !p(a) {
			return false
		}
	}
	return true
}
