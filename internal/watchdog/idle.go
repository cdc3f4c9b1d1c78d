// Package watchdog flags matches that were given a lane but never started.
package watchdog

import (
	"sort"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
)

const DefaultThreshold = 120 * time.Second

// Set is a set of match ids.
type Set map[uuid.UUID]struct{}

func (s Set) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Equal compares size and membership.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// IDs returns the members in a stable order.
func (s Set) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

type Result struct {
	Idle Set
	// RecheckAfter is the delay until the next candidate turns idle, zero
	// when no candidate is still counting down.
	RecheckAfter time.Duration
}

// IsCandidate reports a ready match with a full matchup that holds a lane.
func IsCandidate(m *bracket.Match) bool {
	return m.Lane != nil &&
		m.Status == bracket.MatchReady &&
		m.Opponent1.IsAssigned() &&
		m.Opponent2.IsAssigned()
}

// Evaluate computes the idle set of a snapshot at the given instant.
func Evaluate(s *bracket.Snapshot, now time.Time, threshold time.Duration) Result {
	res := Result{Idle: make(Set)}
	for i := range s.Matches {
		m := &s.Matches[i]
		if !IsCandidate(m) {
			continue
		}
		elapsed := now.Sub(m.Lane.AssignedAt)
		if elapsed >= threshold {
			res.Idle[m.ID] = struct{}{}
			continue
		}
		remaining := threshold - elapsed
		if res.RecheckAfter == 0 || remaining < res.RecheckAfter {
			res.RecheckAfter = remaining
		}
	}
	return res
}
