// Package progression forwards match outcomes along the bracket. It works on
// an in-memory snapshot; callers persist whatever it reports as changed.
package progression

import (
	"errors"
	"fmt"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
)

var (
	ErrNotCompleted = errors.New("match is not completed")
	ErrUndecided    = errors.New("match has no winner")
)

// Progressor moves the winner and loser of a completed match into the
// matches that wait for them.
type Progressor interface {
	Propagate(s *bracket.Snapshot, matchID uuid.UUID) ([]uuid.UUID, error)
}

// Linked follows the winner and loser links stored on each match.
type Linked struct{}

var _ Progressor = Linked{}

func (Linked) Propagate(s *bracket.Snapshot, matchID uuid.UUID) ([]uuid.UUID, error) {
	p := &propagation{snap: s, groups: groupNumbers(s), rounds: roundNumbers(s), seen: make(map[uuid.UUID]bool)}
	if err := p.forward(matchID); err != nil {
		return nil, err
	}
	return p.changed, nil
}

type propagation struct {
	snap    *bracket.Snapshot
	groups  map[uuid.UUID]int
	rounds  map[uuid.UUID]int
	seen    map[uuid.UUID]bool
	changed []uuid.UUID
}

func (p *propagation) forward(matchID uuid.UUID) error {
	m, ok := p.snap.Match(matchID)
	if !ok {
		return fmt.Errorf("match %s not in snapshot", matchID)
	}
	if m.Status != bracket.MatchCompleted {
		return fmt.Errorf("match %s: %w", matchID, ErrNotCompleted)
	}

	winner, loser, err := outcome(m)
	if err != nil {
		return fmt.Errorf("match %s: %w", matchID, err)
	}

	if p.isGrandFinal(m) {
		return p.grandFinal(m, winner, loser)
	}

	if m.WinnerNext != nil && winner != uuid.Nil {
		if err := p.place(*m.WinnerNext, winner); err != nil {
			return err
		}
	}
	if m.LoserNext != nil && loser != uuid.Nil {
		if err := p.place(*m.LoserNext, loser); err != nil {
			return err
		}
	}
	return nil
}

// grandFinal skips the reset when the winners side champion, who always sits
// in slot 1, wins the first grand final.
func (p *propagation) grandFinal(m *bracket.Match, winner, loser uuid.UUID) error {
	if m.WinnerNext == nil {
		return nil
	}
	reset, ok := p.snap.Match(m.WinnerNext.MatchID)
	if !ok {
		return fmt.Errorf("grand final reset %s not in snapshot", m.WinnerNext.MatchID)
	}

	if m.Opponent1.IsAssigned() && m.Opponent1.ParticipantID == winner {
		reset.Status = bracket.MatchArchived
		reset.Opponent1.Score, reset.Opponent1.Result = nil, bracket.ResultNone
		reset.Opponent2.Score, reset.Opponent2.Result = nil, bracket.ResultNone
		p.mark(reset.ID)
		return nil
	}

	// the reset may have been archived by an earlier decision or a bracket
	// reset; it is a real match again
	if reset.Status == bracket.MatchArchived {
		reset.Status = bracket.MatchLocked
	}
	if err := p.place(*m.WinnerNext, winner); err != nil {
		return err
	}
	if m.LoserNext != nil {
		return p.place(*m.LoserNext, loser)
	}
	return nil
}

func (p *propagation) place(link bracket.Link, participant uuid.UUID) error {
	target, ok := p.snap.Match(link.MatchID)
	if !ok {
		return fmt.Errorf("linked match %s not in snapshot", link.MatchID)
	}
	slot := target.Slot(link.Slot)
	if slot.IsEmpty() {
		return fmt.Errorf("match %s slot %d can never take a participant", target.ID, link.Slot)
	}
	*slot = bracket.AssignedSlot(participant)
	target.Status = Refresh(target)
	p.mark(target.ID)

	// a walkover moves straight on
	if target.IsBye() && target.Status != bracket.MatchCompleted {
		CompleteWalkover(target)
		return p.forward(target.ID)
	}
	return nil
}

func (p *propagation) mark(id uuid.UUID) {
	if !p.seen[id] {
		p.seen[id] = true
		p.changed = append(p.changed, id)
	}
}

func (p *propagation) isGrandFinal(m *bracket.Match) bool {
	return p.groups[m.GroupID] == bracket.GrandFinalGroup && p.rounds[m.RoundID] == 1
}

// Refresh derives the status of a match that has not started yet from its
// slots. Matches already running or decided keep their status.
func Refresh(m *bracket.Match) bracket.MatchStatus {
	if m.Status >= bracket.MatchRunning {
		return m.Status
	}
	assigned := 0
	for _, o := range []bracket.Opponent{m.Opponent1, m.Opponent2} {
		if o.IsAssigned() {
			assigned++
		}
	}
	switch assigned {
	case 2:
		return bracket.MatchReady
	case 1:
		return bracket.MatchWaiting
	}
	return bracket.MatchLocked
}

// CompleteWalkover decides a bye in favor of its only participant.
func CompleteWalkover(m *bracket.Match) {
	for _, slot := range []*bracket.Opponent{&m.Opponent1, &m.Opponent2} {
		if slot.IsAssigned() {
			slot.Result = bracket.ResultWin
		}
	}
	m.Status = bracket.MatchCompleted
}

// outcome returns the winner and loser of a completed match. A bye has a
// winner and no loser.
func outcome(m *bracket.Match) (winner, loser uuid.UUID, err error) {
	o1, o2 := m.Opponent1, m.Opponent2
	if m.IsBye() {
		switch {
		case o1.IsAssigned():
			return o1.ParticipantID, uuid.Nil, nil
		case o2.IsAssigned():
			return o2.ParticipantID, uuid.Nil, nil
		}
		return uuid.Nil, uuid.Nil, nil
	}
	switch {
	case o1.Result == bracket.ResultWin && o2.IsAssigned():
		return o1.ParticipantID, o2.ParticipantID, nil
	case o2.Result == bracket.ResultWin && o1.IsAssigned():
		return o2.ParticipantID, o1.ParticipantID, nil
	}
	return uuid.Nil, uuid.Nil, ErrUndecided
}

func groupNumbers(s *bracket.Snapshot) map[uuid.UUID]int {
	numbers := make(map[uuid.UUID]int, len(s.Groups))
	for _, g := range s.Groups {
		numbers[g.ID] = g.Number
	}
	return numbers
}

func roundNumbers(s *bracket.Snapshot) map[uuid.UUID]int {
	numbers := make(map[uuid.UUID]int, len(s.Rounds))
	for _, r := range s.Rounds {
		numbers[r.ID] = r.Number
	}
	return numbers
}
