// Package brackettest builds in-memory bracket snapshots for tests.
package brackettest

import (
	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/google/uuid"
)

type Builder struct {
	snap   bracket.Snapshot
	groups map[int]uuid.UUID
	rounds map[[2]int]uuid.UUID
}

func New() *Builder {
	eventID := uuid.New()
	return &Builder{
		snap: bracket.Snapshot{
			Event: bracket.Event{ID: eventID, Name: "test"},
			Stage: bracket.Stage{ID: uuid.New(), EventID: eventID, Type: bracket.DoubleElimination},
		},
		groups: make(map[int]uuid.UUID),
		rounds: make(map[[2]int]uuid.UUID),
	}
}

func (b *Builder) group(number int) uuid.UUID {
	if id, ok := b.groups[number]; ok {
		return id
	}
	id := uuid.New()
	b.groups[number] = id
	b.snap.Groups = append(b.snap.Groups, bracket.Group{ID: id, StageID: b.snap.Stage.ID, Number: number})
	return id
}

func (b *Builder) round(group, number int) uuid.UUID {
	key := [2]int{group, number}
	if id, ok := b.rounds[key]; ok {
		return id
	}
	id := uuid.New()
	b.rounds[key] = id
	b.snap.Rounds = append(b.snap.Rounds, bracket.Round{ID: id, StageID: b.snap.Stage.ID, GroupID: b.group(group), Number: number})
	return id
}

// Round returns the id of a round, creating it if needed.
func (b *Builder) Round(group, number int) uuid.UUID {
	return b.round(group, number)
}

// Match appends a match and returns its id.
func (b *Builder) Match(group, round, number int, status bracket.MatchStatus, o1, o2 bracket.Opponent) uuid.UUID {
	m := bracket.Match{
		ID:        uuid.New(),
		EventID:   b.snap.Event.ID,
		StageID:   b.snap.Stage.ID,
		GroupID:   b.group(group),
		RoundID:   b.round(group, round),
		Number:    number,
		Status:    status,
		Opponent1: o1,
		Opponent2: o2,
	}
	b.snap.Matches = append(b.snap.Matches, m)
	return m.ID
}

// Edit gives access to a stored match.
func (b *Builder) Edit(id uuid.UUID, fn func(m *bracket.Match)) {
	for i := range b.snap.Matches {
		if b.snap.Matches[i].ID == id {
			fn(&b.snap.Matches[i])
			return
		}
	}
}

func (b *Builder) Lane(label string, status bracket.LaneStatus) uuid.UUID {
	id := uuid.New()
	b.snap.Lanes = append(b.snap.Lanes, bracket.Lane{ID: id, EventID: b.snap.Event.ID, Label: label, Status: status})
	return id
}

// Snapshot returns a copy of what has been built so far.
func (b *Builder) Snapshot() *bracket.Snapshot {
	s := b.snap
	s.Groups = append([]bracket.Group(nil), b.snap.Groups...)
	s.Rounds = append([]bracket.Round(nil), b.snap.Rounds...)
	s.Matches = append([]bracket.Match(nil), b.snap.Matches...)
	s.Lanes = append([]bracket.Lane(nil), b.snap.Lanes...)
	return &s
}

// Player is an assigned slot with a fresh participant.
func Player() bracket.Opponent {
	return bracket.AssignedSlot(uuid.New())
}

// Scored is an assigned slot carrying a final score.
func Scored(score int, result bracket.Result) bracket.Opponent {
	o := Player()
	o.Score = utils.Ptr(score)
	o.Result = result
	return o
}

func Pending() bracket.Opponent {
	return bracket.PendingSlot(nil)
}

func Bye() bracket.Opponent {
	return bracket.EmptySlot()
}
