package bracket

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is ordered: a later status never moves back except through a reset.
type MatchStatus int

const (
	MatchLocked MatchStatus = iota
	MatchWaiting
	MatchReady
	MatchRunning
	MatchCompleted
	MatchArchived
)

var matchStatusNames = [...]string{"locked", "waiting", "ready", "running", "completed", "archived"}

func (s MatchStatus) String() string {
	if s < MatchLocked || s > MatchArchived {
		return "unknown"
	}
	return matchStatusNames[s]
}

func (s MatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Schedulable reports whether a match in this status may be handed a lane.
func (s MatchStatus) Schedulable() bool {
	return s == MatchReady || s == MatchWaiting
}

// LaneAssignment tells the players of a match which lane to go to.
type LaneAssignment struct {
	LaneID     uuid.UUID `json:"lane_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Link points at the opponent slot a result is forwarded to.
type Link struct {
	MatchID uuid.UUID `json:"match_id"`
	Slot    int       `json:"slot"`
}

type Match struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"event_id"`

	// Position in the bracket
	StageID uuid.UUID `json:"stage_id"`
	GroupID uuid.UUID `json:"group_id"`
	RoundID uuid.UUID `json:"round_id"`
	Number  int       `json:"number"`

	Status    MatchStatus `json:"status"`
	Opponent1 Opponent    `json:"opponent1"`
	Opponent2 Opponent    `json:"opponent2"`

	Lane *LaneAssignment `json:"lane,omitempty"`

	// What each slot looked like when the bracket was generated, restored by a reset
	Origin1 Opponent `json:"-"`
	Origin2 Opponent `json:"-"`

	WinnerNext *Link `json:"-"`
	LoserNext  *Link `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Slot returns the opponent in slot 1 or 2.
func (m *Match) Slot(n int) *Opponent {
	if n == 1 {
		return &m.Opponent1
	}
	return &m.Opponent2
}

// HoldsLane reports whether the match currently occupies a lane.
func (m *Match) HoldsLane() bool {
	return m.Lane != nil
}

// HasScore reports whether either opponent carries a recorded score.
func (m *Match) HasScore() bool {
	return m.Opponent1.HasScore() || m.Opponent2.HasScore()
}

// Participants returns the assigned participant ids of the match in slot order.
func (m *Match) Participants() []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range []Opponent{m.Opponent1, m.Opponent2} {
		if o.Kind == SlotAssigned {
			ids = append(ids, o.ParticipantID)
		}
	}
	return ids
}
