package bracket

import "github.com/google/uuid"

// SlotKind tags what an opponent slot holds.
type SlotKind string

const (
	// SlotEmpty is a true bye: nobody will ever arrive in this slot.
	SlotEmpty SlotKind = "empty"
	// SlotPending waits for the winner or loser of an earlier match.
	SlotPending SlotKind = "pending"
	// SlotAssigned holds a known participant.
	SlotAssigned SlotKind = "assigned"
)

type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// Opponent is one side of a match. Only the fields relevant to Kind are set.
type Opponent struct {
	Kind          SlotKind  `json:"kind"`
	Position      *int      `json:"position,omitempty"`
	ParticipantID uuid.UUID `json:"participant_id,omitempty"`
	Score         *int      `json:"score,omitempty"`
	Result        Result    `json:"result,omitempty"`
}

func EmptySlot() Opponent {
	return Opponent{Kind: SlotEmpty}
}

func PendingSlot(position *int) Opponent {
	return Opponent{Kind: SlotPending, Position: position}
}

func AssignedSlot(participantID uuid.UUID) Opponent {
	return Opponent{Kind: SlotAssigned, ParticipantID: participantID}
}

func (o Opponent) IsEmpty() bool    { return o.Kind == SlotEmpty }
func (o Opponent) IsAssigned() bool { return o.Kind == SlotAssigned }

// HasScore is only ever true for an assigned slot.
func (o Opponent) HasScore() bool {
	return o.Kind == SlotAssigned && o.Score != nil
}
