package store

import (
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/google/uuid"
)

// matchRow is the flat column layout of the matches table.
type matchRow struct {
	ID      uuid.UUID           `db:"id"`
	EventID uuid.UUID           `db:"event_id"`
	StageID uuid.UUID           `db:"stage_id"`
	GroupID uuid.UUID           `db:"group_id"`
	RoundID uuid.UUID           `db:"round_id"`
	Number  int                 `db:"number"`
	Status  bracket.MatchStatus `db:"status"`

	Opponent1Kind          bracket.SlotKind `db:"opponent1_kind"`
	Opponent1Position      *int             `db:"opponent1_position"`
	Opponent1ParticipantID *uuid.UUID       `db:"opponent1_participant_id"`
	Opponent1Score         *int             `db:"opponent1_score"`
	Opponent1Result        bracket.Result   `db:"opponent1_result"`

	Opponent2Kind          bracket.SlotKind `db:"opponent2_kind"`
	Opponent2Position      *int             `db:"opponent2_position"`
	Opponent2ParticipantID *uuid.UUID       `db:"opponent2_participant_id"`
	Opponent2Score         *int             `db:"opponent2_score"`
	Opponent2Result        bracket.Result   `db:"opponent2_result"`

	Origin1Kind     bracket.SlotKind `db:"origin1_kind"`
	Origin1Position *int             `db:"origin1_position"`
	Origin2Kind     bracket.SlotKind `db:"origin2_kind"`
	Origin2Position *int             `db:"origin2_position"`

	LaneID         *uuid.UUID `db:"lane_id"`
	LaneAssignedAt *time.Time `db:"lane_assigned_at"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id"`
	WinnerNextSlot    *int       `db:"winner_next_slot"`
	LoserNextMatchID  *uuid.UUID `db:"loser_next_match_id"`
	LoserNextSlot     *int       `db:"loser_next_slot"`

	UpdatedAt time.Time `db:"updated_at"`
}

func newMatchRow(m bracket.Match) matchRow {
	r := matchRow{
		ID:      m.ID,
		EventID: m.EventID,
		StageID: m.StageID,
		GroupID: m.GroupID,
		RoundID: m.RoundID,
		Number:  m.Number,
		Status:  m.Status,

		Origin1Kind:     m.Origin1.Kind,
		Origin1Position: m.Origin1.Position,
		Origin2Kind:     m.Origin2.Kind,
		Origin2Position: m.Origin2.Position,

		UpdatedAt: m.UpdatedAt,
	}
	r.Opponent1Kind, r.Opponent1Position, r.Opponent1ParticipantID, r.Opponent1Score, r.Opponent1Result = splitOpponent(m.Opponent1)
	r.Opponent2Kind, r.Opponent2Position, r.Opponent2ParticipantID, r.Opponent2Score, r.Opponent2Result = splitOpponent(m.Opponent2)

	if m.Lane != nil {
		r.LaneID = &m.Lane.LaneID
		r.LaneAssignedAt = utils.NullTime(m.Lane.AssignedAt)
	}
	if m.WinnerNext != nil {
		r.WinnerNextMatchID = &m.WinnerNext.MatchID
		r.WinnerNextSlot = &m.WinnerNext.Slot
	}
	if m.LoserNext != nil {
		r.LoserNextMatchID = &m.LoserNext.MatchID
		r.LoserNextSlot = &m.LoserNext.Slot
	}
	return r
}

func (r matchRow) toMatch() bracket.Match {
	m := bracket.Match{
		ID:        r.ID,
		EventID:   r.EventID,
		StageID:   r.StageID,
		GroupID:   r.GroupID,
		RoundID:   r.RoundID,
		Number:    r.Number,
		Status:    r.Status,
		Opponent1: joinOpponent(r.Opponent1Kind, r.Opponent1Position, r.Opponent1ParticipantID, r.Opponent1Score, r.Opponent1Result),
		Opponent2: joinOpponent(r.Opponent2Kind, r.Opponent2Position, r.Opponent2ParticipantID, r.Opponent2Score, r.Opponent2Result),
		Origin1:   bracket.Opponent{Kind: r.Origin1Kind, Position: r.Origin1Position},
		Origin2:   bracket.Opponent{Kind: r.Origin2Kind, Position: r.Origin2Position},
		UpdatedAt: r.UpdatedAt,
	}
	if r.LaneID != nil {
		m.Lane = &bracket.LaneAssignment{LaneID: *r.LaneID}
		if r.LaneAssignedAt != nil {
			m.Lane.AssignedAt = *r.LaneAssignedAt
		}
	}
	if r.WinnerNextMatchID != nil && r.WinnerNextSlot != nil {
		m.WinnerNext = &bracket.Link{MatchID: *r.WinnerNextMatchID, Slot: *r.WinnerNextSlot}
	}
	if r.LoserNextMatchID != nil && r.LoserNextSlot != nil {
		m.LoserNext = &bracket.Link{MatchID: *r.LoserNextMatchID, Slot: *r.LoserNextSlot}
	}
	return m
}

func splitOpponent(o bracket.Opponent) (bracket.SlotKind, *int, *uuid.UUID, *int, bracket.Result) {
	var participant *uuid.UUID
	if o.Kind == bracket.SlotAssigned {
		id := o.ParticipantID
		participant = &id
	}
	return o.Kind, o.Position, participant, o.Score, o.Result
}

func joinOpponent(kind bracket.SlotKind, position *int, participant *uuid.UUID, score *int, result bracket.Result) bracket.Opponent {
	o := bracket.Opponent{Kind: kind, Position: position, Score: score, Result: result}
	if participant != nil {
		o.ParticipantID = *participant
	}
	return o
}

func toMatches(rows []matchRow) []bracket.Match {
	matches := make([]bracket.Match, len(rows))
	for i, r := range rows {
		matches[i] = r.toMatch()
	}
	return matches
}
