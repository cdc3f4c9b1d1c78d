package bracket

import (
	"time"

	"github.com/google/uuid"
)

type StageType string

const (
	SingleElimination StageType = "single_elimination"
	DoubleElimination StageType = "double_elimination"
)

// Group numbers are fixed by the stage type and never created on the fly.
const (
	WinnersGroup    = 1
	LosersGroup     = 2
	GrandFinalGroup = 3
)

type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Stage struct {
	ID             uuid.UUID `db:"id" json:"id"`
	EventID        uuid.UUID `db:"event_id" json:"event_id"`
	Type           StageType `db:"stage_type" json:"type"`
	SkipFirstRound bool      `db:"skip_first_round" json:"skip_first_round"`
}

type Group struct {
	ID      uuid.UUID `db:"id" json:"id"`
	StageID uuid.UUID `db:"stage_id" json:"stage_id"`
	Number  int       `db:"number" json:"number"`
}

type Round struct {
	ID      uuid.UUID `db:"id" json:"id"`
	StageID uuid.UUID `db:"stage_id" json:"stage_id"`
	GroupID uuid.UUID `db:"group_id" json:"group_id"`
	Number  int       `db:"number" json:"number"`
}
