package bracket

import (
	"time"

	"github.com/google/uuid"
)

type LaneStatus string

const (
	LaneIdle        LaneStatus = "idle"
	LaneOccupied    LaneStatus = "occupied"
	LaneMaintenance LaneStatus = "maintenance"
)

type Lane struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	EventID   uuid.UUID  `db:"event_id" json:"event_id"`
	Label     string     `db:"label" json:"label"`
	Status    LaneStatus `db:"status" json:"status"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
