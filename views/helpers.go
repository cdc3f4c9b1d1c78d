package views

import (
	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
)

func slotName(o bracket.Opponent, names map[uuid.UUID]string) string {
	switch o.Kind {
	case bracket.SlotAssigned:
		if name, ok := names[o.ParticipantID]; ok {
			return name
		}
		return "Unknown"
	case bracket.SlotEmpty:
		return "BYE"
	default:
		return "TBD"
	}
}

func statusClass(status bracket.LaneStatus) string {
	switch status {
	case bracket.LaneOccupied:
		return "lane lane-occupied"
	case bracket.LaneMaintenance:
		return "lane lane-maintenance"
	default:
		return "lane lane-idle"
	}
}
