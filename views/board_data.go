package views

import (
	"fmt"
	"sort"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/AdamBeresnev/bracket-lanes/internal/watchdog"
	"github.com/google/uuid"
)

type LaneRow struct {
	Label  string
	Status bracket.LaneStatus
	// Holder is the match on the lane, nil when the lane is free.
	Holder *HolderRow
}

type HolderRow struct {
	Number   int
	Player1  string
	Player2  string
	Idle     bool
	Assigned string
	// Score is empty until the first score is recorded.
	Score string
}

type BoardData struct {
	EventName string
	Lanes     []LaneRow
	Assigned  int
	Idle      int
}

// PrepareBoardData pairs every lane of the snapshot with the match holding
// it. Lanes are listed by label.
func PrepareBoardData(s *bracket.Snapshot, idle watchdog.Set) BoardData {
	names := make(map[uuid.UUID]string, len(s.Participants))
	for _, p := range s.Participants {
		names[p.ID] = p.Name
	}
	numbers := bracket.MatchNumbers(s)

	holders := make(map[uuid.UUID]*bracket.Match)
	for i := range s.Matches {
		m := &s.Matches[i]
		if m.Lane != nil && m.Status < bracket.MatchCompleted {
			holders[m.Lane.LaneID] = m
		}
	}

	data := BoardData{EventName: s.Event.Name}
	for _, lane := range s.Lanes {
		row := LaneRow{Label: lane.Label, Status: lane.Status}
		if m, ok := holders[lane.ID]; ok {
			row.Holder = &HolderRow{
				Number:   numbers[m.ID],
				Player1:  slotName(m.Opponent1, names),
				Player2:  slotName(m.Opponent2, names),
				Idle:     idle.Has(m.ID),
				Assigned: m.Lane.AssignedAt.Format("15:04"),
			}
			if m.HasScore() {
				row.Holder.Score = fmt.Sprintf("%d-%d", utils.OrZero(m.Opponent1.Score), utils.OrZero(m.Opponent2.Score))
			}
			data.Assigned++
			if row.Holder.Idle {
				data.Idle++
			}
		}
		data.Lanes = append(data.Lanes, row)
	}
	sort.SliceStable(data.Lanes, func(i, j int) bool {
		return data.Lanes[i].Label < data.Lanes[j].Label
	})
	return data
}
