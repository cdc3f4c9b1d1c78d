package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/AdamBeresnev/bracket-lanes/internal/watchdog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardSnapshot() (*bracket.Snapshot, uuid.UUID) {
	event := bracket.Event{ID: uuid.New(), Name: "Friday <Open>"}
	stage := bracket.Stage{ID: uuid.New(), EventID: event.ID, Type: bracket.SingleElimination}
	group := bracket.Group{ID: uuid.New(), StageID: stage.ID, Number: 1}
	round := bracket.Round{ID: uuid.New(), GroupID: group.ID, Number: 1}

	alice := bracket.Participant{ID: uuid.New(), EventID: event.ID, Name: "Alice", Seed: 1}
	bob := bracket.Participant{ID: uuid.New(), EventID: event.ID, Name: "Bob", Seed: 2}

	laneB := bracket.Lane{ID: uuid.New(), EventID: event.ID, Label: "B", Status: bracket.LaneOccupied}
	laneA := bracket.Lane{ID: uuid.New(), EventID: event.ID, Label: "A", Status: bracket.LaneMaintenance}

	match := bracket.Match{
		ID: uuid.New(), EventID: event.ID, StageID: stage.ID, GroupID: group.ID, RoundID: round.ID, Number: 1,
		Status:    bracket.MatchReady,
		Opponent1: bracket.AssignedSlot(alice.ID),
		Opponent2: bracket.AssignedSlot(bob.ID),
		Lane:      &bracket.LaneAssignment{LaneID: laneB.ID, AssignedAt: time.Date(2026, 1, 1, 18, 30, 0, 0, time.UTC)},
	}
	return &bracket.Snapshot{
		Event:        event,
		Stage:        stage,
		Groups:       []bracket.Group{group},
		Rounds:       []bracket.Round{round},
		Matches:      []bracket.Match{match},
		Participants: []bracket.Participant{alice, bob},
		Lanes:        []bracket.Lane{laneB, laneA},
	}, match.ID
}

func TestPrepareBoardData(t *testing.T) {
	snap, matchID := boardSnapshot()

	data := PrepareBoardData(snap, watchdog.Set{matchID: {}})

	require.Len(t, data.Lanes, 2)
	assert.Equal(t, "A", data.Lanes[0].Label)
	assert.Nil(t, data.Lanes[0].Holder)
	require.NotNil(t, data.Lanes[1].Holder)
	assert.Equal(t, "Alice", data.Lanes[1].Holder.Player1)
	assert.Equal(t, 1, data.Lanes[1].Holder.Number)
	assert.True(t, data.Lanes[1].Holder.Idle)
	assert.Equal(t, 1, data.Assigned)
	assert.Equal(t, 1, data.Idle)
}

func TestLaneBoard_Render(t *testing.T) {
	snap, _ := boardSnapshot()
	var buf bytes.Buffer

	require.NoError(t, LaneBoard(PrepareBoardData(snap, watchdog.Set{})).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "Friday &lt;Open&gt;")
	assert.Contains(t, html, "1 assigned")
	assert.Contains(t, html, "Match 1: Alice vs Bob since 18:30")
	assert.Contains(t, html, `class="lane lane-maintenance"`)
	assert.NotContains(t, html, "Not started")
	assert.NotContains(t, html, "lane-score")
}

func TestPrepareBoardData_RunningScore(t *testing.T) {
	snap, _ := boardSnapshot()
	m := &snap.Matches[0]
	m.Status = bracket.MatchRunning
	m.Opponent1.Score = utils.Ptr(2)

	data := PrepareBoardData(snap, watchdog.Set{})

	require.NotNil(t, data.Lanes[1].Holder)
	assert.Equal(t, "2-0", data.Lanes[1].Holder.Score)
}

func TestSlotName(t *testing.T) {
	names := map[uuid.UUID]string{}
	assert.Equal(t, "BYE", slotName(bracket.EmptySlot(), names))
	assert.Equal(t, "TBD", slotName(bracket.PendingSlot(nil), names))
	assert.Equal(t, "Unknown", slotName(bracket.AssignedSlot(uuid.New()), names))
}

func TestLaneBoard_RenderIdleAndScore(t *testing.T) {
	snap, matchID := boardSnapshot()
	m := &snap.Matches[0]
	m.Status = bracket.MatchRunning
	m.Opponent1.Score = utils.Ptr(1)
	m.Opponent2.Score = utils.Ptr(3)
	var buf bytes.Buffer

	require.NoError(t, LaneBoard(PrepareBoardData(snap, watchdog.Set{matchID: {}})).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, `<span class="idle">1 idle</span>`)
	assert.Contains(t, html, `<span class="lane-score">1-3</span>`)
	assert.Contains(t, html, "Not started")
	assert.Contains(t, html, `class="lane lane-occupied"`)
}
