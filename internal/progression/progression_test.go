package progression

import (
	"testing"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	bt "github.com/AdamBeresnev/bracket-lanes/internal/bracket/brackettest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(b *bt.Builder, from uuid.UUID, winner, loser *bracket.Link) {
	b.Edit(from, func(m *bracket.Match) {
		m.WinnerNext = winner
		m.LoserNext = loser
	})
}

func grandFinal(t *testing.T, wbChampWins bool) (*bracket.Snapshot, uuid.UUID, uuid.UUID) {
	t.Helper()
	b := bt.New()

	r1, r2 := bracket.ResultWin, bracket.ResultLoss
	if !wbChampWins {
		r1, r2 = r2, r1
	}
	gf := b.Match(bracket.GrandFinalGroup, 1, 1, bracket.MatchCompleted, bt.Scored(3, r1), bt.Scored(1, r2))
	reset := b.Match(bracket.GrandFinalGroup, 2, 1, bracket.MatchLocked, bt.Pending(), bt.Pending())
	link(b, gf, &bracket.Link{MatchID: reset, Slot: 1}, &bracket.Link{MatchID: reset, Slot: 2})
	return b.Snapshot(), gf, reset
}

func TestPropagate_GrandFinalWonByWinnersChampion(t *testing.T) {
	snap, gf, reset := grandFinal(t, true)

	changed, err := Linked{}.Propagate(snap, gf)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reset}, changed)

	m, _ := snap.Match(reset)
	assert.Equal(t, bracket.MatchArchived, m.Status)
	assert.False(t, m.HasScore())
	assert.True(t, m.IsHidden(false))
}

func TestPropagate_GrandFinalWonByLosersChampion(t *testing.T) {
	snap, gf, reset := grandFinal(t, false)

	_, err := Linked{}.Propagate(snap, gf)
	require.NoError(t, err)

	final, _ := snap.Match(gf)
	m, _ := snap.Match(reset)
	assert.Equal(t, bracket.MatchReady, m.Status)
	assert.Equal(t, final.Opponent2.ParticipantID, m.Opponent1.ParticipantID)
	assert.Equal(t, final.Opponent1.ParticipantID, m.Opponent2.ParticipantID)
}

func TestPropagate_GrandFinalReopensArchivedReset(t *testing.T) {
	snap, gf, reset := grandFinal(t, false)
	m, _ := snap.Match(reset)
	m.Status = bracket.MatchArchived

	changed, err := Linked{}.Propagate(snap, gf)
	require.NoError(t, err)
	assert.Contains(t, changed, reset)

	m, _ = snap.Match(reset)
	assert.Equal(t, bracket.MatchReady, m.Status)
	assert.True(t, m.Opponent1.IsAssigned())
	assert.True(t, m.Opponent2.IsAssigned())
	assert.False(t, m.IsHidden(false))
}

func TestPropagate_ForwardsThroughWalkovers(t *testing.T) {
	b := bt.New()
	winner := bt.Scored(2, bracket.ResultWin)
	first := b.Match(bracket.LosersGroup, 1, 1, bracket.MatchCompleted, winner, bt.Scored(0, bracket.ResultLoss))
	bye := b.Match(bracket.LosersGroup, 2, 1, bracket.MatchLocked, bt.Pending(), bt.Bye())
	next := b.Match(bracket.LosersGroup, 3, 1, bracket.MatchWaiting, bt.Player(), bt.Pending())
	link(b, first, &bracket.Link{MatchID: bye, Slot: 1}, nil)
	link(b, bye, &bracket.Link{MatchID: next, Slot: 2}, nil)
	snap := b.Snapshot()

	changed, err := Linked{}.Propagate(snap, first)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bye, next}, changed)

	m, _ := snap.Match(bye)
	assert.Equal(t, bracket.MatchCompleted, m.Status)
	assert.Equal(t, bracket.ResultWin, m.Opponent1.Result)

	m, _ = snap.Match(next)
	assert.Equal(t, winner.ParticipantID, m.Opponent2.ParticipantID)
	assert.Equal(t, bracket.MatchReady, m.Status)
}

func TestPropagate_LoserDropsDown(t *testing.T) {
	b := bt.New()
	loser := bt.Scored(1, bracket.ResultLoss)
	wb := b.Match(bracket.WinnersGroup, 1, 1, bracket.MatchCompleted, bt.Scored(2, bracket.ResultWin), loser)
	wbNext := b.Match(bracket.WinnersGroup, 2, 1, bracket.MatchLocked, bt.Pending(), bt.Pending())
	lb := b.Match(bracket.LosersGroup, 1, 1, bracket.MatchLocked, bt.Pending(), bt.Pending())
	link(b, wb, &bracket.Link{MatchID: wbNext, Slot: 1}, &bracket.Link{MatchID: lb, Slot: 2})
	snap := b.Snapshot()

	_, err := Linked{}.Propagate(snap, wb)
	require.NoError(t, err)

	m, _ := snap.Match(lb)
	assert.Equal(t, loser.ParticipantID, m.Opponent2.ParticipantID)
	assert.Equal(t, bracket.MatchWaiting, m.Status)
}

func TestPropagate_Errors(t *testing.T) {
	b := bt.New()
	running := b.Match(bracket.WinnersGroup, 1, 1, bracket.MatchRunning, bt.Scored(1, ""), bt.Scored(0, ""))
	draw := b.Match(bracket.WinnersGroup, 1, 2, bracket.MatchCompleted, bt.Scored(1, bracket.ResultDraw), bt.Scored(1, bracket.ResultDraw))
	snap := b.Snapshot()

	_, err := Linked{}.Propagate(snap, running)
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = Linked{}.Propagate(snap, draw)
	assert.ErrorIs(t, err, ErrUndecided)

	_, err = Linked{}.Propagate(snap, uuid.New())
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	testCases := []struct {
		name     string
		match    bracket.Match
		expected bracket.MatchStatus
	}{
		{"both known", bracket.Match{Opponent1: bt.Player(), Opponent2: bt.Player()}, bracket.MatchReady},
		{"one known", bracket.Match{Opponent1: bt.Player(), Opponent2: bt.Pending()}, bracket.MatchWaiting},
		{"nobody yet", bracket.Match{Opponent1: bt.Pending(), Opponent2: bt.Bye()}, bracket.MatchLocked},
		{"running stays", bracket.Match{Status: bracket.MatchRunning, Opponent1: bt.Player(), Opponent2: bt.Player()}, bracket.MatchRunning},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Refresh(&tc.match))
		})
	}
}
