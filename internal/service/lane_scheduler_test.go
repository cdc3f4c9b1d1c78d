package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ready   = bracket.MatchReady
	waiting = bracket.MatchWaiting
)

func TestAutoAssign_ReadyBeforeWaiting(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, matchIDs, laneIDs := seedRound(t, s, 3, waiting, ready, waiting, ready, waiting)

	assigned, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, assigned)

	held := laneOf(t, s, eventID)
	assert.Equal(t, map[uuid.UUID]uuid.UUID{
		matchIDs[1]: laneIDs[0],
		matchIDs[3]: laneIDs[1],
		matchIDs[0]: laneIDs[2],
	}, held)

	snap, err := s.tournaments.Snapshot(ctx, eventID)
	require.NoError(t, err)
	for _, m := range snap.Matches {
		assert.NotEqual(t, bracket.MatchRunning, m.Status, "assignment never starts a match")
	}
}

func TestAutoAssign_AssignsMinOfLanesAndMatches(t *testing.T) {
	testCases := []struct {
		lanes   int
		matches int
	}{
		{0, 3}, {3, 0}, {2, 5}, {5, 2}, {4, 4},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d lanes %d matches", tc.lanes, tc.matches), func(t *testing.T) {
			s := newServices(t)
			statuses := make([]bracket.MatchStatus, tc.matches)
			for i := range statuses {
				statuses[i] = ready
			}
			eventID, _, _ := seedRound(t, s, tc.lanes, statuses...)

			assigned, err := s.scheduler.AutoAssign(context.Background(), eventID)
			require.NoError(t, err)
			assert.Equal(t, min(tc.lanes, tc.matches), assigned)
		})
	}
}

func TestAutoAssign_SkipsMaintenanceLanes(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, _, laneIDs := seedRound(t, s, 2, ready, ready)
	require.NoError(t, s.scheduler.SetMaintenance(ctx, eventID, laneIDs[0]))

	assigned, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)

	for _, lane := range laneOf(t, s, eventID) {
		assert.Equal(t, laneIDs[1], lane)
	}
}

func TestAutoAssign_ConcurrentCallsNeverDoubleBook(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, _, _ := seedRound(t, s, 3, ready, ready, ready, waiting, waiting, waiting)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.scheduler.AutoAssign(ctx, eventID)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	snap, err := s.tournaments.Snapshot(ctx, eventID)
	require.NoError(t, err)
	holders := snap.LaneHolders()
	assert.Equal(t, total, len(holders), "every reported assignment is stored")
	for lane, matches := range holders {
		assert.Len(t, matches, 1, "lane %s", lane)
	}

	// a lane dropped by a lost race is picked up by the next run
	more, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, total+more)
}

func TestReleaseAndReassign(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, matchIDs, laneIDs := seedRound(t, s, 1, ready, ready)

	assigned, err := s.scheduler.ReleaseAndReassign(ctx, eventID, matchIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 0, assigned, "nothing held, nothing assigned")

	_, err = s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, laneIDs[0], laneOf(t, s, eventID)[matchIDs[0]])

	// the first match finishes, its lane goes to the second one
	_, err = s.db.Exec(s.db.Rebind("UPDATE matches SET status = ? WHERE id = ?"), bracket.MatchCompleted, matchIDs[0])
	require.NoError(t, err)

	assigned, err = s.scheduler.ReleaseAndReassign(ctx, eventID, matchIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)
	assert.Equal(t, map[uuid.UUID]uuid.UUID{matchIDs[1]: laneIDs[0]}, laneOf(t, s, eventID))

	_, err = s.scheduler.ReleaseAndReassign(ctx, eventID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetMaintenance_DetachesHolder(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, _, laneIDs := seedRound(t, s, 1, ready)
	_, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)

	require.NoError(t, s.scheduler.SetMaintenance(ctx, eventID, laneIDs[0]))
	assert.Empty(t, laneOf(t, s, eventID))

	assigned, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 0, assigned)

	require.NoError(t, s.scheduler.SetIdle(ctx, eventID, laneIDs[0]))
	assigned, err = s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)

	err = s.scheduler.SetIdle(ctx, uuid.New(), laneIDs[0])
	assert.ErrorIs(t, err, ErrNotFound, "lane of another event")
}

func TestSetIdle_KeepsHolderOfOccupiedLane(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, matchIDs, laneIDs := seedRound(t, s, 2, ready)
	_, err := s.scheduler.AutoAssign(ctx, eventID)
	require.NoError(t, err)

	err = s.scheduler.SetIdle(ctx, eventID, laneIDs[0])
	assert.ErrorIs(t, err, ErrBadRequest, "occupied")
	assert.Equal(t, map[uuid.UUID]uuid.UUID{matchIDs[0]: laneIDs[0]}, laneOf(t, s, eventID))

	err = s.scheduler.SetIdle(ctx, eventID, laneIDs[1])
	assert.ErrorIs(t, err, ErrBadRequest, "already idle")
}

// flakyLanes fails or loses chosen pairs and records every attempt.
type flakyLanes struct {
	lanes    []bracket.Lane
	matches  []bracket.Match
	fail     map[uuid.UUID]error
	lose     map[uuid.UUID]bool
	attempts []uuid.UUID
}

func (f *flakyLanes) IdleLanes(context.Context, uuid.UUID) ([]bracket.Lane, error) {
	return f.lanes, nil
}

func (f *flakyLanes) SchedulableMatches(context.Context, uuid.UUID) ([]bracket.Match, error) {
	return f.matches, nil
}

func (f *flakyLanes) AssignLane(_ context.Context, _, matchID uuid.UUID, _ time.Time) (bool, error) {
	f.attempts = append(f.attempts, matchID)
	if err := f.fail[matchID]; err != nil {
		return false, err
	}
	return !f.lose[matchID], nil
}

func (f *flakyLanes) ReleaseLane(context.Context, uuid.UUID, uuid.UUID, time.Time) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (f *flakyLanes) SetLaneStatus(context.Context, uuid.UUID, uuid.UUID, bracket.LaneStatus, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func TestAutoAssign_SkipsFailedPairs(t *testing.T) {
	lanes := []bracket.Lane{{ID: uuid.New(), Label: "A"}, {ID: uuid.New(), Label: "B"}, {ID: uuid.New(), Label: "C"}}
	matches := []bracket.Match{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}}

	store := &flakyLanes{
		lanes:   lanes,
		matches: matches,
		fail:    map[uuid.UUID]error{matches[0].ID: errors.New("disk full")},
		lose:    map[uuid.UUID]bool{matches[1].ID: true},
	}
	scheduler := NewLaneScheduler(store)

	assigned, err := scheduler.AutoAssign(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)

	// one attempt per pair, no retry with the fourth match
	assert.Equal(t, []uuid.UUID{matches[0].ID, matches[1].ID, matches[2].ID}, store.attempts)
}
