package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	testCases := []struct {
		name               string
		input              EventInput
		expectedMatchCount int
		expectedRounds     int
		expectedError      error
	}{
		{
			name:               "single elimination with 4 participants",
			input:              EventInput{Name: "Four", Participants: names("P", 4), Lanes: []string{"A", "B"}},
			expectedMatchCount: 3,
			expectedRounds:     2,
		},
		{
			name:               "single elimination with 5 participants",
			input:              EventInput{Name: "Five", Type: bracket.SingleElimination, Participants: names("P", 5)},
			expectedMatchCount: 7,
			expectedRounds:     3,
		},
		{
			name:               "double elimination with 8 participants",
			input:              EventInput{Name: "Eight", Type: bracket.DoubleElimination, Participants: names("P", 8)},
			expectedMatchCount: 15,
			expectedRounds:     3 + 4 + 2,
		},
		{
			name:               "one participant",
			input:              EventInput{Name: "Solo", Participants: names("P", 1)},
			expectedMatchCount: 0,
		},
		{
			name:          "missing name",
			input:         EventInput{Participants: names("P", 4)},
			expectedError: ErrBadRequest,
		},
		{
			name:          "duplicate lane labels",
			input:         EventInput{Name: "Dup", Lanes: []string{"A", "A"}},
			expectedError: ErrBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eventID, err := s.tournaments.CreateEvent(ctx, tc.input)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)

			snap, err := s.tournaments.Snapshot(ctx, eventID)
			require.NoError(t, err)

			assert.Equal(t, tc.input.Name, snap.Event.Name)
			assert.Len(t, snap.Participants, len(tc.input.Participants))
			assert.Len(t, snap.Matches, tc.expectedMatchCount)
			assert.Len(t, snap.Rounds, tc.expectedRounds)
			require.Len(t, snap.Lanes, len(tc.input.Lanes))
			for _, lane := range snap.Lanes {
				assert.Equal(t, bracket.LaneIdle, lane.Status)
			}
		})
	}
}

func TestCreateEvent_StoresAdvancedByes(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	eventID, err := s.tournaments.CreateEvent(ctx, EventInput{Name: "Byes", Participants: names("P", 3)})
	require.NoError(t, err)

	snap, err := s.tournaments.Snapshot(ctx, eventID)
	require.NoError(t, err)

	bye := findMatch(t, snap, bracket.WinnersGroup, 1, 1)
	assert.Equal(t, bracket.MatchCompleted, bye.Status)
	assert.Equal(t, bracket.ResultWin, bye.Opponent1.Result)

	final := findMatch(t, snap, bracket.WinnersGroup, 2, 1)
	assert.Equal(t, snap.Participants[0].ID, final.Opponent1.ParticipantID)
	assert.Equal(t, bracket.MatchWaiting, final.Status)

	// the bye consumes no match number
	numbers := bracket.MatchNumbers(snap)
	assert.Len(t, numbers, 2)
}

func TestSnapshot_NotFound(t *testing.T) {
	s := newServices(t)

	_, err := s.tournaments.Snapshot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
