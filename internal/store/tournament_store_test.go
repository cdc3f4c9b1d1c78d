package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/db"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every connection to :memory: is its own database
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type fixture struct {
	event        bracket.Event
	stage        bracket.Stage
	group        bracket.Group
	round        bracket.Round
	participants []bracket.Participant
	matches      []bracket.Match
	lanes        []bracket.Lane
}

// seedRound stores a single-group event with one round of `matches` matches
// between consecutive participants and `lanes` idle lanes labelled A, B, ...
func seedRound(t *testing.T, database *sqlx.DB, matches, lanes int) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	f := fixture{event: bracket.Event{ID: uuid.New(), Name: "Open", CreatedAt: now}}
	f.stage = bracket.Stage{ID: uuid.New(), EventID: f.event.ID, Type: bracket.SingleElimination}
	f.group = bracket.Group{ID: uuid.New(), StageID: f.stage.ID, Number: bracket.WinnersGroup}
	f.round = bracket.Round{ID: uuid.New(), StageID: f.stage.ID, GroupID: f.group.ID, Number: 1}

	for i := 0; i < matches*2; i++ {
		f.participants = append(f.participants, bracket.Participant{
			ID: uuid.New(), EventID: f.event.ID, Name: fmt.Sprintf("P%d", i+1), Seed: i + 1,
		})
	}
	for i := 0; i < matches; i++ {
		f.matches = append(f.matches, bracket.Match{
			ID: uuid.New(), EventID: f.event.ID, StageID: f.stage.ID, GroupID: f.group.ID, RoundID: f.round.ID,
			Number:    i + 1,
			Status:    bracket.MatchReady,
			Opponent1: bracket.AssignedSlot(f.participants[2*i].ID),
			Opponent2: bracket.AssignedSlot(f.participants[2*i+1].ID),
			Origin1:   bracket.PendingSlot(utils.Ptr(2*i + 1)),
			Origin2:   bracket.PendingSlot(utils.Ptr(2*i + 2)),
			UpdatedAt: now,
		})
	}
	for i := 0; i < lanes; i++ {
		f.lanes = append(f.lanes, bracket.Lane{
			ID: uuid.New(), EventID: f.event.ID, Label: string(rune('A' + i)), Status: bracket.LaneIdle, UpdatedAt: now,
		})
	}

	s := NewTournamentStore(database)
	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateEvent(ctx, tx, &f.event))
	require.NoError(t, s.CreateParticipants(ctx, tx, f.participants))
	require.NoError(t, s.CreateStage(ctx, tx, &f.stage))
	require.NoError(t, s.CreateGroups(ctx, tx, []bracket.Group{f.group}))
	require.NoError(t, s.CreateRounds(ctx, tx, []bracket.Round{f.round}))
	require.NoError(t, s.CreateMatches(ctx, tx, f.matches))
	require.NoError(t, s.CreateLanes(ctx, tx, f.lanes))
	require.NoError(t, tx.Commit())
	return f
}

func TestCreateEvent(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)

	f := seedRound(t, database, 0, 0)

	fetched, err := store.GetEvent(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, f.event.ID, fetched.ID)
	assert.Equal(t, f.event.Name, fetched.Name)
	assert.WithinDuration(t, f.event.CreatedAt, fetched.CreatedAt, time.Second)

	stage, err := store.GetStage(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.SingleElimination, stage.Type)
}

func TestCreateMatches(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	ctx := context.Background()

	f := seedRound(t, database, 2, 0)

	// link match 1 into match 2 and turn match 2 into a bye
	next := f.matches[1]
	next.ID = uuid.New()
	next.Number = 3
	next.Opponent1 = bracket.PendingSlot(nil)
	next.Opponent2 = bracket.EmptySlot()
	next.Origin1 = bracket.PendingSlot(nil)
	next.Origin2 = bracket.EmptySlot()
	next.Status = bracket.MatchLocked

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateMatches(ctx, tx, []bracket.Match{next}))
	require.NoError(t, tx.Commit())

	matches, err := store.GetMatches(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	first := matches[0]
	assert.Equal(t, f.matches[0].ID, first.ID)
	assert.Equal(t, bracket.MatchReady, first.Status)
	assert.Equal(t, bracket.SlotAssigned, first.Opponent1.Kind)
	assert.Equal(t, f.participants[0].ID, first.Opponent1.ParticipantID)
	require.NotNil(t, first.Origin1.Position)
	assert.Equal(t, 1, *first.Origin1.Position)
	assert.Nil(t, first.Lane)
	assert.Nil(t, first.WinnerNext)

	bye := matches[2]
	assert.Equal(t, bracket.MatchLocked, bye.Status)
	assert.True(t, bye.Opponent2.IsEmpty())
	assert.Equal(t, uuid.Nil, bye.Opponent1.ParticipantID)
	assert.True(t, bye.IsBye())
}

func TestUpdateMatchesTx(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	ctx := context.Background()

	f := seedRound(t, database, 2, 0)

	m := f.matches[0]
	m.Status = bracket.MatchCompleted
	m.Opponent1.Score = utils.Ptr(3)
	m.Opponent1.Result = bracket.ResultWin
	m.Opponent2.Score = utils.Ptr(1)
	m.Opponent2.Result = bracket.ResultLoss

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	changed, err := store.UpdateMatchesTx(ctx, tx, []bracket.Match{m})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	fetched, err := store.GetMatchTx(ctx, tx, m.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, bracket.MatchCompleted, fetched.Status)
	require.NotNil(t, fetched.Opponent1.Score)
	assert.Equal(t, 3, *fetched.Opponent1.Score)
	assert.Equal(t, bracket.ResultWin, fetched.Opponent1.Result)
	assert.Equal(t, bracket.ResultLoss, fetched.Opponent2.Result)
}

func TestGetMatchTx_NotFound(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	ctx := context.Background()

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = store.GetMatchTx(ctx, tx, uuid.New())
	assert.Error(t, err)
}
