package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/db"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type services struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	lanes       *store.LaneStore
	tournaments *TournamentService
	scheduler   *LaneScheduler
	matches     *MatchService
	reset       *ResetService
}

func newServices(t *testing.T) *services {
	database := setupTestDB(t)
	tournamentStore := store.NewTournamentStore(database)
	laneStore := store.NewLaneStore(database)
	progressor := progression.Linked{}

	s := &services{db: database, store: tournamentStore, lanes: laneStore}
	s.tournaments = NewTournamentService(database, tournamentStore, progressor)
	s.scheduler = NewLaneScheduler(laneStore)
	s.matches = NewMatchService(database, tournamentStore, s.tournaments, s.scheduler, progressor)
	s.reset = NewResetService(database, tournamentStore, progressor)
	return s
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// seedRound stores an event whose only round holds one match per status.
// Ready matches have two participants, Waiting ones a participant and a
// pending slot. Lanes are labelled A, B, C...
func seedRound(t *testing.T, s *services, lanes int, statuses ...bracket.MatchStatus) (eventID uuid.UUID, matchIDs, laneIDs []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	event := bracket.Event{ID: uuid.New(), Name: "seeded", CreatedAt: now}
	stage := bracket.Stage{ID: uuid.New(), EventID: event.ID, Type: bracket.SingleElimination}
	group := bracket.Group{ID: uuid.New(), StageID: stage.ID, Number: bracket.WinnersGroup}
	round := bracket.Round{ID: uuid.New(), StageID: stage.ID, GroupID: group.ID, Number: 1}

	var participants []bracket.Participant
	player := func() bracket.Opponent {
		p := bracket.Participant{ID: uuid.New(), EventID: event.ID, Name: "p", Seed: len(participants) + 1}
		participants = append(participants, p)
		return bracket.AssignedSlot(p.ID)
	}

	var matches []bracket.Match
	for i, status := range statuses {
		m := bracket.Match{
			ID: uuid.New(), EventID: event.ID, StageID: stage.ID, GroupID: group.ID, RoundID: round.ID,
			Number: i + 1, Status: status,
			Opponent1: player(), Opponent2: bracket.PendingSlot(nil),
			Origin1: bracket.PendingSlot(nil), Origin2: bracket.PendingSlot(nil),
			UpdatedAt: now,
		}
		if status != bracket.MatchWaiting {
			m.Opponent2 = player()
		}
		matches = append(matches, m)
		matchIDs = append(matchIDs, m.ID)
	}

	var laneRows []bracket.Lane
	for i := 0; i < lanes; i++ {
		l := bracket.Lane{ID: uuid.New(), EventID: event.ID, Label: string(rune('A' + i)), Status: bracket.LaneIdle, UpdatedAt: now}
		laneRows = append(laneRows, l)
		laneIDs = append(laneIDs, l.ID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.store.CreateEvent(ctx, tx, &event))
	require.NoError(t, s.store.CreateParticipants(ctx, tx, participants))
	require.NoError(t, s.store.CreateStage(ctx, tx, &stage))
	require.NoError(t, s.store.CreateGroups(ctx, tx, []bracket.Group{group}))
	require.NoError(t, s.store.CreateRounds(ctx, tx, []bracket.Round{round}))
	require.NoError(t, s.store.CreateMatches(ctx, tx, matches))
	require.NoError(t, s.store.CreateLanes(ctx, tx, laneRows))
	require.NoError(t, tx.Commit())
	return event.ID, matchIDs, laneIDs
}

// laneOf maps each lane-holding match to its lane.
func laneOf(t *testing.T, s *services, eventID uuid.UUID) map[uuid.UUID]uuid.UUID {
	t.Helper()
	matches, err := s.store.GetMatches(context.Background(), eventID)
	require.NoError(t, err)
	held := make(map[uuid.UUID]uuid.UUID)
	for _, m := range matches {
		if m.Lane != nil {
			held[m.ID] = m.Lane.LaneID
		}
	}
	return held
}

func findMatch(t *testing.T, snap *bracket.Snapshot, group, round, number int) *bracket.Match {
	t.Helper()
	g, ok := snap.GroupByNumber(group)
	require.True(t, ok, "group %d", group)
	for _, r := range g.Rounds {
		if r.Round.Number != round {
			continue
		}
		for _, m := range r.Matches {
			if m.Number == number {
				found, _ := snap.Match(m.ID)
				return found
			}
		}
	}
	require.Failf(t, "match not found", "%d.%d.%d", group, round, number)
	return nil
}
