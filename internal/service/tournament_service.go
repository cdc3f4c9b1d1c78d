package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db         *sqlx.DB
	store      *store.TournamentStore
	progressor progression.Progressor
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, progressor progression.Progressor) *TournamentService {
	return &TournamentService{db: db, store: store, progressor: progressor}
}

type EventInput struct {
	Name         string            `json:"name"`
	Type         bracket.StageType `json:"type"`
	Participants []string          `json:"participants"`
	Lanes        []string          `json:"lanes"`
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("event name is required: %w", ErrBadRequest)
	}
	seen := make(map[string]bool, len(in.Lanes))
	for _, label := range in.Lanes {
		if label == "" || seen[label] {
			return fmt.Errorf("lane labels must be unique and non-empty: %w", ErrBadRequest)
		}
		seen[label] = true
	}
	return nil
}

// CreateEvent stores a new event with its participants, seeded in input
// order, its idle lanes and the generated bracket.
func (s *TournamentService) CreateEvent(ctx context.Context, in EventInput) (uuid.UUID, error) {
	if err := in.validate(); err != nil {
		return uuid.Nil, err
	}
	if in.Type == "" {
		in.Type = bracket.SingleElimination
	}
	now := time.Now().UTC()

	event := bracket.Event{ID: uuid.New(), Name: in.Name, CreatedAt: now}

	participants := make([]bracket.Participant, 0, len(in.Participants))
	for i, name := range in.Participants {
		participants = append(participants, bracket.Participant{
			ID:      uuid.New(),
			EventID: event.ID,
			Name:    name,
			Seed:    i + 1,
		})
	}

	lanes := make([]bracket.Lane, 0, len(in.Lanes))
	for _, label := range in.Lanes {
		lanes = append(lanes, bracket.Lane{
			ID:        uuid.New(),
			EventID:   event.ID,
			Label:     label,
			Status:    bracket.LaneIdle,
			UpdatedAt: now,
		})
	}

	snap, err := generateBracket(event, in.Type, participants, s.progressor, now)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateEvent(ctx, tx, &event); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create event: %w", err)
	}
	if err := s.store.CreateParticipants(ctx, tx, participants); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create participants: %w", err)
	}
	if err := s.store.CreateLanes(ctx, tx, lanes); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create lanes: %w", err)
	}
	if err := s.store.CreateStage(ctx, tx, &snap.Stage); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create stage: %w", err)
	}
	if err := s.store.CreateGroups(ctx, tx, snap.Groups); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create groups: %w", err)
	}
	if err := s.store.CreateRounds(ctx, tx, snap.Rounds); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create rounds: %w", err)
	}
	if err := s.store.CreateMatches(ctx, tx, snap.Matches); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return event.ID, tx.Commit()
}

func (s *TournamentService) ListEvents(ctx context.Context) ([]bracket.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, storeErr("events", err)
	}
	return events, nil
}

// Snapshot reads the whole bracket of an event. The reads run in parallel
// and are not one transaction; callers recompute on every change anyway.
func (s *TournamentService) Snapshot(ctx context.Context, eventID uuid.UUID) (*bracket.Snapshot, error) {
	var snap bracket.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		event, err := s.store.GetEvent(gctx, eventID)
		if err != nil {
			return storeErr("event", err)
		}
		snap.Event = *event
		return nil
	})
	g.Go(func() error {
		stage, err := s.store.GetStage(gctx, eventID)
		if err != nil {
			return storeErr("stage", err)
		}
		snap.Stage = *stage
		return nil
	})
	g.Go(func() (err error) {
		if snap.Groups, err = s.store.GetGroups(gctx, eventID); err != nil {
			return storeErr("groups", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Rounds, err = s.store.GetRounds(gctx, eventID); err != nil {
			return storeErr("rounds", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Matches, err = s.store.GetMatches(gctx, eventID); err != nil {
			return storeErr("matches", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Participants, err = s.store.GetParticipants(gctx, eventID); err != nil {
			return storeErr("participants", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.Lanes, err = s.store.GetLanes(gctx, eventID); err != nil {
			return storeErr("lanes", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}
