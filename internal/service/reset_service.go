package service

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ResetService struct {
	db         *sqlx.DB
	store      *store.TournamentStore
	progressor progression.Progressor
}

func NewResetService(db *sqlx.DB, store *store.TournamentStore, progressor progression.Progressor) *ResetService {
	return &ResetService{db: db, store: store, progressor: progressor}
}

// ResetPlacements clears every placement of the event: slots go back to how
// generation left them before seeding, lanes are released and every match is
// Waiting again, except the grand final reset which is archived unplayed.
// It returns the number of rows it changed, so a second run returns 0.
func (s *ResetService) ResetPlacements(ctx context.Context, eventID uuid.UUID) (int, error) {
	return s.rewrite(ctx, eventID, "reset", func(snap *bracket.Snapshot) error {
		for _, g := range snap.Tree() {
			for _, r := range g.Rounds {
				for _, m := range r.Matches {
					target, _ := snap.Match(m.ID)
					clearMatch(target, g.Group.Number, r.Round.Number)
				}
			}
		}
		return nil
	})
}

// Reseed puts the event's participants back into the bracket the way
// generation placed them: seeded slots are assigned again, byes are walked
// over and every other match is Locked, Waiting or Ready by its slots. Any
// played result is discarded. A second run returns 0.
func (s *ResetService) Reseed(ctx context.Context, eventID uuid.UUID) (int, error) {
	return s.rewrite(ctx, eventID, "reseed", func(snap *bracket.Snapshot) error {
		for i := range snap.Matches {
			m := &snap.Matches[i]
			m.Opponent1 = reseedSlot(m.Origin1, snap.Participants)
			m.Opponent2 = reseedSlot(m.Origin2, snap.Participants)
			m.Lane = nil
			m.Status = bracket.MatchLocked
			m.Status = progression.Refresh(m)
		}
		_, err := advanceByes(snap, s.progressor)
		return err
	})
}

// rewrite applies fn to the event's bracket inside one transaction, stores the
// matches whose slots or status changed and releases every lane.
func (s *ResetService) rewrite(ctx context.Context, eventID uuid.UUID, action string, fn func(*bracket.Snapshot) error) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := s.store.GetBracketTx(ctx, tx, eventID)
	if err != nil {
		return 0, storeErr("bracket", err)
	}

	before := make(map[uuid.UUID]bracket.Match, len(snap.Matches))
	for _, m := range snap.Matches {
		before[m.ID] = m
	}
	if err := fn(snap); err != nil {
		return 0, fmt.Errorf("failed to %s bracket: %w: %w", action, ErrInternal, err)
	}

	now := time.Now().UTC()
	var changed []bracket.Match
	for _, m := range snap.Matches {
		if sameState(before[m.ID], m) {
			continue
		}
		m.UpdatedAt = now
		changed = append(changed, m)
	}

	updated, err := s.store.UpdateMatchesTx(ctx, tx, changed)
	if err != nil {
		return 0, fmt.Errorf("failed to %s matches: %w: %w", action, ErrInternal, err)
	}
	released, err := s.store.ClearLaneHoldersTx(ctx, tx, eventID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to %s lanes: %w: %w", action, ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w: %w", action, ErrInternal, err)
	}

	slog.Info("bracket "+action, "event_id", eventID, "matches", updated, "lanes", released)
	return updated + released, nil
}

func clearMatch(m *bracket.Match, group, round int) {
	m.Opponent1 = m.Origin1
	m.Opponent2 = m.Origin2
	m.Lane = nil
	m.Status = bracket.MatchWaiting
	if group == bracket.GrandFinalGroup && round == 2 {
		m.Status = bracket.MatchArchived
	}
}

// reseedSlot turns a seeded origin back into the participant it stands for.
func reseedSlot(origin bracket.Opponent, participants []bracket.Participant) bracket.Opponent {
	if origin.Kind != bracket.SlotPending || origin.Position == nil {
		return origin
	}
	slot, _ := seedSlot(*origin.Position-1, participants)
	return slot
}

// sameState compares what a reset writes. Lanes are cleared separately.
func sameState(a, b bracket.Match) bool {
	return a.Status == b.Status &&
		reflect.DeepEqual(a.Opponent1, b.Opponent1) &&
		reflect.DeepEqual(a.Opponent2, b.Opponent2)
}
