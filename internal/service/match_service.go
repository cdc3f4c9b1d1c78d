package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	tournaments *TournamentService
	scheduler   *LaneScheduler
	progressor  progression.Progressor
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, tournaments *TournamentService, scheduler *LaneScheduler, progressor progression.Progressor) *MatchService {
	return &MatchService{db: db, store: store, tournaments: tournaments, scheduler: scheduler, progressor: progressor}
}

type ScoreInput struct {
	Score1 int  `json:"score1"`
	Score2 int  `json:"score2"`
	Final  bool `json:"final"`
}

type ScoreResult struct {
	Match    *bracket.Match `json:"match"`
	Assigned int            `json:"assigned"`
}

// RecordScore stores a score for a match. The first score starts the match;
// a final score completes it, forwards the outcome along the bracket and
// hands its lane to the next match in line.
func (s *MatchService) RecordScore(ctx context.Context, eventID, matchID uuid.UUID, in ScoreInput) (*ScoreResult, error) {
	match, err := s.saveScore(ctx, eventID, matchID, in)
	if err != nil {
		return nil, err
	}
	if !in.Final {
		return &ScoreResult{Match: match}, nil
	}

	// The completion is already committed, a failed propagation is only logged
	if err := s.propagate(ctx, eventID, matchID); err != nil {
		slog.Error("failed to propagate match result", "event_id", eventID, "match_id", matchID, "error", err)
	}

	// The lane stays with the completed match until the next release or assign
	assigned, err := s.scheduler.ReleaseAndReassign(ctx, eventID, matchID)
	if err != nil {
		slog.Error("failed to release lane", "event_id", eventID, "match_id", matchID, "error", err)
		return &ScoreResult{Match: match}, nil
	}
	return &ScoreResult{Match: match, Assigned: assigned}, nil
}

func (s *MatchService) saveScore(ctx context.Context, eventID, matchID uuid.UUID, in ScoreInput) (*bracket.Match, error) {
	if in.Score1 < 0 || in.Score2 < 0 {
		return nil, fmt.Errorf("scores cannot be negative: %w", ErrBadRequest)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, storeErr("match", err)
	}
	if match.EventID != eventID {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if !match.Opponent1.IsAssigned() || !match.Opponent2.IsAssigned() {
		return nil, fmt.Errorf("match %s has no opponents yet: %w", matchID, ErrBadRequest)
	}
	if match.Status >= bracket.MatchCompleted {
		return nil, fmt.Errorf("match %s is already %s: %w", matchID, match.Status, ErrBadRequest)
	}

	match.Opponent1.Score = &in.Score1
	match.Opponent2.Score = &in.Score2
	match.Status = bracket.MatchRunning

	if in.Final {
		switch {
		case in.Score1 > in.Score2:
			match.Opponent1.Result, match.Opponent2.Result = bracket.ResultWin, bracket.ResultLoss
		case in.Score2 > in.Score1:
			match.Opponent1.Result, match.Opponent2.Result = bracket.ResultLoss, bracket.ResultWin
		default:
			return nil, fmt.Errorf("a final score needs a winner: %w", ErrBadRequest)
		}
		match.Status = bracket.MatchCompleted
	}
	match.UpdatedAt = time.Now().UTC()

	if _, err := s.store.UpdateMatchesTx(ctx, tx, []bracket.Match{*match}); err != nil {
		return nil, fmt.Errorf("failed to update match: %w: %w", ErrInternal, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit score: %w: %w", ErrInternal, err)
	}
	return match, nil
}

func (s *MatchService) propagate(ctx context.Context, eventID, matchID uuid.UUID) error {
	snap, err := s.tournaments.Snapshot(ctx, eventID)
	if err != nil {
		return err
	}
	changedIDs, err := s.progressor.Propagate(snap, matchID)
	if err != nil {
		return err
	}
	if len(changedIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	changed := make([]bracket.Match, 0, len(changedIDs))
	for _, id := range changedIDs {
		m, ok := snap.Match(id)
		if !ok {
			return fmt.Errorf("propagation changed unknown match %s", id)
		}
		m.UpdatedAt = now
		changed = append(changed, *m)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.store.UpdateMatchesTx(ctx, tx, changed); err != nil {
		return err
	}
	return tx.Commit()
}
