package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/google/uuid"
)

// LaneStore is the storage contract of the scheduler. Every write is a
// single conditional update that either applies completely or not at all.
type LaneStore interface {
	IdleLanes(ctx context.Context, eventID uuid.UUID) ([]bracket.Lane, error)
	SchedulableMatches(ctx context.Context, eventID uuid.UUID) ([]bracket.Match, error)
	AssignLane(ctx context.Context, laneID, matchID uuid.UUID, at time.Time) (bool, error)
	ReleaseLane(ctx context.Context, eventID, matchID uuid.UUID, at time.Time) (uuid.UUID, error)
	SetLaneStatus(ctx context.Context, eventID, laneID uuid.UUID, status bracket.LaneStatus, at time.Time) ([]uuid.UUID, error)
}

var _ LaneStore = (*store.LaneStore)(nil)

type LaneScheduler struct {
	lanes LaneStore
	now   func() time.Time
}

func NewLaneScheduler(lanes LaneStore) *LaneScheduler {
	return &LaneScheduler{lanes: lanes, now: func() time.Time { return time.Now().UTC() }}
}

// AutoAssign pairs idle lanes, in label order, with schedulable matches in
// priority order and returns how many pairs were stored. A pair that loses a
// race or fails is logged and skipped.
func (s *LaneScheduler) AutoAssign(ctx context.Context, eventID uuid.UUID) (int, error) {
	lanes, err := s.lanes.IdleLanes(ctx, eventID)
	if err != nil {
		return 0, storeErr("idle lanes", err)
	}
	if len(lanes) == 0 {
		return 0, nil
	}

	matches, err := s.lanes.SchedulableMatches(ctx, eventID)
	if err != nil {
		return 0, storeErr("schedulable matches", err)
	}

	at := s.now()
	assigned := 0
	for i := 0; i < min(len(lanes), len(matches)); i++ {
		lane, match := lanes[i], matches[i]
		ok, err := s.lanes.AssignLane(ctx, lane.ID, match.ID, at)
		if err != nil {
			slog.Warn("lane assignment failed", "event_id", eventID, "lane_id", lane.ID, "match_id", match.ID, "error", err)
			continue
		}
		if !ok {
			slog.Warn("lane assignment skipped, lane or match was taken", "event_id", eventID, "lane_id", lane.ID, "match_id", match.ID)
			continue
		}
		assigned++
	}

	if assigned > 0 {
		slog.Info("lanes assigned", "event_id", eventID, "assigned", assigned)
	}
	return assigned, nil
}

// ReleaseAndReassign frees the lane of a match and fills idle lanes again.
// A match that holds no lane is not an error and assigns nothing.
func (s *LaneScheduler) ReleaseAndReassign(ctx context.Context, eventID, matchID uuid.UUID) (int, error) {
	laneID, err := s.lanes.ReleaseLane(ctx, eventID, matchID, s.now())
	if err != nil {
		return 0, storeErr("match", err)
	}
	if laneID == uuid.Nil {
		return 0, nil
	}
	slog.Info("lane released", "event_id", eventID, "lane_id", laneID, "match_id", matchID)

	return s.AutoAssign(ctx, eventID)
}

func (s *LaneScheduler) SetMaintenance(ctx context.Context, eventID, laneID uuid.UUID) error {
	return s.setStatus(ctx, eventID, laneID, bracket.LaneMaintenance)
}

// SetIdle returns a lane from maintenance to service. It does not assign it;
// callers run AutoAssign when they want the lane filled. An occupied lane is
// freed by releasing its match instead.
func (s *LaneScheduler) SetIdle(ctx context.Context, eventID, laneID uuid.UUID) error {
	return s.setStatus(ctx, eventID, laneID, bracket.LaneIdle)
}

func (s *LaneScheduler) setStatus(ctx context.Context, eventID, laneID uuid.UUID, status bracket.LaneStatus) error {
	detached, err := s.lanes.SetLaneStatus(ctx, eventID, laneID, status, s.now())
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lane %s: %w", laneID, ErrNotFound)
	}
	if errors.Is(err, store.ErrLaneStatus) {
		return fmt.Errorf("%w: %w", err, ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to set lane %s to %s: %w: %w", laneID, status, ErrInternal, err)
	}
	slog.Info("lane status changed", "event_id", eventID, "lane_id", laneID, "status", status, "detached", len(detached))
	return nil
}
