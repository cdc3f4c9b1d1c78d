package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LaneStore owns the lane columns of matches and the lanes table. Every
// write is a conditional update checked through RowsAffected so two
// schedulers racing for the same lane or match cannot both win.
type LaneStore struct {
	db *sqlx.DB
}

func NewLaneStore(db *sqlx.DB) *LaneStore {
	return &LaneStore{db: db}
}

// IdleLanes lists lanes free to take a match, in label order.
func (s *LaneStore) IdleLanes(ctx context.Context, eventID uuid.UUID) ([]bracket.Lane, error) {
	var lanes []bracket.Lane
	err := s.db.SelectContext(ctx, &lanes, s.db.Rebind(`SELECT * FROM lanes
		WHERE event_id = ? AND status = ? ORDER BY label ASC`), eventID, bracket.LaneIdle)
	return lanes, err
}

// SchedulableMatches lists matches that may be handed a lane: ready before
// waiting, then earlier rounds first. Byes never need a lane, and neither
// does a match nobody has reached yet.
func (s *LaneStore) SchedulableMatches(ctx context.Context, eventID uuid.UUID) ([]bracket.Match, error) {
	var rows []matchRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT m.* FROM matches m
		JOIN rounds r ON r.id = m.round_id
		JOIN bracket_groups g ON g.id = m.group_id
		WHERE m.event_id = ?
			AND m.lane_id IS NULL
			AND m.status IN (?, ?)
			AND m.opponent1_kind <> ? AND m.opponent2_kind <> ?
			AND (m.opponent1_kind = ? OR m.opponent2_kind = ?)
		ORDER BY CASE WHEN m.status = ? THEN 0 ELSE 1 END, r.number ASC, g.number ASC, m.number ASC`),
		eventID, bracket.MatchReady, bracket.MatchWaiting, bracket.SlotEmpty, bracket.SlotEmpty,
		bracket.SlotAssigned, bracket.SlotAssigned, bracket.MatchReady)
	if err != nil {
		return nil, err
	}
	return toMatches(rows), nil
}

// AssignLane claims an idle lane for a schedulable match. It returns false
// without error when either side was taken in the meantime.
func (s *LaneStore) AssignLane(ctx context.Context, laneID, matchID uuid.UUID, at time.Time) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := execOne(ctx, tx, `UPDATE lanes SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`, bracket.LaneOccupied, at, laneID, bracket.LaneIdle)
	if err != nil || !ok {
		return false, err
	}

	ok, err = execOne(ctx, tx, `UPDATE matches SET lane_id = ?, lane_assigned_at = ?, updated_at = ?
		WHERE id = ? AND lane_id IS NULL AND status IN (?, ?)`,
		laneID, at, at, matchID, bracket.MatchReady, bracket.MatchWaiting)
	if err != nil || !ok {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit lane assignment: %w", err)
	}
	return true, nil
}

// ReleaseLane drops the lane held by a match. The lane goes back to idle
// unless it was put under maintenance meanwhile. Returns uuid.Nil when the
// match held nothing.
func (s *LaneStore) ReleaseLane(ctx context.Context, eventID, matchID uuid.UUID, at time.Time) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var laneID *uuid.UUID
	if err := tx.GetContext(ctx, &laneID, tx.Rebind("SELECT lane_id FROM matches WHERE id = ? AND event_id = ?"), matchID, eventID); err != nil {
		return uuid.Nil, err
	}
	if laneID == nil {
		return uuid.Nil, nil
	}

	ok, err := execOne(ctx, tx, `UPDATE matches SET lane_id = NULL, lane_assigned_at = NULL, updated_at = ?
		WHERE id = ? AND lane_id = ?`, at, matchID, *laneID)
	if err != nil || !ok {
		return uuid.Nil, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE lanes SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`), bracket.LaneIdle, at, *laneID, bracket.LaneOccupied); err != nil {
		return uuid.Nil, fmt.Errorf("failed to free lane: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit lane release: %w", err)
	}
	return *laneID, nil
}

// ErrLaneStatus is returned when a lane cannot move to the requested status
// from the one it is in.
var ErrLaneStatus = errors.New("lane status change not allowed")

// SetLaneStatus moves a lane into maintenance from any status, or back to
// idle from maintenance, and detaches any match holding it. It returns the
// detached match ids.
func (s *LaneStore) SetLaneStatus(ctx context.Context, eventID, laneID uuid.UUID, status bracket.LaneStatus, at time.Time) ([]uuid.UUID, error) {
	query := "UPDATE lanes SET status = ?, updated_at = ? WHERE id = ? AND event_id = ?"
	args := []any{status, at, laneID, eventID}
	switch status {
	case bracket.LaneMaintenance:
	case bracket.LaneIdle:
		// an occupied lane is freed by releasing its match
		query += " AND status = ?"
		args = append(args, bracket.LaneMaintenance)
	default:
		return nil, fmt.Errorf("lane %s to %s: %w", laneID, status, ErrLaneStatus)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := execOne(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	if !ok {
		var current bracket.LaneStatus
		err := tx.GetContext(ctx, &current, tx.Rebind("SELECT status FROM lanes WHERE id = ? AND event_id = ?"), laneID, eventID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("lane %s is %s: %w", laneID, current, ErrLaneStatus)
	}

	var holders []uuid.UUID
	if err := tx.SelectContext(ctx, &holders, tx.Rebind("SELECT id FROM matches WHERE lane_id = ?"), laneID); err != nil {
		return nil, fmt.Errorf("failed to find lane holders: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE matches SET lane_id = NULL, lane_assigned_at = NULL, updated_at = ?
		WHERE lane_id = ?`), at, laneID); err != nil {
		return nil, fmt.Errorf("failed to detach lane holders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit lane status: %w", err)
	}
	return holders, nil
}

// execOne runs a conditional update and reports whether exactly one row matched.
func execOne(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
