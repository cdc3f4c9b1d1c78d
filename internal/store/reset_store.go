package store

import (
	"context"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetBracketTx reads stage, groups, rounds, matches and participants of an
// event inside tx, each in bracket order, so a reset sees one consistent
// structure.
func (s *TournamentStore) GetBracketTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) (*bracket.Snapshot, error) {
	snap := bracket.Snapshot{}

	if err := tx.GetContext(ctx, &snap.Event, tx.Rebind("SELECT * FROM events WHERE id = ?"), eventID); err != nil {
		return nil, err
	}
	if err := tx.GetContext(ctx, &snap.Stage, tx.Rebind("SELECT * FROM stages WHERE event_id = ?"), eventID); err != nil {
		return nil, err
	}
	if err := tx.SelectContext(ctx, &snap.Groups, tx.Rebind(`SELECT * FROM bracket_groups
		WHERE stage_id = ? ORDER BY number ASC`), snap.Stage.ID); err != nil {
		return nil, err
	}
	if err := tx.SelectContext(ctx, &snap.Rounds, tx.Rebind(`SELECT r.* FROM rounds r
		JOIN bracket_groups g ON g.id = r.group_id
		WHERE r.stage_id = ? ORDER BY g.number ASC, r.number ASC`), snap.Stage.ID); err != nil {
		return nil, err
	}

	matches, err := s.selectMatches(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	snap.Matches = matches

	if err := tx.SelectContext(ctx, &snap.Participants, tx.Rebind(`SELECT * FROM participants
		WHERE event_id = ? ORDER BY seed ASC`), eventID); err != nil {
		return nil, err
	}
	return &snap, nil
}
