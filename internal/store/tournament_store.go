package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `id, event_id, stage_id, group_id, round_id, number, status,
	opponent1_kind, opponent1_position, opponent1_participant_id, opponent1_score, opponent1_result,
	opponent2_kind, opponent2_position, opponent2_participant_id, opponent2_score, opponent2_result,
	origin1_kind, origin1_position, origin2_kind, origin2_position,
	lane_id, lane_assigned_at,
	winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot,
	updated_at`

// matchOrder sorts matches the way the bracket reads: group, round, number.
const matchOrder = `ORDER BY g.number ASC, r.number ASC, m.number ASC`

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateEvent(ctx context.Context, tx *sqlx.Tx, event *bracket.Event) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO events (id, name, created_at)
		VALUES (:id, :name, :created_at)`, event)
	return err
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO participants (id, event_id, name, seed)
		VALUES (:id, :event_id, :name, :seed)`, participants)
	return err
}

func (s *TournamentStore) CreateStage(ctx context.Context, tx *sqlx.Tx, stage *bracket.Stage) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO stages (id, event_id, stage_type, skip_first_round)
		VALUES (:id, :event_id, :stage_type, :skip_first_round)`, stage)
	return err
}

func (s *TournamentStore) CreateGroups(ctx context.Context, tx *sqlx.Tx, groups []bracket.Group) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO bracket_groups (id, stage_id, number)
		VALUES (:id, :stage_id, :number)`, groups)
	return err
}

func (s *TournamentStore) CreateRounds(ctx context.Context, tx *sqlx.Tx, rounds []bracket.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO rounds (id, stage_id, group_id, number)
		VALUES (:id, :stage_id, :group_id, :number)`, rounds)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	rows := make([]matchRow, len(matches))
	for i, m := range matches {
		rows[i] = newMatchRow(m)
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (`+matchColumns+`)
		VALUES (:id, :event_id, :stage_id, :group_id, :round_id, :number, :status,
			:opponent1_kind, :opponent1_position, :opponent1_participant_id, :opponent1_score, :opponent1_result,
			:opponent2_kind, :opponent2_position, :opponent2_participant_id, :opponent2_score, :opponent2_result,
			:origin1_kind, :origin1_position, :origin2_kind, :origin2_position,
			:lane_id, :lane_assigned_at,
			:winner_next_match_id, :winner_next_slot, :loser_next_match_id, :loser_next_slot,
			:updated_at)`, rows)
	return err
}

func (s *TournamentStore) CreateLanes(ctx context.Context, tx *sqlx.Tx, lanes []bracket.Lane) error {
	if len(lanes) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO lanes (id, event_id, label, status, updated_at)
		VALUES (:id, :event_id, :label, :status, :updated_at)`, lanes)
	return err
}

func (s *TournamentStore) GetEvent(ctx context.Context, id uuid.UUID) (*bracket.Event, error) {
	var event bracket.Event
	err := s.db.GetContext(ctx, &event, s.db.Rebind("SELECT * FROM events WHERE id = ?"), id)
	return &event, err
}

func (s *TournamentStore) ListEvents(ctx context.Context) ([]bracket.Event, error) {
	var events []bracket.Event
	err := s.db.SelectContext(ctx, &events, "SELECT * FROM events ORDER BY created_at DESC")
	return events, err
}

func (s *TournamentStore) GetStage(ctx context.Context, eventID uuid.UUID) (*bracket.Stage, error) {
	var stage bracket.Stage
	err := s.db.GetContext(ctx, &stage, s.db.Rebind("SELECT * FROM stages WHERE event_id = ?"), eventID)
	return &stage, err
}

func (s *TournamentStore) GetGroups(ctx context.Context, eventID uuid.UUID) ([]bracket.Group, error) {
	var groups []bracket.Group
	err := s.db.SelectContext(ctx, &groups, s.db.Rebind(`SELECT g.* FROM bracket_groups g
		JOIN stages st ON st.id = g.stage_id
		WHERE st.event_id = ? ORDER BY g.number ASC`), eventID)
	return groups, err
}

func (s *TournamentStore) GetRounds(ctx context.Context, eventID uuid.UUID) ([]bracket.Round, error) {
	var rounds []bracket.Round
	err := s.db.SelectContext(ctx, &rounds, s.db.Rebind(`SELECT r.* FROM rounds r
		JOIN bracket_groups g ON g.id = r.group_id
		JOIN stages st ON st.id = r.stage_id
		WHERE st.event_id = ? ORDER BY g.number ASC, r.number ASC`), eventID)
	return rounds, err
}

func (s *TournamentStore) GetParticipants(ctx context.Context, eventID uuid.UUID) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := s.db.SelectContext(ctx, &participants, s.db.Rebind("SELECT * FROM participants WHERE event_id = ? ORDER BY seed ASC"), eventID)
	return participants, err
}

func (s *TournamentStore) GetLanes(ctx context.Context, eventID uuid.UUID) ([]bracket.Lane, error) {
	var lanes []bracket.Lane
	err := s.db.SelectContext(ctx, &lanes, s.db.Rebind("SELECT * FROM lanes WHERE event_id = ? ORDER BY label ASC"), eventID)
	return lanes, err
}

func (s *TournamentStore) GetMatches(ctx context.Context, eventID uuid.UUID) ([]bracket.Match, error) {
	return s.selectMatches(ctx, s.db, eventID)
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) ([]bracket.Match, error) {
	return s.selectMatches(ctx, tx, eventID)
}

func (s *TournamentStore) selectMatches(ctx context.Context, q sqlx.ExtContext, eventID uuid.UUID) ([]bracket.Match, error) {
	var rows []matchRow
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`SELECT m.* FROM matches m
		JOIN rounds r ON r.id = m.round_id
		JOIN bracket_groups g ON g.id = m.group_id
		WHERE m.event_id = ? `+matchOrder), eventID)
	if err != nil {
		return nil, err
	}
	return toMatches(rows), nil
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	var row matchRow
	if err := tx.GetContext(ctx, &row, tx.Rebind("SELECT * FROM matches WHERE id = ?"), id); err != nil {
		return nil, err
	}
	m := row.toMatch()
	return &m, nil
}

// UpdateMatchesTx writes status and both opponents of every match and
// returns how many rows changed. Lane columns are owned by LaneStore.
func (s *TournamentStore) UpdateMatchesTx(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) (int, error) {
	changed := 0
	for _, m := range matches {
		res, err := tx.NamedExecContext(ctx, `UPDATE matches SET
			status = :status,
			opponent1_kind = :opponent1_kind, opponent1_position = :opponent1_position,
			opponent1_participant_id = :opponent1_participant_id, opponent1_score = :opponent1_score,
			opponent1_result = :opponent1_result,
			opponent2_kind = :opponent2_kind, opponent2_position = :opponent2_position,
			opponent2_participant_id = :opponent2_participant_id, opponent2_score = :opponent2_score,
			opponent2_result = :opponent2_result,
			updated_at = :updated_at
			WHERE id = :id`, newMatchRow(m))
		if err != nil {
			return changed, fmt.Errorf("failed to update match %s: %w", m.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return changed, err
		}
		changed += int(n)
	}
	return changed, nil
}

// ClearLaneHoldersTx drops every lane hold in the event and sets occupied
// lanes back to idle. Lanes under maintenance stay there.
func (s *TournamentStore) ClearLaneHoldersTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, at time.Time) (int, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE matches SET lane_id = NULL, lane_assigned_at = NULL, updated_at = ?
		WHERE event_id = ? AND lane_id IS NOT NULL`), at, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear lane holders: %w", err)
	}
	held, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE lanes SET status = ?, updated_at = ?
		WHERE event_id = ? AND status = ?`), bracket.LaneIdle, at, eventID, bracket.LaneOccupied)
	if err != nil {
		return 0, fmt.Errorf("failed to free lanes: %w", err)
	}
	freed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(held + freed), nil
}
