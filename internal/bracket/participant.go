package bracket

import "github.com/google/uuid"

type Participant struct {
	ID      uuid.UUID `db:"id" json:"id"`
	EventID uuid.UUID `db:"event_id" json:"event_id"`
	Name    string    `db:"name" json:"name"`
	Seed    int       `db:"seed" json:"seed"`
}
