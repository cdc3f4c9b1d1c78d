package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// RoundNames labels every visible round of the group. Rounds made only of
// byes get no label.
func (g GroupTree) RoundNames() map[uuid.UUID]string {
	visible := g.VisibleRounds()
	names := make(map[uuid.UUID]string, len(visible))
	for i, r := range visible {
		names[r.Round.ID] = roundName(g.Group.Number, i+1, len(visible))
	}
	return names
}

// RoundName returns the label of one round, or "" if the round is not visible.
func (g GroupTree) RoundName(roundID uuid.UUID) string {
	return g.RoundNames()[roundID]
}

func roundName(groupNumber, d, total int) string {
	switch groupNumber {
	case WinnersGroup:
		switch {
		case d == total:
			return "Final"
		case d == total-1:
			return "Semifinal"
		}
	case LosersGroup:
		if d == total {
			return "Final"
		}
	case GrandFinalGroup:
		if d == 1 {
			return "Grand Final"
		}
		return "Grand Final Reset"
	}
	return fmt.Sprintf("Round %d", d)
}

// MatchNumbers assigns 1, 2, 3... to every non-bye match, walking groups,
// rounds and matches in ascending order. Byes consume no number.
func MatchNumbers(s *Snapshot) map[uuid.UUID]int {
	numbers := make(map[uuid.UUID]int)
	next := 1
	for _, g := range s.Tree() {
		for _, r := range g.Rounds {
			for i := range r.Matches {
				if r.Matches[i].IsBye() {
					continue
				}
				numbers[r.Matches[i].ID] = next
				next++
			}
		}
	}
	return numbers
}
