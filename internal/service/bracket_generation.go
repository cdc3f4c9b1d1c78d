package service

import (
	"fmt"
	"math"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/utils"
	"github.com/google/uuid"
)

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		matchup := [2]int{rounds[i], rounds[i+1]}
		pairs = append(pairs, matchup)
	}

	return pairs
}

// generator accumulates the structure of one stage. Matches are appended
// feeder-first so a single forward pass can settle structural byes.
type generator struct {
	snap *bracket.Snapshot
	now  time.Time
}

func (g *generator) group(number int) uuid.UUID {
	id := uuid.New()
	g.snap.Groups = append(g.snap.Groups, bracket.Group{ID: id, StageID: g.snap.Stage.ID, Number: number})
	return id
}

// round adds a round of n matches and returns their indexes in snap.Matches.
func (g *generator) round(groupID uuid.UUID, number, n int) []int {
	r := bracket.Round{ID: uuid.New(), StageID: g.snap.Stage.ID, GroupID: groupID, Number: number}
	g.snap.Rounds = append(g.snap.Rounds, r)

	idx := make([]int, n)
	for i := 0; i < n; i++ {
		idx[i] = len(g.snap.Matches)
		g.snap.Matches = append(g.snap.Matches, bracket.Match{
			ID:        uuid.New(),
			EventID:   g.snap.Event.ID,
			StageID:   g.snap.Stage.ID,
			GroupID:   groupID,
			RoundID:   r.ID,
			Number:    i + 1,
			Status:    bracket.MatchLocked,
			Opponent1: bracket.PendingSlot(nil),
			Opponent2: bracket.PendingSlot(nil),
			UpdatedAt: g.now,
		})
	}
	return idx
}

func (g *generator) winnerTo(from, to, slot int) {
	g.snap.Matches[from].WinnerNext = &bracket.Link{MatchID: g.snap.Matches[to].ID, Slot: slot}
}

func (g *generator) loserTo(from, to, slot int) {
	g.snap.Matches[from].LoserNext = &bracket.Link{MatchID: g.snap.Matches[to].ID, Slot: slot}
}

// generateBracket builds the stage, groups, rounds and matches of an event.
// Slots that can never receive a participant are empty, and first-round byes
// are already walked over.
func generateBracket(event bracket.Event, stageType bracket.StageType, participants []bracket.Participant, progressor progression.Progressor, now time.Time) (*bracket.Snapshot, error) {
	switch stageType {
	case bracket.SingleElimination:
	case bracket.DoubleElimination:
		if len(participants) < 4 {
			return nil, fmt.Errorf("double elimination needs at least 4 participants: %w", ErrBadRequest)
		}
	default:
		return nil, fmt.Errorf("unknown stage type %q: %w", stageType, ErrBadRequest)
	}

	snap := &bracket.Snapshot{
		Event:        event,
		Stage:        bracket.Stage{ID: uuid.New(), EventID: event.ID, Type: stageType},
		Participants: participants,
	}
	g := &generator{snap: snap, now: now}

	bracketSize := calcBracketSize(len(participants))
	if bracketSize < 2 {
		g.group(bracket.WinnersGroup)
		return snap, nil
	}
	totalRounds := int(math.Log2(float64(bracketSize)))

	winners := g.winnersBracket(bracketSize, totalRounds, participants)
	if stageType == bracket.DoubleElimination {
		g.losersAndGrandFinal(bracketSize, totalRounds, winners)
	}

	g.settleByes()
	for i := range snap.Matches {
		snap.Matches[i].Status = progression.Refresh(&snap.Matches[i])
	}

	if _, err := advanceByes(snap, progressor); err != nil {
		return nil, err
	}
	return snap, nil
}

// advanceByes walks over every first-round bye holding a participant and
// forwards it. It returns the ids of every match it touched.
func advanceByes(snap *bracket.Snapshot, progressor progression.Progressor) ([]uuid.UUID, error) {
	g, ok := snap.GroupByNumber(bracket.WinnersGroup)
	if !ok || len(g.Rounds) == 0 {
		return nil, nil
	}

	var changed []uuid.UUID
	for _, first := range g.Rounds[0].Matches {
		m, _ := snap.Match(first.ID)
		if !m.IsBye() || len(m.Participants()) == 0 {
			continue
		}
		progression.CompleteWalkover(m)
		ids, err := progressor.Propagate(snap, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to advance bye %d: %w", m.Number, err)
		}
		changed = append(changed, m.ID)
		changed = append(changed, ids...)
	}
	return changed, nil
}

func (g *generator) winnersBracket(bracketSize, totalRounds int, participants []bracket.Participant) [][]int {
	groupID := g.group(bracket.WinnersGroup)

	rounds := make([][]int, totalRounds)
	for r := 1; r <= totalRounds; r++ {
		rounds[r-1] = g.round(groupID, r, bracketSize>>r)
	}
	for r := 0; r+1 < totalRounds; r++ {
		for i, from := range rounds[r] {
			g.winnerTo(from, rounds[r+1][i/2], i%2+1)
		}
	}

	for i, pair := range generateRound1Pairs(bracketSize) {
		m := &g.snap.Matches[rounds[0][i]]
		m.Opponent1, m.Origin1 = seedSlot(pair[0], participants)
		m.Opponent2, m.Origin2 = seedSlot(pair[1], participants)
	}
	return rounds
}

// losersAndGrandFinal adds the losers bracket and both grand final matches.
// Odd losers rounds take the winners of the previous losers round, even ones
// pair them one-to-one with the losers dropping down from the winners side.
func (g *generator) losersAndGrandFinal(bracketSize, totalRounds int, winners [][]int) {
	groupID := g.group(bracket.LosersGroup)

	count := 2 * (totalRounds - 1)
	rounds := make([][]int, count)
	for r := 1; r <= count; r++ {
		j := r / 2
		n := bracketSize >> (j + 1)
		if r%2 == 1 {
			n = bracketSize >> (j + 2)
		}
		rounds[r-1] = g.round(groupID, r, n)
	}

	for i, from := range winners[0] {
		g.loserTo(from, rounds[0][i/2], i%2+1)
	}
	for r := 2; r <= count; r += 2 {
		for i, from := range winners[r/2] {
			g.loserTo(from, rounds[r-1][i], 2)
		}
		for i, from := range rounds[r-2] {
			g.winnerTo(from, rounds[r-1][i], 1)
		}
		if r < count {
			for i, from := range rounds[r-1] {
				g.winnerTo(from, rounds[r][i/2], i%2+1)
			}
		}
	}

	gfGroup := g.group(bracket.GrandFinalGroup)
	final := g.round(gfGroup, 1, 1)[0]
	reset := g.round(gfGroup, 2, 1)[0]

	g.winnerTo(winners[len(winners)-1][0], final, 1)
	g.winnerTo(rounds[count-1][0], final, 2)
	g.winnerTo(final, reset, 1)
	g.loserTo(final, reset, 2)
}

// seedSlot returns the first-round slot of the participant with the given
// zero-based seed, and the origin a reset restores it to.
func seedSlot(seed int, participants []bracket.Participant) (bracket.Opponent, bracket.Opponent) {
	if seed >= len(participants) {
		return bracket.EmptySlot(), bracket.EmptySlot()
	}
	position := utils.Ptr(seed + 1)
	o := bracket.AssignedSlot(participants[seed].ID)
	o.Position = position
	return o, bracket.PendingSlot(position)
}

// settleByes marks every slot fed by a match that can never produce the
// needed participant as empty. A match with two empty slots has no winner,
// a match with any empty slot has no loser.
func (g *generator) settleByes() {
	index := make(map[uuid.UUID]int, len(g.snap.Matches))
	for i, m := range g.snap.Matches {
		index[m.ID] = i
	}

	for i := range g.snap.Matches {
		m := &g.snap.Matches[i]
		if m.Origin1.Kind == "" {
			m.Origin1 = bracket.PendingSlot(nil)
		}
		if m.Origin2.Kind == "" {
			m.Origin2 = bracket.PendingSlot(nil)
		}

		noWinner := m.Opponent1.IsEmpty() && m.Opponent2.IsEmpty()
		noLoser := m.Opponent1.IsEmpty() || m.Opponent2.IsEmpty()
		if m.WinnerNext != nil && noWinner {
			g.empty(index[m.WinnerNext.MatchID], m.WinnerNext.Slot)
		}
		if m.LoserNext != nil && noLoser {
			g.empty(index[m.LoserNext.MatchID], m.LoserNext.Slot)
		}
	}
}

func (g *generator) empty(i, slot int) {
	m := &g.snap.Matches[i]
	*m.Slot(slot) = bracket.EmptySlot()
	if slot == 1 {
		m.Origin1 = bracket.EmptySlot()
	} else {
		m.Origin2 = bracket.EmptySlot()
	}
}
