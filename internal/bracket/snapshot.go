package bracket

import (
	"sort"

	"github.com/google/uuid"
)

// Snapshot is one consistent read of an event's bracket. It has no behavior
// beyond indexing; every derived view is computed from it.
type Snapshot struct {
	Event        Event         `json:"event"`
	Stage        Stage         `json:"stage"`
	Groups       []Group       `json:"groups"`
	Rounds       []Round       `json:"rounds"`
	Matches      []Match       `json:"matches"`
	Participants []Participant `json:"participants"`
	Lanes        []Lane        `json:"lanes"`
}

type GroupTree struct {
	Group  Group
	Rounds []RoundTree
}

type RoundTree struct {
	Round   Round
	Matches []Match
}

// Tree nests the snapshot into groups, rounds and matches, each ordered by number.
func (s *Snapshot) Tree() []GroupTree {
	matchesByRound := make(map[uuid.UUID][]Match)
	for _, m := range s.Matches {
		matchesByRound[m.RoundID] = append(matchesByRound[m.RoundID], m)
	}

	roundsByGroup := make(map[uuid.UUID][]RoundTree)
	for _, r := range s.Rounds {
		matches := matchesByRound[r.ID]
		sort.Slice(matches, func(i, j int) bool { return matches[i].Number < matches[j].Number })
		roundsByGroup[r.GroupID] = append(roundsByGroup[r.GroupID], RoundTree{Round: r, Matches: matches})
	}

	groups := make([]GroupTree, 0, len(s.Groups))
	for _, g := range s.Groups {
		rounds := roundsByGroup[g.ID]
		sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round.Number < rounds[j].Round.Number })
		groups = append(groups, GroupTree{Group: g, Rounds: rounds})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Group.Number < groups[j].Group.Number })
	return groups
}

// GroupByNumber returns the nested group with the given number.
func (s *Snapshot) GroupByNumber(number int) (GroupTree, bool) {
	for _, g := range s.Tree() {
		if g.Group.Number == number {
			return g, true
		}
	}
	return GroupTree{}, false
}

func (s *Snapshot) Match(id uuid.UUID) (*Match, bool) {
	for i := range s.Matches {
		if s.Matches[i].ID == id {
			return &s.Matches[i], true
		}
	}
	return nil, false
}

// LaneHolders maps each lane to the non-completed matches holding it. A
// consistent snapshot never has more than one holder per lane.
func (s *Snapshot) LaneHolders() map[uuid.UUID][]uuid.UUID {
	holders := make(map[uuid.UUID][]uuid.UUID)
	for _, m := range s.Matches {
		if m.Lane == nil || m.Status >= MatchCompleted {
			continue
		}
		holders[m.Lane.LaneID] = append(holders[m.Lane.LaneID], m.ID)
	}
	return holders
}
