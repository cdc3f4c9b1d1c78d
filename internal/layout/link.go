package layout

// LinkKind says how matches of a round are fed by the previous round.
type LinkKind string

const (
	// LinkBinaryMerge feeds match j from matches 2j and 2j+1.
	LinkBinaryMerge LinkKind = "binary_merge"
	// LinkOneToOne feeds match j from match j, as in minor loser rounds and
	// the grand final reset.
	LinkOneToOne LinkKind = "one_to_one"
)

// LinkBetween derives the link kind from round sizes. Rounds of equal size
// are treated as one-to-one.
func LinkBetween(prevCount, curCount int) LinkKind {
	if prevCount == curCount {
		return LinkOneToOne
	}
	return LinkBinaryMerge
}

// Children returns the indexes in the previous round feeding match j,
// skipping any that fall outside a round of prevCount matches.
func (k LinkKind) Children(j, prevCount int) []int {
	var candidates []int
	if k == LinkOneToOne {
		candidates = []int{j}
	} else {
		candidates = []int{2 * j, 2*j + 1}
	}

	children := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if c >= 0 && c < prevCount {
			children = append(children, c)
		}
	}
	return children
}
