package bracket

// IsBye reports whether at least one slot can never be filled.
func (m *Match) IsBye() bool {
	return m.Opponent1.IsEmpty() || m.Opponent2.IsEmpty()
}

// IsPlaceholder reports an archived match nobody played, such as a grand
// final reset that was never needed.
func (m *Match) IsPlaceholder() bool {
	return m.Status == MatchArchived && !m.HasScore()
}

// IsHidden reports whether the match should not be shown. With hideFinished
// set, decided matches are hidden too.
func (m *Match) IsHidden(hideFinished bool) bool {
	if m.IsBye() || m.IsPlaceholder() {
		return true
	}
	if hideFinished && (m.Status == MatchCompleted || m.Status == MatchArchived) && m.HasScore() {
		return true
	}
	return false
}

// HasVisibleMatches ignores hideFinished so round labels stay stable when
// finished matches are toggled off.
func (r RoundTree) HasVisibleMatches() bool {
	for i := range r.Matches {
		if !r.Matches[i].IsBye() {
			return true
		}
	}
	return false
}

// HasShownMatches is the hideFinished-aware variant used for positioning.
func (r RoundTree) HasShownMatches(hideFinished bool) bool {
	for i := range r.Matches {
		if !r.Matches[i].IsHidden(hideFinished) {
			return true
		}
	}
	return false
}

// VisibleRounds returns the rounds that hold at least one non-bye match.
func (g GroupTree) VisibleRounds() []RoundTree {
	var rounds []RoundTree
	for _, r := range g.Rounds {
		if r.HasVisibleMatches() {
			rounds = append(rounds, r)
		}
	}
	return rounds
}
