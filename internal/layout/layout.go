// Package layout computes the geometric model of a bracket group: one column
// per visible round, a vertical offset per match and the connectors between
// adjacent columns. It does not draw anything.
package layout

import (
	"math"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/google/uuid"
)

// Config holds the pixel policy of the layout. Tests use scaled-down values.
type Config struct {
	MatchHeight    float64 `toml:"match_height" json:"match_height"`
	MatchGap       float64 `toml:"match_gap" json:"match_gap"`
	ByeGap         float64 `toml:"bye_gap" json:"bye_gap"`
	ConnectorWidth float64 `toml:"connector_width" json:"connector_width"`
}

func DefaultConfig() Config {
	return Config{
		MatchHeight:    80,
		MatchGap:       20,
		ByeGap:         10,
		ConnectorWidth: 40,
	}
}

type MatchPosition struct {
	MatchID uuid.UUID `json:"match_id"`
	Offset  float64   `json:"offset"`
	Visible bool      `json:"visible"`
}

type RoundLayout struct {
	RoundID uuid.UUID       `json:"round_id"`
	Number  int             `json:"number"`
	Name    string          `json:"name"`
	Matches []MatchPosition `json:"matches"`
	Height  float64         `json:"height"`
}

// Column joins round i to round i+1.
type Column struct {
	Link       LinkKind    `json:"link"`
	Connectors []Connector `json:"connectors"`
}

type GroupLayout struct {
	Group   int           `json:"group"`
	Rounds  []RoundLayout `json:"rounds"`
	Columns []Column      `json:"columns"`
}

// Compute lays out one group. Naming always uses the hideFinished-independent
// round list so labels never shift when finished matches are toggled.
func Compute(g bracket.GroupTree, hideFinished bool, cfg Config) GroupLayout {
	names := g.RoundNames()

	var rounds []bracket.RoundTree
	for _, r := range g.VisibleRounds() {
		if !hideFinished || r.HasShownMatches(true) {
			rounds = append(rounds, r)
		}
	}

	out := GroupLayout{Group: g.Group.Number}
	for i, r := range rounds {
		var rl RoundLayout
		if i == 0 {
			rl = cfg.firstRound(r, hideFinished)
		} else {
			rl = cfg.nextRound(r, out.Rounds[i-1], hideFinished)
		}
		rl.RoundID = r.Round.ID
		rl.Number = r.Round.Number
		rl.Name = names[r.Round.ID]
		out.Rounds = append(out.Rounds, rl)
	}

	maxHeight := 0.0
	for _, rl := range out.Rounds {
		maxHeight = math.Max(maxHeight, rl.Height)
	}
	for i := range out.Rounds {
		out.Rounds[i].Height = maxHeight
	}

	for i := 0; i+1 < len(out.Rounds); i++ {
		left, right := out.Rounds[i], out.Rounds[i+1]
		link := LinkBetween(len(left.Matches), len(right.Matches))
		out.Columns = append(out.Columns, Column{
			Link:       link,
			Connectors: cfg.connect(left, right, link),
		})
	}
	return out
}

func (cfg Config) firstRound(r bracket.RoundTree, hideFinished bool) RoundLayout {
	var rl RoundLayout
	offset, lastGap := 0.0, 0.0
	for i := range r.Matches {
		visible := !r.Matches[i].IsHidden(hideFinished)
		rl.Matches = append(rl.Matches, MatchPosition{MatchID: r.Matches[i].ID, Offset: offset, Visible: visible})
		if visible {
			offset += cfg.MatchHeight + cfg.MatchGap
			lastGap = cfg.MatchGap
		} else {
			offset += cfg.ByeGap
			lastGap = cfg.ByeGap
		}
	}
	rl.Height = math.Max(offset-lastGap, 0)
	return rl
}

func (cfg Config) nextRound(r bracket.RoundTree, prev RoundLayout, hideFinished bool) RoundLayout {
	var rl RoundLayout
	link := LinkBetween(len(prev.Matches), len(r.Matches))

	// minTop is where the next visible match may start without overlapping
	minTop, cursor := 0.0, 0.0
	for j := range r.Matches {
		visible := !r.Matches[j].IsHidden(hideFinished)

		var top float64
		children := link.Children(j, len(prev.Matches))
		switch len(children) {
		case 0:
			top = cursor
		case 1:
			top = cfg.center(prev.Matches[children[0]]) - cfg.MatchHeight/2
		default:
			mid := (cfg.center(prev.Matches[children[0]]) + cfg.center(prev.Matches[children[1]])) / 2
			top = mid - cfg.MatchHeight/2
		}
		top = math.Max(top, 0)

		if visible {
			top = math.Max(top, minTop)
			minTop = top + cfg.MatchHeight + cfg.MatchGap
			rl.Height = top + cfg.MatchHeight
		}
		cursor = top + cfg.MatchHeight + cfg.MatchGap

		rl.Matches = append(rl.Matches, MatchPosition{MatchID: r.Matches[j].ID, Offset: top, Visible: visible})
	}
	return rl
}

func (cfg Config) center(p MatchPosition) float64 {
	if p.Visible {
		return p.Offset + cfg.MatchHeight/2
	}
	return p.Offset + cfg.ByeGap/2
}
