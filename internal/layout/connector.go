package layout

import "github.com/google/uuid"

type ConnectorKind string

const (
	ConnectorStraight ConnectorKind = "straight"
	ConnectorElbow    ConnectorKind = "elbow"
	// ConnectorSpacer keeps the column width when nothing can be drawn.
	ConnectorSpacer ConnectorKind = "spacer"
)

// Point is relative to the connector column: X runs from 0 (left round) to
// the connector width, Y shares the rounds' vertical axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Connector struct {
	Kind ConnectorKind `json:"kind"`
	From uuid.UUID     `json:"from,omitempty"`
	To   uuid.UUID     `json:"to,omitempty"`
	Path []Point       `json:"path,omitempty"`
}

func (cfg Config) connect(left, right RoundLayout, link LinkKind) []Connector {
	if len(left.Matches) == 1 {
		if len(right.Matches) > 0 && left.Matches[0].Visible && right.Matches[0].Visible {
			from, to := left.Matches[0], right.Matches[0]
			return []Connector{{
				Kind: ConnectorStraight,
				From: from.MatchID,
				To:   to.MatchID,
				Path: []Point{
					{X: 0, Y: cfg.center(from)},
					{X: cfg.ConnectorWidth, Y: cfg.center(to)},
				},
			}}
		}
		return []Connector{{Kind: ConnectorSpacer}}
	}

	var connectors []Connector
	for j, to := range right.Matches {
		if !to.Visible {
			continue
		}
		for _, c := range link.Children(j, len(left.Matches)) {
			from := left.Matches[c]
			if !from.Visible {
				continue
			}
			connectors = append(connectors, cfg.elbow(from, to))
		}
	}
	if len(connectors) == 0 {
		return []Connector{{Kind: ConnectorSpacer}}
	}
	return connectors
}

func (cfg Config) elbow(from, to MatchPosition) Connector {
	fy, ty := cfg.center(from), cfg.center(to)
	mid := cfg.ConnectorWidth / 2
	return Connector{
		Kind: ConnectorElbow,
		From: from.MatchID,
		To:   to.MatchID,
		Path: []Point{
			{X: 0, Y: fy},
			{X: mid, Y: fy},
			{X: mid, Y: ty},
			{X: cfg.ConnectorWidth, Y: ty},
		},
	}
}
