package flowbuilder

import (
	"github.com/common-fate/flowbuilder/pkg/node"
)

// Default layout spacing and origin.
const (
	DefaultXSpacing = 250
	DefaultYSpacing = 150
	DefaultStartX   = 100
	DefaultStartY   = 150
)

// LayoutConfig configures the auto-layout engine.
type LayoutConfig struct {
	// XSpacing is the distance between levels.
	// It is set to DefaultXSpacing if zero.
	XSpacing float64 `json:"xSpacing"`
	// YSpacing is the distance between nodes sharing a level.
	// It is set to DefaultYSpacing if zero.
	YSpacing float64 `json:"ySpacing"`
	// StartX is the x position of level 0.
	StartX float64 `json:"startX"`
	// StartY is the centre line that every level is stacked around.
	StartY float64 `json:"startY"`
}

// DefaultLayoutConfig returns the configuration used by the builders.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		XSpacing: DefaultXSpacing,
		YSpacing: DefaultYSpacing,
		StartX:   DefaultStartX,
		StartY:   DefaultStartY,
	}
}

// LayoutResult contains the computed positions for each node.
type LayoutResult struct {
	// Positions maps every node ID in the graph to its new position.
	Positions map[string]node.Position `json:"positions"`

	// Levels maps node IDs to their depth (0 = entry node).
	Levels map[string]int `json:"levels"`

	// Order holds the node IDs of each level, in the order they were reached.
	Order [][]string `json:"order"`

	// MaxLevel is the deepest level in the graph.
	MaxLevel int `json:"maxLevel"`
}

// Layout computes a left-to-right layout for g. It doesn't modify the graph.
//
// Levels are assigned by a breadth-first traversal from the entry nodes
// (nodes of the dialect's entry type), following edges in the order
// they were added. A node is levelled the first time it is reached, so the
// traversal terminates on cyclic graphs. Nodes which can't be reached,
// including every node of a graph without an entry, are placed on level 0.
//
// Nodes on a level are stacked around StartY in the order they were reached:
//
//	x = StartX + level * XSpacing
//	y = StartY + (i - (k-1)/2) * YSpacing
func Layout(g *Graph, cfg LayoutConfig) *LayoutResult {
	if cfg.XSpacing == 0 {
		cfg.XSpacing = DefaultXSpacing
	}
	if cfg.YSpacing == 0 {
		cfg.YSpacing = DefaultYSpacing
	}

	res := &LayoutResult{
		Positions: make(map[string]node.Position, len(g.nodes)),
		Levels:    make(map[string]int, len(g.nodes)),
	}

	place := func(id string, level int) {
		res.Levels[id] = level
		for len(res.Order) <= level {
			res.Order = append(res.Order, nil)
		}
		res.Order[level] = append(res.Order[level], id)
		if level > res.MaxLevel {
			res.MaxLevel = level
		}
	}

	outgoing := buildOutgoing(g)

	var queue []string
	for _, nd := range g.nodes {
		if nd.Type == g.Dialect.Entry {
			place(nd.ID, 0)
			queue = append(queue, nd.ID)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range outgoing[current] {
			if _, levelled := res.Levels[target]; levelled {
				continue
			}
			place(target, res.Levels[current]+1)
			queue = append(queue, target)
		}
	}

	// disconnected nodes are parked on level 0 rather than dropped.
	for _, nd := range g.nodes {
		if _, levelled := res.Levels[nd.ID]; !levelled {
			place(nd.ID, 0)
		}
	}

	for level, ids := range res.Order {
		k := len(ids)
		x := cfg.StartX + float64(level)*cfg.XSpacing
		for i, id := range ids {
			offset := float64(i) - float64(k-1)/2
			res.Positions[id] = node.Position{X: x, Y: cfg.StartY + offset*cfg.YSpacing}
		}
	}

	return res
}

// RunAutoLayout computes the layout of g and applies it by moving every node.
// It returns the applied positions.
func RunAutoLayout(g *Graph, cfg LayoutConfig) map[string]node.Position {
	res := Layout(g, cfg)
	for _, nd := range g.nodes {
		if pos, ok := res.Positions[nd.ID]; ok {
			g.MoveNode(nd.ID, pos)
		}
	}
	return res.Positions
}

// buildOutgoing builds a map of node ID -> target node IDs, in edge order.
func buildOutgoing(g *Graph) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range g.edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}
