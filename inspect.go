package flowbuilder

import (
	"io"
	"sort"
	"strings"

	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// Report describes the structure of a document.
// Node IDs are listed in document order.
type Report struct {
	// Entries are nodes of the dialect's entry type.
	Entries []string `json:"entries"`
	// Reachable nodes can be reached from an entry, entries included.
	Reachable []string `json:"reachable"`
	// Unreachable nodes can't be reached from any entry.
	Unreachable []string `json:"unreachable"`
	// Cycles are groups of nodes which can all reach each other.
	// Each group is sorted, and groups are ordered by their first ID.
	Cycles [][]string `json:"cycles"`
	// DeadEnds are nodes with output ports but no outgoing edges.
	DeadEnds []string `json:"deadEnds"`
}

// Inspect analyses the structure of g. It doesn't modify the graph.
func Inspect(g *Graph) (*Report, error) {
	ag, err := g.analysisGraph()
	if err != nil {
		return nil, err
	}

	var r Report
	reached := map[string]bool{}

	for _, nd := range g.nodes {
		if nd.Type != g.Dialect.Entry {
			continue
		}
		r.Entries = append(r.Entries, nd.ID)

		err = graph.BFS(ag, nd.ID, func(k string) bool {
			reached[k] = true
			return false // continue traversal
		})
		if err != nil {
			return nil, errors.Wrapf(err, "traversing from %s", nd.ID)
		}
	}

	outgoing := buildOutgoing(g)
	for _, nd := range g.nodes {
		if reached[nd.ID] {
			r.Reachable = append(r.Reachable, nd.ID)
		} else {
			r.Unreachable = append(r.Unreachable, nd.ID)
		}

		caps := node.CapabilitiesOf(nd.Type)
		if len(caps.OutputPorts) > 0 && len(outgoing[nd.ID]) == 0 {
			r.DeadEnds = append(r.DeadEnds, nd.ID)
		}
	}

	components, err := graph.StronglyConnectedComponents(ag)
	if err != nil {
		return nil, errors.Wrap(err, "finding cycles")
	}
	for _, c := range components {
		// a single node can't form a cycle, as self-loops are never accepted.
		if len(c) < 2 {
			continue
		}
		sort.Strings(c)
		r.Cycles = append(r.Cycles, c)
	}
	sort.Slice(r.Cycles, func(i, j int) bool {
		return r.Cycles[i][0] < r.Cycles[j][0]
	})

	return &r, nil
}

// DOT writes g in the Graphviz DOT language.
// Hidden nodes are drawn dashed, and edges are labelled with their source ports.
//
// fill shades nodes, mapping node IDs to a colour such as "#89CFF0".
// It may be nil.
func (g *Graph) DOT(w io.Writer, fill map[string]string) error {
	ag, err := g.analysisGraph()
	if err != nil {
		return err
	}

	for id, colour := range fill {
		_, props, err := ag.VertexWithProperties(id)
		if err != nil {
			return errors.Wrapf(err, "shading node %s", id)
		}
		if props.Attributes["style"] == "dashed" {
			props.Attributes["style"] = "filled,dashed"
		} else {
			props.Attributes["style"] = "filled"
		}
		props.Attributes["fillcolor"] = colour
	}

	return draw.DOT(ag, w)
}

// analysisGraph builds a dominikbraun graph of the document.
// Edges between the same pair of nodes are merged into one,
// labelled with all of their source ports.
func (g *Graph) analysisGraph() (graph.Graph[string, node.Node], error) {
	ag := graph.New(func(n node.Node) string { return n.ID }, graph.Directed())

	for _, nd := range g.nodes {
		opts := []func(*graph.VertexProperties){
			graph.VertexAttribute("label", label(nd)),
		}
		if nd.Hidden {
			opts = append(opts, graph.VertexAttribute("style", "dashed"))
		}
		err := ag.AddVertex(nd, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "adding node %s", nd.ID)
		}
	}

	type pair struct{ source, target string }
	var order []pair
	ports := map[pair][]string{}
	for _, e := range g.edges {
		p := pair{e.Source, e.Target}
		if _, ok := ports[p]; !ok {
			order = append(order, p)
		}
		ports[p] = append(ports[p], e.SourcePort)
	}

	for _, p := range order {
		err := ag.AddEdge(p.source, p.target, graph.EdgeAttribute("label", strings.Join(ports[p], ",")))
		if err != nil {
			return nil, errors.Wrapf(err, "adding edge %s -> %s", p.source, p.target)
		}
	}

	return ag, nil
}

// label prints a human-friendly label for the node.
func label(nd node.Node) string {
	if l, ok := node.ToMap(nd.Data)["label"].(string); ok && l != "" {
		return l + " (" + nd.Type.String() + ")"
	}
	return nd.ID
}
