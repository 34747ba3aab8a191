package flowbuilder

import (
	"fmt"
	"time"

	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/google/uuid"
)

// DuplicateOffset is how far a duplicated node is moved from the original.
const DuplicateOffset = 50

// Graph holds the nodes and edges of one open flow or journey document.
//
// Every mutation runs to completion and leaves the graph consistent:
// node IDs are unique and every edge references two existing nodes.
// A Graph is not safe for concurrent use. Callers that share one must
// serialize access. Use New or CreateGraph to build one; the zero
// value is an empty graph with the default clock and edge IDs.
type Graph struct {
	// Name of the document.
	Name string
	// Dialect is the builder the document belongs to.
	Dialect dialect.Dialect

	nodes []node.Node
	edges []edge.Edge

	// issued contains every node ID this graph has handed out or been seeded with,
	// so that the ID of a deleted node is never reused.
	issued map[string]struct{}
	// edgeIDs is the same for edges.
	edgeIDs map[string]struct{}

	now       func() time.Time
	newEdgeID func() string
}

// Option configures a Graph.
type Option func(g *Graph)

// WithClock sets the clock used to stamp new node IDs.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		g.now = now
	}
}

// WithEdgeIDs sets the generator for new edge IDs.
// IDs which are already taken are drawn again, then suffixed.
func WithEdgeIDs(next func() string) Option {
	return func(g *Graph) {
		g.newEdgeID = next
	}
}

// New creates an empty graph.
func New(name string, d dialect.Dialect, opts ...Option) *Graph {
	g := &Graph{
		Name:    name,
		Dialect: d,
	}
	for _, o := range opts {
		o(g)
	}
	g.init()
	return g
}

// CreateGraph creates a graph from seed nodes and edges.
//
// Seed nodes keep their IDs. Seed nodes without data get registry defaults,
// and seed edges without IDs or metadata get generated IDs and default metadata.
// Empty edge ports are filled in the same way as AddEdge.
// Duplicate IDs and edges which reference unknown nodes are rejected, as are
// edges the validator would refuse (see Validate), checked against the edges
// before them.
func CreateGraph(name string, d dialect.Dialect, seedNodes []node.Node, seedEdges []edge.Edge, opts ...Option) (*Graph, error) {
	g := New(name, d, opts...)

	for i, nd := range seedNodes {
		if _, ok := g.issued[nd.ID]; ok {
			return nil, &DuplicateNodeError{Index: i, NodeID: nd.ID}
		}
		if nd.Data == nil {
			nd.Data = node.Defaults(nd.Type)
		} else {
			nd.Data = node.Clone(nd.Data)
		}
		g.issued[nd.ID] = struct{}{}
		g.nodes = append(g.nodes, nd)
	}

	for i, e := range seedEdges {
		if _, ok := g.lookup(e.Source); !ok {
			return nil, &DanglingEdgeError{Index: i, EdgeID: e.ID, Field: "source", NodeID: e.Source}
		}
		if _, ok := g.lookup(e.Target); !ok {
			return nil, &DanglingEdgeError{Index: i, EdgeID: e.ID, Field: "target", NodeID: e.Target}
		}
		if e.ID != "" {
			if _, ok := g.edgeIDs[e.ID]; ok {
				return nil, &DuplicateEdgeError{Index: i, EdgeID: e.ID}
			}
			g.edgeIDs[e.ID] = struct{}{}
		}
		if e.Metadata == (edge.Metadata{}) {
			e.Metadata = edge.DefaultMetadata()
		}
		c := g.normalize(e.Connection())
		if err := Validate(c, g); err != nil {
			return nil, &SeedEdgeError{Index: i, EdgeID: e.ID, Err: err}
		}
		e.SourcePort, e.TargetPort = c.SourcePort, c.TargetPort
		g.edges = append(g.edges, e)
	}

	// generated IDs are drawn once every seeded ID is known.
	for i := range g.edges {
		if g.edges[i].ID == "" {
			g.edges[i].ID = g.nextEdgeID()
		}
	}

	return g, nil
}

// AddNode adds a node of type t at pos with registry default data.
// Fields in override are merged over the defaults; if they can't be
// decoded for the type the defaults are used as they are.
func (g *Graph) AddNode(t node.Type, pos node.Position, override map[string]any) node.Node {
	data := node.Defaults(t)
	if len(override) > 0 {
		if merged, err := node.Merge(data, override); err == nil {
			data = merged
		}
	}

	nd := node.Node{
		ID:       g.nextNodeID(t),
		Type:     t,
		Position: pos,
		Data:     data,
	}
	g.nodes = append(g.nodes, nd)
	return nd.Copy()
}

// UpdateNodeData merges partial into the node's data.
// It is a no-op if the node doesn't exist. If partial can't be
// decoded for the node's type a *DataError is returned and the node
// is left unchanged.
func (g *Graph) UpdateNodeData(id string, partial map[string]any) error {
	i, ok := g.lookup(id)
	if !ok {
		return nil
	}
	merged, err := node.Merge(g.nodes[i].Data, partial)
	if err != nil {
		return &DataError{Index: i, NodeID: id, Err: err}
	}
	g.nodes[i].Data = merged
	return nil
}

// MoveNode sets the position of a node. It is a no-op if the node doesn't exist.
func (g *Graph) MoveNode(id string, pos node.Position) {
	if i, ok := g.lookup(id); ok {
		g.nodes[i].Position = pos
	}
}

// SetHidden shows or hides a node. It is a no-op if the node doesn't exist.
func (g *Graph) SetHidden(id string, hidden bool) {
	if i, ok := g.lookup(id); ok {
		g.nodes[i].Hidden = hidden
	}
}

// RemoveNode removes a node together with every edge that starts or ends on it.
// It reports whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	i, ok := g.lookup(id)
	if !ok {
		return false
	}
	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if !e.Touches(id) {
			kept = append(kept, e)
		}
	}
	// clear the tail so removed edges aren't retained by the backing array.
	for j := len(kept); j < len(g.edges); j++ {
		g.edges[j] = edge.Edge{}
	}
	g.edges = kept
	return true
}

// DuplicateNode copies a node's type and data into a new node,
// offset from the original. Edges are not copied.
func (g *Graph) DuplicateNode(id string) (node.Node, bool) {
	i, ok := g.lookup(id)
	if !ok {
		return node.Node{}, false
	}
	orig := g.nodes[i]
	dup := node.Node{
		ID:       g.nextNodeID(orig.Type),
		Type:     orig.Type,
		Position: orig.Position.Offset(DuplicateOffset, DuplicateOffset),
		Data:     node.Clone(orig.Data),
		Hidden:   orig.Hidden,
	}
	g.nodes = append(g.nodes, dup)
	return dup.Copy(), true
}

// AddEdge validates a connection and, if it is accepted, adds an edge
// with default metadata. Empty ports are filled in from the node's
// capabilities. A rejected connection returns a *RejectedError and
// leaves the graph unchanged.
func (g *Graph) AddEdge(c edge.Connection) (edge.Edge, error) {
	c = g.normalize(c)
	if err := Validate(c, g); err != nil {
		return edge.Edge{}, err
	}

	e := edge.Edge{
		ID:         g.nextEdgeID(),
		Source:     c.Source,
		SourcePort: c.SourcePort,
		Target:     c.Target,
		TargetPort: c.TargetPort,
		Metadata:   edge.DefaultMetadata(),
	}
	g.edges = append(g.edges, e)
	return e, nil
}

// UpdateEdge merges a metadata patch into an edge.
// It returns false if the edge doesn't exist.
func (g *Graph) UpdateEdge(id string, p edge.Patch) (edge.Edge, bool) {
	i, ok := g.lookupEdge(id)
	if !ok {
		return edge.Edge{}, false
	}
	g.edges[i].Metadata = g.edges[i].Metadata.Apply(p)
	return g.edges[i], true
}

// RemoveEdge removes an edge. It reports whether the edge existed.
func (g *Graph) RemoveEdge(id string) bool {
	i, ok := g.lookupEdge(id)
	if !ok {
		return false
	}
	g.edges = append(g.edges[:i], g.edges[i+1:]...)
	return true
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (node.Node, bool) {
	i, ok := g.lookup(id)
	if !ok {
		return node.Node{}, false
	}
	return g.nodes[i].Copy(), true
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (edge.Edge, bool) {
	i, ok := g.lookupEdge(id)
	if !ok {
		return edge.Edge{}, false
	}
	return g.edges[i], true
}

// Nodes returns copies of the nodes in insertion order.
func (g *Graph) Nodes() []node.Node {
	out := make([]node.Node, len(g.nodes))
	for i, nd := range g.nodes {
		out[i] = nd.Copy()
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []edge.Edge {
	out := make([]edge.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *Graph) lookup(id string) (int, bool) {
	for i := range g.nodes {
		if g.nodes[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (g *Graph) lookupEdge(id string) (int, bool) {
	for i := range g.edges {
		if g.edges[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// maxEdgeIDDraws is how many times the edge ID generator is asked
// for a free ID before the last one is suffixed.
const maxEdgeIDDraws = 8

// init fills in anything a zero Graph is missing.
func (g *Graph) init() {
	if g.issued == nil {
		g.issued = map[string]struct{}{}
	}
	if g.edgeIDs == nil {
		g.edgeIDs = map[string]struct{}{}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newEdgeID == nil {
		g.newEdgeID = uuid.NewString
	}
}

// nextNodeID returns an unused "<type>-<unix millis>" ID.
// If the timestamp is taken, it's bumped until a free ID is found.
func (g *Graph) nextNodeID(t node.Type) string {
	g.init()
	stamp := g.now().UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d", t, stamp)
		if _, taken := g.issued[id]; !taken {
			g.issued[id] = struct{}{}
			return id
		}
		stamp++
	}
}

// normalize fills in empty ports: the single output port of the
// source node and the input port of the target node.
func (g *Graph) normalize(c edge.Connection) edge.Connection {
	if c.SourcePort == "" {
		if i, ok := g.lookup(c.Source); ok {
			if port, ok := node.CapabilitiesOf(g.nodes[i].Type).DefaultOutput(); ok {
				c.SourcePort = port
			}
		}
	}
	if c.TargetPort == "" {
		c.TargetPort = node.InputPort
	}
	return c
}

// nextEdgeID returns an edge ID which no edge of this graph has used.
func (g *Graph) nextEdgeID() string {
	g.init()
	id := g.newEdgeID()
	for draw := 1; g.edgeIDTaken(id) && draw < maxEdgeIDDraws; draw++ {
		id = g.newEdgeID()
	}
	base := id
	for n := 2; g.edgeIDTaken(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	g.edgeIDs[id] = struct{}{}
	return id
}

func (g *Graph) edgeIDTaken(id string) bool {
	_, taken := g.edgeIDs[id]
	return id == "" || taken
}
