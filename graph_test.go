package flowbuilder

import (
	"fmt"
	"testing"
	"time"

	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/common-fate/flowbuilder/pkg/node/n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock always returns the same time, so that generated node IDs collide
// and have to be bumped.
func fixedClock() Option {
	return WithClock(func() time.Time { return time.UnixMilli(1000) })
}

// sequentialEdgeIDs generates edge IDs "edge-1", "edge-2", ...
func sequentialEdgeIDs() Option {
	i := 0
	return WithEdgeIDs(func() string {
		i++
		return fmt.Sprintf("edge-%d", i)
	})
}

// assertConsistent checks that every edge references existing nodes
// and that node IDs are unique.
func assertConsistent(t *testing.T, g *Graph) {
	t.Helper()
	ids := map[string]bool{}
	for _, nd := range g.Nodes() {
		assert.False(t, ids[nd.ID], "duplicate node id %s", nd.ID)
		ids[nd.ID] = true
	}
	for _, e := range g.Edges() {
		assert.True(t, ids[e.Source], "edge %s has dangling source %s", e.ID, e.Source)
		assert.True(t, ids[e.Target], "edge %s has dangling target %s", e.ID, e.Target)
	}
}

func edgeIDs(g *Graph) []string {
	var ids []string
	for _, e := range g.Edges() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestCreateGraph(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []node.Node
		edges   []edge.Edge
		wantErr error
	}{
		{
			name:  "ok",
			nodes: []node.Node{n.Entry("E"), n.Queue("Q")},
			edges: []edge.Edge{n.Edge("E", "Q")},
		},
		{
			name:  "empty",
			nodes: nil,
			edges: nil,
		},
		{
			name:    "duplicate node",
			nodes:   []node.Node{n.Entry("E"), n.Queue("E")},
			wantErr: &DuplicateNodeError{Index: 1, NodeID: "E"},
		},
		{
			name:    "dangling source",
			nodes:   []node.Node{n.Queue("Q")},
			edges:   []edge.Edge{n.Edge("E", "Q")},
			wantErr: &DanglingEdgeError{Index: 0, EdgeID: "E:out->Q", Field: "source", NodeID: "E"},
		},
		{
			name:    "dangling target",
			nodes:   []node.Node{n.Entry("E")},
			edges:   []edge.Edge{n.Edge("E", "Q")},
			wantErr: &DanglingEdgeError{Index: 0, EdgeID: "E:out->Q", Field: "target", NodeID: "Q"},
		},
		{
			name:    "duplicate edge id",
			nodes:   []node.Node{n.Entry("E"), n.Queue("Q")},
			edges:   []edge.Edge{n.Edge("E", "Q"), n.Edge("E", "Q")},
			wantErr: &DuplicateEdgeError{Index: 1, EdgeID: "E:out->Q"},
		},
		{
			name:  "self-loop",
			nodes: []node.Node{n.Queue("Q")},
			edges: []edge.Edge{n.Edge("Q", "Q")},
			wantErr: &SeedEdgeError{Index: 0, EdgeID: "Q:out->Q", Err: &RejectedError{
				Reason:     ReasonSelfLoop,
				Connection: edge.Connection{Source: "Q", SourcePort: "out", Target: "Q", TargetPort: "in"},
			}},
		},
		{
			name:  "same connection twice",
			nodes: []node.Node{n.Entry("E"), n.Queue("Q")},
			edges: []edge.Edge{n.Edge("E", "Q"), {ID: "again", Source: "E", Target: "Q"}},
			wantErr: &SeedEdgeError{Index: 1, EdgeID: "again", Err: &RejectedError{
				Reason:     ReasonDuplicate,
				Connection: edge.Connection{Source: "E", SourcePort: "out", Target: "Q", TargetPort: "in"},
			}},
		},
		{
			name:  "port the node doesn't have",
			nodes: []node.Node{n.Entry("E"), n.Exit("X")},
			edges: []edge.Edge{n.Port("X", "bogus", "E")},
			wantErr: &SeedEdgeError{Index: 0, EdgeID: "X:bogus->E", Err: &RejectedError{
				Reason:     ReasonInvalidPort,
				Connection: edge.Connection{Source: "X", SourcePort: "bogus", Target: "E", TargetPort: "in"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := CreateGraph("test", dialect.Flow, tt.nodes, tt.edges)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, g.Nodes(), len(tt.nodes))
			assert.Len(t, g.Edges(), len(tt.edges))
			assertConsistent(t, g)
		})
	}
}

func TestCreateGraphFillsDefaults(t *testing.T) {
	nodes := []node.Node{
		{ID: "E", Type: node.Entry},
		{ID: "Q", Type: node.Queue},
	}
	edges := []edge.Edge{{Source: "E", SourcePort: node.OutputPort, Target: "Q", TargetPort: node.InputPort}}

	g, err := CreateGraph("test", dialect.Flow, nodes, edges, sequentialEdgeIDs())
	require.NoError(t, err)

	q, ok := g.Node("Q")
	require.True(t, ok)
	assert.Equal(t, node.Defaults(node.Queue), q.Data)

	e, ok := g.Edge("edge-1")
	require.True(t, ok)
	assert.Equal(t, edge.DefaultMetadata(), e.Metadata)
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name     string
		typ      node.Type
		override map[string]any
		wantID   string
		wantData node.Data
	}{
		{
			name:     "defaults",
			typ:      node.Queue,
			wantID:   "queue-1000",
			wantData: node.QueueData{Label: "Queue", QueueName: "General", Strategy: "round-robin", MaxWaitSeconds: 300, MusicOnHold: true},
		},
		{
			name:     "override",
			typ:      node.Queue,
			override: map[string]any{"label": "Billing", "maxWaitSeconds": 60},
			wantID:   "queue-1000",
			wantData: node.QueueData{Label: "Billing", QueueName: "General", Strategy: "round-robin", MaxWaitSeconds: 60, MusicOnHold: true},
		},
		{
			name:     "invalid override uses defaults",
			typ:      node.Queue,
			override: map[string]any{"maxWaitSeconds": "forever"},
			wantID:   "queue-1000",
			wantData: node.Defaults(node.Queue),
		},
		{
			name:     "unknown type",
			typ:      "fax",
			wantID:   "fax-1000",
			wantData: node.Custom{Kind: "fax", Fields: map[string]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New("test", dialect.Flow, fixedClock())
			pos := node.Position{X: 10, Y: 20}

			got := g.AddNode(tt.typ, pos, tt.override)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, pos, got.Position)
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}

func TestNodeIDsAreNeverReused(t *testing.T) {
	g := New("test", dialect.Flow, fixedClock())

	first := g.AddNode(node.Queue, node.Position{}, nil)
	second := g.AddNode(node.Queue, node.Position{}, nil)
	assert.Equal(t, "queue-1000", first.ID)
	assert.Equal(t, "queue-1001", second.ID)

	require.True(t, g.RemoveNode(first.ID))
	third := g.AddNode(node.Queue, node.Position{}, nil)
	assert.Equal(t, "queue-1002", third.ID)

	dup, ok := g.DuplicateNode(third.ID)
	require.True(t, ok)
	assert.Equal(t, "queue-1003", dup.ID)
}

func TestZeroGraph(t *testing.T) {
	var g Graph

	e := g.AddNode(node.Entry, node.Position{}, nil)
	q := g.AddNode(node.Queue, node.Position{}, nil)
	assert.NotEqual(t, e.ID, q.ID)

	got, err := g.AddEdge(n.Connect(e.ID, q.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assertConsistent(t, &g)
}

func TestEdgeIDsAreNeverReused(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow,
		[]node.Node{n.Entry("E"), n.Queue("Q"), n.Exit("X")},
		[]edge.Edge{{ID: "edge-1", Source: "E", Target: "Q"}},
		sequentialEdgeIDs(),
	)
	require.NoError(t, err)

	added, err := g.AddEdge(n.Connect("Q", "X"))
	require.NoError(t, err)
	assert.Equal(t, "edge-2", added.ID)

	require.True(t, g.RemoveEdge("edge-1"))
	_, ok := g.Edge("edge-1")
	assert.False(t, ok)

	require.True(t, g.RemoveEdge("edge-2"))
	again, err := g.AddEdge(n.Connect("Q", "X"))
	require.NoError(t, err)
	assert.Equal(t, "edge-3", again.ID)
}

func TestGeneratedEdgeIDsAvoidLaterSeeds(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow,
		[]node.Node{n.Entry("E"), n.Queue("Q"), n.Exit("X")},
		[]edge.Edge{
			{Source: "E", Target: "Q"},
			{ID: "edge-1", Source: "Q", Target: "X"},
		},
		sequentialEdgeIDs(),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"edge-2", "edge-1"}, edgeIDs(g))
}

func TestEdgeIDGeneratorCollisions(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow,
		[]node.Node{n.Entry("E"), n.Queue("Q"), n.Exit("X"), n.Voicemail("V")},
		[]edge.Edge{{ID: "fixed", Source: "E", Target: "Q"}},
		WithEdgeIDs(func() string { return "fixed" }),
	)
	require.NoError(t, err)

	first, err := g.AddEdge(n.Connect("Q", "X"))
	require.NoError(t, err)
	second, err := g.AddEdge(n.Connect("Q", "V"))
	require.NoError(t, err)

	assert.Equal(t, "fixed-2", first.ID)
	assert.Equal(t, "fixed-3", second.ID)
}

func TestNodeIDsAvoidSeededNodes(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{n.Queue("queue-1000")}, nil, fixedClock())
	require.NoError(t, err)

	got := g.AddNode(node.Queue, node.Position{}, nil)
	assert.Equal(t, "queue-1001", got.ID)
}

func TestUpdateNodeData(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		partial  map[string]any
		wantData node.Data
		wantErr  bool
	}{
		{
			name:     "merges fields",
			id:       "Q",
			partial:  map[string]any{"label": "Billing"},
			wantData: node.QueueData{Label: "Billing", QueueName: "General", Strategy: "round-robin", MaxWaitSeconds: 300, MusicOnHold: true},
		},
		{
			name:     "weakly typed input",
			id:       "Q",
			partial:  map[string]any{"maxWaitSeconds": "45"},
			wantData: node.QueueData{Label: "Queue", QueueName: "General", Strategy: "round-robin", MaxWaitSeconds: 45, MusicOnHold: true},
		},
		{
			name:     "undecodable field leaves node unchanged",
			id:       "Q",
			partial:  map[string]any{"maxWaitSeconds": "forever"},
			wantData: node.Defaults(node.Queue),
			wantErr:  true,
		},
		{
			name:     "unknown node is a no-op",
			id:       "missing",
			partial:  map[string]any{"label": "Billing"},
			wantData: node.Defaults(node.Queue),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := CreateGraph("test", dialect.Flow, []node.Node{n.Queue("Q")}, nil)
			require.NoError(t, err)

			err = g.UpdateNodeData(tt.id, tt.partial)
			if tt.wantErr {
				var de *DataError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.id, de.NodeID)
			} else {
				assert.NoError(t, err)
			}

			got, _ := g.Node("Q")
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}

func TestMoveAndHideNode(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{n.Queue("Q")}, nil)
	require.NoError(t, err)

	g.MoveNode("Q", node.Position{X: 300, Y: 400})
	g.SetHidden("Q", true)
	g.MoveNode("missing", node.Position{X: 1, Y: 1})
	g.SetHidden("missing", true)

	got, _ := g.Node("Q")
	assert.Equal(t, node.Position{X: 300, Y: 400}, got.Position)
	assert.True(t, got.Hidden)
	assert.Len(t, g.Nodes(), 1)
}

func TestRemoveNode(t *testing.T) {
	nodes := []node.Node{n.Entry("E"), n.IVR("I"), n.Queue("Q"), n.Voicemail("V"), n.Exit("X"), n.Transfer("T")}
	edges := []edge.Edge{
		n.Edge("E", "I"),
		n.Edge("I", "Q"),
		n.Edge("I", "V"),
		n.Edge("Q", "X"),
		n.Edge("V", "X"),
	}

	tests := []struct {
		name      string
		remove    string
		wantOK    bool
		wantEdges []string
	}{
		{
			name:      "removes incident edges only",
			remove:    "I",
			wantOK:    true,
			wantEdges: []string{"Q:out->X", "V:out->X"},
		},
		{
			name:      "node without edges",
			remove:    "T",
			wantOK:    true,
			wantEdges: []string{"E:out->I", "I:out->Q", "I:out->V", "Q:out->X", "V:out->X"},
		},
		{
			name:      "sink node",
			remove:    "X",
			wantOK:    true,
			wantEdges: []string{"E:out->I", "I:out->Q", "I:out->V"},
		},
		{
			name:      "unknown node",
			remove:    "missing",
			wantOK:    false,
			wantEdges: []string{"E:out->I", "I:out->Q", "I:out->V", "Q:out->X", "V:out->X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := CreateGraph("test", dialect.Flow, nodes, edges)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, g.RemoveNode(tt.remove))
			assert.Equal(t, tt.wantEdges, edgeIDs(g))
			_, exists := g.Node(tt.remove)
			assert.False(t, exists)
			assertConsistent(t, g)
		})
	}
}

// TestReferentialIntegrity applies a sequence of mutations, checking
// that the graph stays consistent after each one.
func TestReferentialIntegrity(t *testing.T) {
	g := New("test", dialect.Flow, fixedClock(), sequentialEdgeIDs())

	entry := g.AddNode(node.Entry, node.Position{}, nil)
	ivr := g.AddNode(node.IVR, node.Position{}, nil)
	queue := g.AddNode(node.Queue, node.Position{}, nil)
	exit := g.AddNode(node.Exit, node.Position{}, nil)

	steps := []func(){
		func() { g.AddEdge(edge.Connection{Source: entry.ID, Target: ivr.ID}) },
		func() { g.AddEdge(edge.Connection{Source: ivr.ID, Target: queue.ID}) },
		func() { g.AddEdge(edge.Connection{Source: queue.ID, Target: exit.ID}) },
		func() { g.AddEdge(edge.Connection{Source: ivr.ID, Target: exit.ID}) },
		func() { g.DuplicateNode(queue.ID) },
		func() { g.RemoveNode(queue.ID) },
		func() { g.AddEdge(edge.Connection{Source: queue.ID, Target: exit.ID}) },
		func() { g.RemoveEdge("edge-1") },
		func() { g.RemoveNode(exit.ID) },
		func() { g.RemoveNode(entry.ID) },
		func() { g.AddEdge(edge.Connection{Source: ivr.ID, Target: "missing"}) },
		func() { g.RemoveNode(ivr.ID) },
	}

	for i, step := range steps {
		step()
		t.Run(fmt.Sprintf("after step %d", i), func(t *testing.T) {
			assertConsistent(t, g)
		})
	}
	assert.Empty(t, g.Edges())
}

func TestDuplicateNode(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{
		n.At(100, 150).Entry("E"),
		n.At(350, 150).Of(node.IVR, "I"),
	}, []edge.Edge{n.Edge("E", "I")}, fixedClock())
	require.NoError(t, err)

	dup, ok := g.DuplicateNode("I")
	require.True(t, ok)
	assert.Equal(t, "ivr-1000", dup.ID)
	assert.Equal(t, node.IVR, dup.Type)
	assert.Equal(t, node.Position{X: 400, Y: 200}, dup.Position)

	orig, _ := g.Node("I")
	assert.Equal(t, orig.Data, dup.Data)

	// edges are not copied.
	assert.Len(t, g.Edges(), 1)

	// the copy's data is independent of the original.
	require.NoError(t, g.UpdateNodeData(dup.ID, map[string]any{"options": map[string]any{"9": "Operator"}}))
	orig, _ = g.Node("I")
	assert.Equal(t, map[string]string{"1": "Sales", "2": "Support"}, orig.Data.(node.IVRData).Options)

	_, ok = g.DuplicateNode("missing")
	assert.False(t, ok)
}

func TestNodesAreCopies(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{n.IVR("I")}, nil)
	require.NoError(t, err)

	got, _ := g.Node("I")
	got.Data.(node.IVRData).Options["3"] = "Billing"

	got, _ = g.Node("I")
	assert.NotContains(t, got.Data.(node.IVRData).Options, "3")
}

func TestAddEdge(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{n.Entry("E"), n.Queue("Q")}, nil, sequentialEdgeIDs())
	require.NoError(t, err)

	got, err := g.AddEdge(edge.Connection{Source: "E", Target: "Q"})
	require.NoError(t, err)

	want := edge.Edge{
		ID:         "edge-1",
		Source:     "E",
		SourcePort: node.OutputPort,
		Target:     "Q",
		TargetPort: node.InputPort,
		Metadata:   edge.Metadata{TimeoutValue: 30, TimeoutUnit: edge.Seconds, FallbackAction: edge.Continue},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []edge.Edge{want}, g.Edges())

	_, err = g.AddEdge(n.Connect("E", "Q"))
	reason, ok := RejectionReason(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonDuplicate, reason)
	assert.Len(t, g.Edges(), 1)
}

func TestUpdateEdge(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		patch  edge.Patch
		wantOK bool
		want   edge.Metadata
	}{
		{
			name:   "timeout only",
			id:     "E:out->Q",
			patch:  edge.Patch{TimeoutValue: edge.Ptr(2.0), TimeoutUnit: edge.Ptr(edge.Minutes)},
			wantOK: true,
			want:   edge.Metadata{TimeoutValue: 2, TimeoutUnit: edge.Minutes, FallbackAction: edge.Continue},
		},
		{
			name:   "fallback only",
			id:     "E:out->Q",
			patch:  edge.Patch{FallbackAction: edge.Ptr(edge.Voicemail)},
			wantOK: true,
			want:   edge.Metadata{TimeoutValue: 30, TimeoutUnit: edge.Seconds, FallbackAction: edge.Voicemail},
		},
		{
			name:   "unknown edge",
			id:     "missing",
			patch:  edge.Patch{FallbackAction: edge.Ptr(edge.Voicemail)},
			wantOK: false,
			want:   edge.DefaultMetadata(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := CreateGraph("test", dialect.Flow, []node.Node{n.Entry("E"), n.Queue("Q")}, []edge.Edge{n.Edge("E", "Q")})
			require.NoError(t, err)

			_, ok := g.UpdateEdge(tt.id, tt.patch)
			assert.Equal(t, tt.wantOK, ok)

			got, _ := g.Edge("E:out->Q")
			assert.Equal(t, tt.want, got.Metadata)
		})
	}
}

func TestRemoveEdge(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow,
		[]node.Node{n.Entry("E"), n.Queue("Q"), n.Exit("X")},
		[]edge.Edge{n.Edge("E", "Q"), n.Edge("Q", "X")},
	)
	require.NoError(t, err)

	assert.True(t, g.RemoveEdge("E:out->Q"))
	assert.False(t, g.RemoveEdge("E:out->Q"))
	assert.Equal(t, []string{"Q:out->X"}, edgeIDs(g))
	assert.Len(t, g.Nodes(), 3)
}
