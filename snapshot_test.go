package flowbuilder

import (
	"context"
	"testing"

	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/common-fate/flowbuilder/pkg/node/n"
	"github.com/common-fate/flowbuilder/pkg/snaperr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// supportFlow is a document using every kind of node data.
func supportFlow(t *testing.T) *Graph {
	t.Helper()
	cond := n.At(600, 150).Of(node.Condition, "C")
	cond.Data = node.ConditionData{Label: "VIP?", Expression: "contact.vip == true"}

	g, err := CreateGraph("support", dialect.Flow,
		[]node.Node{
			n.At(100, 150).Entry("E"),
			n.At(350, 150).Of(node.IVR, "I"),
			cond,
			n.At(850, 75).Queue("Q"),
			n.At(850, 225).Hide().Of(node.Voicemail, "V"),
			n.At(1100, 150).Exit("X"),
			n.At(1100, 300).Of("fax", "F"),
		},
		[]edge.Edge{
			n.Edge("E", "I"),
			n.Edge("I", "C"),
			n.Port("C", node.TruePort, "Q"),
			n.Port("C", node.FalsePort, "V"),
			n.Edge("Q", "X"),
		},
	)
	require.NoError(t, err)

	_, ok := g.UpdateEdge("Q:out->X", edge.Patch{TimeoutValue: edge.Ptr(5.0), TimeoutUnit: edge.Ptr(edge.Minutes), FallbackAction: edge.Ptr(edge.Voicemail)})
	require.True(t, ok)
	require.NoError(t, g.UpdateNodeData("F", map[string]any{"number": "+61 2 5550 1234"}))
	return g
}

func assertSameGraph(t *testing.T, want, got *Graph) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Dialect.Name, got.Dialect.Name)
	assert.Equal(t, want.Nodes(), got.Nodes())
	assert.Equal(t, want.Edges(), got.Edges())
}

func TestSerializeRoundTrip(t *testing.T) {
	g := supportFlow(t)

	got, err := Deserialize(Serialize(g))
	require.NoError(t, err)
	assertSameGraph(t, g, got)
}

func TestYAMLRoundTrip(t *testing.T) {
	g := supportFlow(t)

	b, err := EncodeYAML(g)
	require.NoError(t, err)

	got, err := DecodeYAML(b)
	require.NoError(t, err)
	assertSameGraph(t, g, got)
}

func TestJSONRoundTrip(t *testing.T) {
	g := supportFlow(t)

	b, err := EncodeJSON(g)
	require.NoError(t, err)

	got, err := DecodeJSON(b)
	require.NoError(t, err)
	assertSameGraph(t, g, got)
}

func TestSerialize(t *testing.T) {
	g := supportFlow(t)
	s := Serialize(g)

	assert.Equal(t, "support", s.Name)
	assert.Equal(t, "flow", s.Builder)
	require.Len(t, s.Nodes, 7)
	assert.Equal(t, map[string]any{
		"label":          "Queue",
		"queueName":      "General",
		"strategy":       "round-robin",
		"maxWaitSeconds": 300,
		"musicOnHold":    true,
	}, s.Nodes[3].Data)
	assert.True(t, s.Nodes[4].Hidden)
	assert.Equal(t, map[string]any{"number": "+61 2 5550 1234"}, s.Nodes[6].Data)

	// the snapshot doesn't share data with the graph.
	s.Nodes[1].Data["options"].(map[string]string)["9"] = "Operator"
	ivr, _ := g.Node("I")
	assert.NotContains(t, ivr.Data.(node.IVRData).Options, "9")
}

func TestSerializeStripsInternalFields(t *testing.T) {
	g, err := CreateGraph("test", dialect.Flow, []node.Node{
		{ID: "F", Type: "fax", Data: node.Custom{Kind: "fax", Fields: map[string]any{
			"number":   "123",
			"onChange": func() {},
			"nested": map[string]any{
				"events": make(chan int),
				"keep":   true,
			},
			"handlers": []any{func() {}, "log"},
			"hooks":    map[string]func(){"save": func() {}},
			"queues":   []chan int{make(chan int)},
			"steps": []any{
				map[string]any{"name": "greet", "run": func() {}},
			},
			"tags": map[string][]any{"sales": {"vip", make(chan int)}},
		}}},
	}, nil)
	require.NoError(t, err)

	s := Serialize(g)
	assert.Equal(t, map[string]any{
		"number": "123",
		"nested":   map[string]any{"keep": true},
		"handlers": []any{"log"},
		"steps":    []any{map[string]any{"name": "greet"}},
		"tags":     map[string][]any{"sales": {"vip"}},
	}, s.Nodes[0].Data)

	_, err = EncodeJSON(g)
	assert.NoError(t, err)
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := []struct {
		name     string
		give     string
		wantPath string
		wantErr  string
		// wantAs is a pointer to the typed error expected in the chain.
		wantAs any
	}{
		{
			name: "dangling target",
			give: `
name: broken
nodes:
  - id: E
    type: entry
edges:
  - id: e1
    source: E
    sourcePort: out
    target: Q
    targetPort: in
`,
			wantPath: "$.edges[0].target",
			wantErr:  `$.edges[0].target: edge e1 references unknown target node "Q"`,
			wantAs:   new(*DanglingEdgeError),
		},
		{
			name: "dangling source",
			give: `
name: broken
nodes:
  - id: Q
    type: queue
edges:
  - id: e1
    source: E
    target: Q
`,
			wantPath: "$.edges[0].source",
			wantErr:  `$.edges[0].source: edge e1 references unknown source node "E"`,
			wantAs:   new(*DanglingEdgeError),
		},
		{
			name: "duplicate node",
			give: `
name: broken
nodes:
  - id: Q
    type: queue
  - id: Q
    type: exit
`,
			wantPath: "$.nodes[1].id",
			wantErr:  `$.nodes[1].id: node id "Q" is used more than once`,
			wantAs:   new(*DuplicateNodeError),
		},
		{
			name: "bad node data",
			give: `
name: broken
nodes:
  - id: E
    type: entry
  - id: Q
    type: queue
    data:
      maxWaitSeconds: forever
`,
			wantPath: "$.nodes[1].data",
			wantAs:   new(*DataError),
		},
		{
			name: "self-loop",
			give: `
name: broken
nodes:
  - id: Q
    type: queue
edges:
  - id: e1
    source: Q
    target: Q
`,
			wantPath: "$.edges[0]",
			wantErr:  `$.edges[0]: edge e1: connection Q:out -> Q:in rejected: self-loop`,
			wantAs:   new(*SeedEdgeError),
		},
		{
			name: "port the node doesn't have",
			give: `
name: broken
nodes:
  - id: E
    type: entry
  - id: X
    type: exit
edges:
  - id: e1
    source: X
    sourcePort: bogus
    target: E
`,
			wantPath: "$.edges[0]",
			wantErr:  `$.edges[0]: edge e1: connection X:bogus -> E:in rejected: invalid-port`,
			wantAs:   new(*SeedEdgeError),
		},
		{
			name: "same connection twice",
			give: `
name: broken
nodes:
  - id: E
    type: entry
  - id: Q
    type: queue
edges:
  - id: e1
    source: E
    target: Q
  - id: e2
    source: E
    target: Q
`,
			wantPath: "$.edges[1]",
			wantErr:  `$.edges[1]: edge e2: connection E:out -> Q:in rejected: duplicate`,
			wantAs:   new(*SeedEdgeError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.give))
			require.Error(t, err)

			var pe snaperr.PathError
			require.True(t, errors.As(err, &pe), "expected a snaperr.PathError, got %T", err)
			assert.Equal(t, tt.wantPath, pe.Path)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, err.Error())
			}
			assert.True(t, errors.As(err, tt.wantAs))

			pretty, err := pe.PrettyPrint([]byte(tt.give))
			require.NoError(t, err)
			assert.NotEmpty(t, pretty)
		})
	}
}

func TestDeserializeUnknownBuilder(t *testing.T) {
	_, err := Deserialize(Snapshot{Name: "x", Builder: "fax"})
	assert.Error(t, err)
}

func TestDecodeWithDialectFromContext(t *testing.T) {
	doc := []byte(`
name: onboarding
nodes:
  - id: T
    type: trigger
  - id: D
    type: end
edges:
  - source: T
    target: D
`)

	tests := []struct {
		name        string
		ctx         context.Context
		wantDialect string
	}{
		{
			name:        "defaults to flow",
			ctx:         context.Background(),
			wantDialect: "flow",
		},
		{
			name:        "context dialect",
			ctx:         Use(context.Background(), dialect.Journey),
			wantDialect: "journey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := DecodeYAMLContext(tt.ctx, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDialect, g.Dialect.Name)

			// missing data and metadata are filled in.
			trigger, _ := g.Node("T")
			assert.Equal(t, node.Defaults(node.Trigger), trigger.Data)
			require.Len(t, g.Edges(), 1)
			assert.NotEmpty(t, g.Edges()[0].ID)
			assert.Equal(t, edge.DefaultMetadata(), g.Edges()[0].Metadata)
			assert.Equal(t, node.OutputPort, g.Edges()[0].SourcePort)
			assert.Equal(t, node.InputPort, g.Edges()[0].TargetPort)
		})
	}
}

func TestNamedBuilderOverridesContext(t *testing.T) {
	ctx := Use(context.Background(), dialect.Journey)

	g, err := DeserializeContext(ctx, Snapshot{Name: "x", Builder: "flow"})
	require.NoError(t, err)
	assert.Equal(t, "flow", g.Dialect.Name)
}
