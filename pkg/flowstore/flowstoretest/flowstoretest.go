// Package flowstoretest contains tests shared by every flowstore.Store implementation.
package flowstoretest

import (
	"context"
	"testing"

	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Snapshot returns a small document whose values survive a JSON round trip unchanged.
func Snapshot(name string) flowbuilder.Snapshot {
	return flowbuilder.Snapshot{
		Name:    name,
		Builder: "flow",
		Nodes: []flowbuilder.NodeSnapshot{
			{ID: "entry-1", Type: node.Entry, Position: node.Position{X: 100, Y: 150}, Data: map[string]any{"label": "Incoming Call"}},
			{ID: "exit-1", Type: node.Exit, Position: node.Position{X: 350, Y: 150}, Data: map[string]any{"label": "End Call"}, Hidden: true},
		},
		Edges: []flowbuilder.EdgeSnapshot{
			{ID: "e1", Source: "entry-1", SourcePort: node.OutputPort, Target: "exit-1", TargetPort: node.InputPort, Metadata: edge.DefaultMetadata()},
		},
	}
}

// Run exercises s. The store must be empty.
func Run(t *testing.T, s flowstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSchema(ctx))
	// creating the schema twice is allowed.
	require.NoError(t, s.CreateSchema(ctx))

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, flowstore.ErrNotFound)
	})

	t.Run("save and get", func(t *testing.T) {
		want := Snapshot("support")
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Get(ctx, "support")
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	})

	t.Run("save replaces", func(t *testing.T) {
		snap := Snapshot("sales")
		require.NoError(t, s.Save(ctx, snap))

		snap.Nodes = snap.Nodes[:1]
		snap.Edges = []flowbuilder.EdgeSnapshot{}
		require.NoError(t, s.Save(ctx, snap))

		got, err := s.Get(ctx, "sales")
		require.NoError(t, err)
		assert.Len(t, got.Nodes, 1)
		assert.Empty(t, got.Edges)
	})

	t.Run("list", func(t *testing.T) {
		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"sales", "support"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "sales"))
		require.NoError(t, s.Delete(ctx, "sales"))

		_, err := s.Get(ctx, "sales")
		assert.ErrorIs(t, err, flowstore.ErrNotFound)

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"support"}, names)
	})

	t.Run("stored document deserializes", func(t *testing.T) {
		got, err := s.Get(ctx, "support")
		require.NoError(t, err)

		g, err := flowbuilder.Deserialize(*got)
		require.NoError(t, err)
		assert.Len(t, g.Nodes(), 2)
		assert.Len(t, g.Edges(), 1)
	})
}
