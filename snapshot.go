package flowbuilder

import (
	"context"
	"reflect"

	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
)

// Snapshot is a plain copy of a document, suitable for storage.
type Snapshot struct {
	Name string `json:"name" yaml:"name"`
	// Builder is the dialect name, e.g. "flow" or "journey".
	Builder string         `json:"builder,omitempty" yaml:"builder,omitempty"`
	Nodes   []NodeSnapshot `json:"nodes" yaml:"nodes"`
	Edges   []EdgeSnapshot `json:"edges" yaml:"edges"`
}

// NodeSnapshot is the stored form of a node.
type NodeSnapshot struct {
	ID       string         `json:"id" yaml:"id"`
	Type     node.Type      `json:"type" yaml:"type"`
	Position node.Position  `json:"position" yaml:"position"`
	Data     map[string]any `json:"data" yaml:"data"`
	Hidden   bool           `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// EdgeSnapshot is the stored form of an edge.
type EdgeSnapshot struct {
	ID         string        `json:"id" yaml:"id"`
	Source     string        `json:"source" yaml:"source"`
	SourcePort string        `json:"sourcePort" yaml:"sourcePort"`
	Target     string        `json:"target" yaml:"target"`
	TargetPort string        `json:"targetPort" yaml:"targetPort"`
	Metadata   edge.Metadata `json:"metadata" yaml:"metadata"`
}

// Serialize takes a snapshot of g.
//
// Node data is written as plain maps. Values that only make sense
// in memory, such as functions or channels, are stripped.
func Serialize(g *Graph) Snapshot {
	s := Snapshot{
		Name:    g.Name,
		Builder: g.Dialect.Name,
		Nodes:   make([]NodeSnapshot, 0, len(g.nodes)),
		Edges:   make([]EdgeSnapshot, 0, len(g.edges)),
	}

	for _, nd := range g.nodes {
		s.Nodes = append(s.Nodes, SnapshotNode(nd))
	}
	for _, e := range g.edges {
		s.Edges = append(s.Edges, SnapshotEdge(e))
	}

	return s
}

// SnapshotNode returns the stored form of a single node.
func SnapshotNode(nd node.Node) NodeSnapshot {
	return NodeSnapshot{
		ID:       nd.ID,
		Type:     nd.Type,
		Position: nd.Position,
		Data:     stripInternal(node.ToMap(nd.Data)),
		Hidden:   nd.Hidden,
	}
}

// SnapshotEdge returns the stored form of a single edge.
func SnapshotEdge(e edge.Edge) EdgeSnapshot {
	return EdgeSnapshot{
		ID:         e.ID,
		Source:     e.Source,
		SourcePort: e.SourcePort,
		Target:     e.Target,
		TargetPort: e.TargetPort,
		Metadata:   e.Metadata,
	}
}

// Deserialize rebuilds a graph from a snapshot.
// The builder dialect is looked up from the snapshot's Builder field.
//
// Snapshots which would produce an inconsistent graph are rejected:
// edges referencing unknown nodes with a *DanglingEdgeError, and edges
// the validator refuses with a *SeedEdgeError.
func Deserialize(s Snapshot, opts ...Option) (*Graph, error) {
	return DeserializeContext(context.Background(), s, opts...)
}

// DeserializeContext rebuilds a graph from a snapshot.
//
// If a dialect has been defined in ctx using Use(), it is used when the
// snapshot doesn't name a builder, or names the dialect in the context.
func DeserializeContext(ctx context.Context, s Snapshot, opts ...Option) (*Graph, error) {
	d, err := resolveDialect(ctx, s.Builder)
	if err != nil {
		return nil, err
	}

	nodes := make([]node.Node, 0, len(s.Nodes))
	for i, ns := range s.Nodes {
		data, err := node.FromMap(ns.Type, ns.Data)
		if err != nil {
			return nil, &DataError{Index: i, NodeID: ns.ID, Err: err}
		}
		nodes = append(nodes, node.Node{
			ID:       ns.ID,
			Type:     ns.Type,
			Position: ns.Position,
			Data:     data,
			Hidden:   ns.Hidden,
		})
	}

	edges := make([]edge.Edge, 0, len(s.Edges))
	for _, es := range s.Edges {
		edges = append(edges, edge.Edge{
			ID:         es.ID,
			Source:     es.Source,
			SourcePort: es.SourcePort,
			Target:     es.Target,
			TargetPort: es.TargetPort,
			Metadata:   es.Metadata,
		})
	}

	return CreateGraph(s.Name, d, nodes, edges, opts...)
}

func resolveDialect(ctx context.Context, builder string) (dialect.Dialect, error) {
	if d, ok := dialect.FromContext(ctx); ok && (builder == "" || builder == d.Name) {
		return d, nil
	}
	return dialect.Lookup(builder)
}

// stripInternal removes values which can't be stored in a document.
// Maps and slices are walked at any depth, whatever their element type.
func stripInternal(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := stripReflect(reflect.ValueOf(m))
	return out.Interface().(map[string]any)
}

// stripReflect returns a copy of rv without functions, channels and unsafe
// pointers. It returns false if rv can't be stored at all, which includes
// maps and slices whose elements are never storable.
func stripReflect(rv reflect.Value) (reflect.Value, bool) {
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return reflect.Value{}, false
	case reflect.Interface:
		if rv.IsNil() {
			return rv, true
		}
		return stripReflect(rv.Elem())
	case reflect.Map:
		if internalKind(rv.Type().Elem().Kind()) {
			return reflect.Value{}, false
		}
		if rv.IsNil() {
			return rv, true
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if v, ok := stripReflect(iter.Value()); ok {
				out.SetMapIndex(iter.Key(), storable(v, rv.Type().Elem()))
			}
		}
		return out, true
	case reflect.Slice:
		if internalKind(rv.Type().Elem().Kind()) {
			return reflect.Value{}, false
		}
		if rv.IsNil() {
			return rv, true
		}
		out := reflect.MakeSlice(rv.Type(), 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if v, ok := stripReflect(rv.Index(i)); ok {
				out = reflect.Append(out, storable(v, rv.Type().Elem()))
			}
		}
		return out, true
	}
	return rv, true
}

func internalKind(k reflect.Kind) bool {
	return k == reflect.Func || k == reflect.Chan || k == reflect.UnsafePointer
}

// storable turns a stripped value into one that can be put in a
// map or slice with elements of type t.
func storable(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	return v
}
