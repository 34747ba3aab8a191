// package 'n' contains helper methods for building nodes and edges.
// It is used as a convenience method when writing tests and
// seed documents for the graph store.
package n

import (
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
)

// Of creates a node of any type with registry default data.
func Of(t node.Type, id string) node.Node {
	return node.Node{ID: id, Type: t, Data: node.Defaults(t)}
}

// Entry creates a flow builder entry point.
func Entry(id string) node.Node { return Of(node.Entry, id) }

// Queue creates a queue node.
func Queue(id string) node.Node { return Of(node.Queue, id) }

// IVR creates an IVR menu node.
func IVR(id string) node.Node { return Of(node.IVR, id) }

// Condition creates a condition node with the given expression.
func Condition(id string, expression string) node.Node {
	nd := Of(node.Condition, id)
	nd.Data = node.ConditionData{Label: "Condition", Expression: expression}
	return nd
}

// Transfer creates a transfer node.
func Transfer(id string) node.Node { return Of(node.Transfer, id) }

// Voicemail creates a voicemail node.
func Voicemail(id string) node.Node { return Of(node.Voicemail, id) }

// Exit creates a flow builder exit node.
func Exit(id string) node.Node { return Of(node.Exit, id) }

// Trigger creates a journey builder trigger.
func Trigger(id string) node.Node { return Of(node.Trigger, id) }

// Email creates a journey email node.
func Email(id string) node.Node { return Of(node.Email, id) }

// End creates a journey builder end node.
func End(id string) node.Node { return Of(node.End, id) }

// Edge connects the default ports of two nodes.
// The edge ID is derived from the endpoints.
func Edge(source, target string) edge.Edge {
	return Port(source, node.OutputPort, target)
}

// Port connects a named output port of source to the input of target.
func Port(source, sourcePort, target string) edge.Edge {
	return edge.Edge{
		ID:         source + ":" + sourcePort + "->" + target,
		Source:     source,
		SourcePort: sourcePort,
		Target:     target,
		TargetPort: node.InputPort,
		Metadata:   edge.DefaultMetadata(),
	}
}

// Connect builds a connection between the default ports of two nodes.
func Connect(source, target string) edge.Connection {
	return edge.Connection{Source: source, SourcePort: node.OutputPort, Target: target, TargetPort: node.InputPort}
}

type NodeBuilder struct {
	Position node.Position
	Hidden   bool
}

// At returns a builder which places nodes at x, y.
//
// Usage:
//
//	n.At(100, 150).Queue("q1")
func At(x, y float64) *NodeBuilder {
	return &NodeBuilder{Position: node.Position{X: x, Y: y}}
}

// Hide marks built nodes as hidden.
func (nb *NodeBuilder) Hide() *NodeBuilder {
	nb.Hidden = true
	return nb
}

// Of creates a placed node of any type.
func (nb NodeBuilder) Of(t node.Type, id string) node.Node {
	nd := Of(t, id)
	nd.Position = nb.Position
	nd.Hidden = nb.Hidden
	return nd
}

// Entry creates a placed entry point.
func (nb NodeBuilder) Entry(id string) node.Node { return nb.Of(node.Entry, id) }

// Queue creates a placed queue node.
func (nb NodeBuilder) Queue(id string) node.Node { return nb.Of(node.Queue, id) }

// Exit creates a placed exit node.
func (nb NodeBuilder) Exit(id string) node.Node { return nb.Of(node.Exit, id) }
