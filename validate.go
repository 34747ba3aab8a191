package flowbuilder

import (
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/node"
)

// Validate decides whether c may be added to g.
// It returns nil if the connection is accepted, or a *RejectedError.
//
// Rules are applied in order and the first match wins:
//
//  1. a node can't connect to itself
//  2. an identical (source, sourcePort, target, targetPort) edge can't be added twice
//  3. both endpoints must exist
//  4. the source port must be an output of the source node, and the
//     target node must accept input on the target port
//
// Two different ports of the same node pair may be connected, e.g. both
// outputs of a condition can lead to the same node.
func Validate(c edge.Connection, g *Graph) error {
	c = g.normalize(c)

	if c.Source == c.Target {
		return &RejectedError{Reason: ReasonSelfLoop, Connection: c}
	}

	for _, e := range g.edges {
		if e.Connection() == c {
			return &RejectedError{Reason: ReasonDuplicate, Connection: c}
		}
	}

	si, ok := g.lookup(c.Source)
	if !ok {
		return &RejectedError{Reason: ReasonUnknownNode, Connection: c}
	}
	ti, ok := g.lookup(c.Target)
	if !ok {
		return &RejectedError{Reason: ReasonUnknownNode, Connection: c}
	}

	if !node.CapabilitiesOf(g.nodes[si].Type).HasOutput(c.SourcePort) {
		return &RejectedError{Reason: ReasonInvalidPort, Connection: c}
	}
	if !node.CapabilitiesOf(g.nodes[ti].Type).HasInput || c.TargetPort != node.InputPort {
		return &RejectedError{Reason: ReasonInvalidPort, Connection: c}
	}

	return nil
}

// Validate decides whether c may be added to the graph. See Validate.
func (g *Graph) Validate(c edge.Connection) error {
	return Validate(c, g)
}
