package flowbuilder

import (
	"fmt"

	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/pkg/errors"
)

// Reason a connection was rejected.
type Reason string

const (
	// ReasonSelfLoop: the connection starts and ends on the same node.
	ReasonSelfLoop Reason = "self-loop"
	// ReasonDuplicate: an edge with the same source, ports and target exists.
	ReasonDuplicate Reason = "duplicate"
	// ReasonUnknownNode: an endpoint isn't in the graph.
	ReasonUnknownNode Reason = "unknown-node"
	// ReasonInvalidPort: the source port isn't an output of the source node,
	// or the target node doesn't accept input on the target port.
	ReasonInvalidPort Reason = "invalid-port"
)

// RejectedError is returned when a proposed connection fails validation.
// The graph is never modified when a connection is rejected.
type RejectedError struct {
	Reason     Reason
	Connection edge.Connection
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("connection %s rejected: %s", e.Connection, e.Reason)
}

// RejectionReason returns the reason err rejected a connection.
// It returns false if err isn't a rejection.
func RejectionReason(err error) (Reason, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

// DanglingEdgeError is returned when a document contains an edge
// referencing a node which doesn't exist.
type DanglingEdgeError struct {
	// Index of the edge in the document.
	Index  int
	EdgeID string
	// Field is "source" or "target".
	Field  string
	NodeID string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("edge %s references unknown %s node %q", e.EdgeID, e.Field, e.NodeID)
}

// Path of the offending field in a document.
func (e *DanglingEdgeError) Path() string {
	return fmt.Sprintf("$.edges[%d].%s", e.Index, e.Field)
}

// DuplicateNodeError is returned when a document contains two nodes with the same ID.
type DuplicateNodeError struct {
	Index  int
	NodeID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node id %q is used more than once", e.NodeID)
}

func (e *DuplicateNodeError) Path() string {
	return fmt.Sprintf("$.nodes[%d].id", e.Index)
}

// DuplicateEdgeError is returned when a document contains two edges with the same ID.
type DuplicateEdgeError struct {
	Index  int
	EdgeID string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("edge id %q is used more than once", e.EdgeID)
}

func (e *DuplicateEdgeError) Path() string {
	return fmt.Sprintf("$.edges[%d].id", e.Index)
}

// SeedEdgeError is returned when a document contains an edge which
// the validator refuses, e.g. a self-loop or a second copy of an edge.
type SeedEdgeError struct {
	Index  int
	EdgeID string
	// Err is the *RejectedError from the validator.
	Err error
}

func (e *SeedEdgeError) Error() string {
	id := e.EdgeID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("edge %s: %s", id, e.Err)
}

func (e *SeedEdgeError) Unwrap() error {
	return e.Err
}

func (e *SeedEdgeError) Path() string {
	return fmt.Sprintf("$.edges[%d]", e.Index)
}

// DataError is returned when a node's data can't be decoded for its type.
type DataError struct {
	Index  int
	NodeID string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Path() string {
	return fmt.Sprintf("$.nodes[%d].data", e.Index)
}

// pather is implemented by errors which can be located in a document.
type pather interface {
	Path() string
}
