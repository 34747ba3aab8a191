// Package edge contains the connection between two node ports
// and the timeout/fallback metadata every connection carries.
package edge

import "fmt"

// Unit of an edge timeout.
type Unit string

const (
	Seconds Unit = "seconds"
	Minutes Unit = "minutes"
)

// Fallback is what happens when the timeout on an edge elapses.
type Fallback string

const (
	Continue  Fallback = "continue"
	ExitCall  Fallback = "exit"
	Voicemail Fallback = "voicemail"
)

// Default metadata applied to every new edge.
const (
	DefaultTimeoutValue   = 30
	DefaultTimeoutUnit    = Seconds
	DefaultFallbackAction = Continue
)

// Metadata is the per-connection configuration.
type Metadata struct {
	TimeoutValue   float64  `json:"timeoutValue" yaml:"timeoutValue"`
	TimeoutUnit    Unit     `json:"timeoutUnit" yaml:"timeoutUnit"`
	FallbackAction Fallback `json:"fallbackAction" yaml:"fallbackAction"`
}

// DefaultMetadata returns the metadata of a freshly created edge.
func DefaultMetadata() Metadata {
	return Metadata{
		TimeoutValue:   DefaultTimeoutValue,
		TimeoutUnit:    DefaultTimeoutUnit,
		FallbackAction: DefaultFallbackAction,
	}
}

// Patch is a partial metadata update. Nil fields are left unchanged.
type Patch struct {
	TimeoutValue   *float64  `json:"timeoutValue,omitempty"`
	TimeoutUnit    *Unit     `json:"timeoutUnit,omitempty"`
	FallbackAction *Fallback `json:"fallbackAction,omitempty"`
}

// Apply shallow merges p over m.
//
// Values are not range checked: keeping the timeout a non-negative
// number is up to the caller.
func (m Metadata) Apply(p Patch) Metadata {
	if p.TimeoutValue != nil {
		m.TimeoutValue = *p.TimeoutValue
	}
	if p.TimeoutUnit != nil {
		m.TimeoutUnit = *p.TimeoutUnit
	}
	if p.FallbackAction != nil {
		m.FallbackAction = *p.FallbackAction
	}
	return m
}

// Connection is a proposed edge between two ports.
type Connection struct {
	Source     string `json:"source"`
	SourcePort string `json:"sourcePort"`
	Target     string `json:"target"`
	TargetPort string `json:"targetPort"`
}

func (c Connection) String() string {
	return fmt.Sprintf("%s:%s -> %s:%s", c.Source, c.SourcePort, c.Target, c.TargetPort)
}

// Edge is a directed connection between two node ports.
type Edge struct {
	ID         string
	Source     string
	SourcePort string
	Target     string
	TargetPort string
	Metadata   Metadata
}

// Connection returns the port tuple of the edge.
func (e Edge) Connection() Connection {
	return Connection{
		Source:     e.Source,
		SourcePort: e.SourcePort,
		Target:     e.Target,
		TargetPort: e.TargetPort,
	}
}

// Touches reports whether the node with the given ID is either endpoint of the edge.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Ptr returns a pointer to v. It's handy for building a Patch.
func Ptr[T any](v T) *T {
	return &v
}
