// Package dialect contains definitions for builder dialects.
// A dialect provides the node types offered by a builder screen
// and the node type which anchors auto-layout.
package dialect

import (
	"context"
	"fmt"

	"github.com/common-fate/flowbuilder/pkg/node"
)

type contextKey int

const (
	dialectKey contextKey = iota
)

// Dialect configures a builder with its palette of node types
// and its entry node type.
type Dialect struct {
	// Name is written to documents as the 'builder' field,
	// e.g. "flow" or "journey".
	Name string
	// Entry is the node type that starts a document.
	Entry node.Type
	// Types is the palette offered by the builder.
	Types []node.Type
}

// Flow is the call-routing Flow Builder.
var Flow = Dialect{
	Name:  "flow",
	Entry: node.Entry,
	Types: []node.Type{
		node.Entry,
		node.Queue,
		node.IVR,
		node.Condition,
		node.Transfer,
		node.Webhook,
		node.Voicemail,
		node.Exit,
	},
}

// Journey is the marketing Journey Builder.
var Journey = Dialect{
	Name:  "journey",
	Entry: node.Trigger,
	Types: []node.Type{
		node.Trigger,
		node.Email,
		node.Call,
		node.SMS,
		node.Delay,
		node.Condition,
		node.End,
	},
}

// Lookup finds a built-in dialect by name.
// An empty name means the flow builder.
func Lookup(name string) (Dialect, error) {
	switch name {
	case "", Flow.Name:
		return Flow, nil
	case Journey.Name:
		return Journey, nil
	}
	return Dialect{}, fmt.Errorf("unknown builder %q: must be %q or %q", name, Flow.Name, Journey.Name)
}

// Allows reports whether t is part of the dialect's palette.
func (d Dialect) Allows(t node.Type) bool {
	for _, allowed := range d.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// Validate checks that the dialect is usable.
func (d Dialect) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dialect error: a name is required")
	}
	if d.Entry == "" {
		return fmt.Errorf("dialect error: %s must define an entry node type", d.Name)
	}
	if !d.Allows(d.Entry) {
		return fmt.Errorf("dialect error: entry type %s is not part of the %s palette", d.Entry, d.Name)
	}
	if caps := node.CapabilitiesOf(d.Entry); len(caps.OutputPorts) == 0 {
		return fmt.Errorf("dialect error: entry type %s has no output ports", d.Entry)
	}
	return nil
}

// Context returns a copy of the parent context,
// with the dialect defined.
func Context(parent context.Context, d Dialect) context.Context {
	return context.WithValue(parent, dialectKey, d)
}

// FromContext loads the dialect from context.
// It returns false if the dialect does not exist in the context.
func FromContext(ctx context.Context) (Dialect, bool) {
	d, ok := ctx.Value(dialectKey).(Dialect)
	return d, ok
}
