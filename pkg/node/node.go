package node

// Type is the tag of a node in a flow or journey document.
// It decides the node's default data and which ports it exposes.
type Type string

// Flow builder (call routing) node types.
const (
	Entry     Type = "entry"
	Queue     Type = "queue"
	IVR       Type = "ivr"
	Condition Type = "condition"
	Transfer  Type = "transfer"
	Webhook   Type = "webhook"
	Voicemail Type = "voicemail"
	Exit      Type = "exit"
)

// Journey builder (marketing) node types.
// Condition is shared with the flow builder.
const (
	Trigger Type = "trigger"
	Email   Type = "email"
	Call    Type = "call"
	SMS     Type = "sms"
	Delay   Type = "delay"
	End     Type = "end"
)

func (t Type) String() string {
	return string(t)
}

// Port identifiers.
const (
	// InputPort is the single input port of every node that accepts connections.
	InputPort = "in"
	// OutputPort is the generic output port of single-output nodes.
	OutputPort = "out"

	// TruePort and FalsePort are the two outputs of a condition node.
	TruePort  = "true"
	FalsePort = "false"
)

// Position of a node on the canvas, in abstract units.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Offset returns the position moved by dx, dy.
func (p Position) Offset(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Node is a vertex in a flow or journey document.
type Node struct {
	// ID is unique within a document and is never reused,
	// e.g. "queue-1700000000000".
	ID string

	Type     Type
	Position Position

	// Data is never nil. Its concrete type matches Type,
	// or is Custom for unregistered types.
	Data Data

	// Hidden hides the node on the canvas without deleting it.
	Hidden bool
}

// Copy returns a copy of the node which doesn't share its payload.
func (n Node) Copy() Node {
	n.Data = Clone(n.Data)
	return n
}
