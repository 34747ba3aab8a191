package flowbuilder

import (
	"fmt"

	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/jsoncel"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue is a problem found in a document. Issues never prevent a
// document from being edited or saved; they are shown to the user.
type Issue struct {
	Severity Severity `json:"severity"`
	// NodeID or EdgeID identify what the issue is about.
	// Both are empty for issues about the whole document.
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	subject := "document"
	if i.NodeID != "" {
		subject = "node " + i.NodeID
	}
	if i.EdgeID != "" {
		subject = "edge " + i.EdgeID
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, subject, i.Message)
}

// NewConditionEnv returns the CEL environment condition expressions are checked against.
//
// Expressions can read the 'call' and 'contact' maps, e.g.
//
//	call.wait_seconds > 60 && contact.vip == true
//
// If schema is not nil, its top-level properties declare the
// variables and their fields are type-checked.
func NewConditionEnv(schema *jsoncel.Schema) (*cel.Env, error) {
	if schema == nil {
		return cel.NewEnv(
			cel.Variable("call", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("contact", cel.MapType(cel.StringType, cel.DynType)),
		)
	}
	return cel.NewEnv(jsoncel.FromDocument(schema).EnvOptions()...)
}

type lintOptions struct {
	schema *jsoncel.Schema
}

type LintOption func(*lintOptions)

// WithConditionSchema type-checks condition expressions against a schema.
func WithConditionSchema(s *jsoncel.Schema) LintOption {
	return func(o *lintOptions) {
		o.schema = s
	}
}

// Lint checks a document for problems which the editor allows,
// but which would stop the flow from routing calls as intended.
// Issues are ordered by node, then by edge.
func Lint(g *Graph, opts ...LintOption) ([]Issue, error) {
	var o lintOptions
	for _, opt := range opts {
		opt(&o)
	}

	env, err := NewConditionEnv(o.schema)
	if err != nil {
		return nil, errors.Wrap(err, "building condition environment")
	}

	report, err := Inspect(g)
	if err != nil {
		return nil, err
	}

	var issues []Issue

	if len(g.nodes) > 0 && len(report.Entries) == 0 {
		issues = append(issues, Issue{
			Severity: Error,
			Message:  fmt.Sprintf("the document has no %s node", g.Dialect.Entry),
		})
	}

	unreachable := toSet(report.Unreachable)
	deadEnds := toSet(report.DeadEnds)

	for _, nd := range g.nodes {
		if !g.Dialect.Allows(nd.Type) {
			issues = append(issues, Issue{
				Severity: Warning,
				NodeID:   nd.ID,
				Message:  fmt.Sprintf("node type %q is not part of the %s builder", nd.Type, g.Dialect.Name),
			})
		}

		if len(report.Entries) > 0 && unreachable[nd.ID] {
			issues = append(issues, Issue{Severity: Warning, NodeID: nd.ID, Message: "node can't be reached from an entry node"})
		}

		if deadEnds[nd.ID] {
			issues = append(issues, Issue{Severity: Warning, NodeID: nd.ID, Message: "node has no outgoing connections"})
		}

		if c, ok := nd.Data.(node.ConditionData); ok {
			issues = append(issues, checkCondition(env, nd.ID, c.Expression)...)
		}
	}

	for _, e := range g.edges {
		issues = append(issues, checkMetadata(e)...)
	}

	return issues, nil
}

// checkCondition type-checks a condition expression.
func checkCondition(env *cel.Env, nodeID string, expression string) []Issue {
	if expression == "" {
		return []Issue{{Severity: Warning, NodeID: nodeID, Message: "condition has no expression"}}
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return []Issue{{Severity: Error, NodeID: nodeID, Message: fmt.Sprintf("CEL type-check error: %s", issues.Err())}}
	}

	// fields of 'call' and 'contact' are dynamic, so their type is only known when the call is routed.
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return []Issue{{Severity: Error, NodeID: nodeID, Message: fmt.Sprintf("CEL expression must return a boolean (returned %s instead)", ast.OutputType())}}
	}

	return nil
}

func checkMetadata(e edge.Edge) []Issue {
	var issues []Issue
	m := e.Metadata

	if m.TimeoutValue < 0 {
		issues = append(issues, Issue{Severity: Error, EdgeID: e.ID, Message: fmt.Sprintf("timeout must not be negative (got %v)", m.TimeoutValue)})
	}
	if m.TimeoutUnit != edge.Seconds && m.TimeoutUnit != edge.Minutes {
		issues = append(issues, Issue{Severity: Error, EdgeID: e.ID, Message: fmt.Sprintf("unknown timeout unit %q", m.TimeoutUnit)})
	}
	switch m.FallbackAction {
	case edge.Continue, edge.ExitCall, edge.Voicemail:
	default:
		issues = append(issues, Issue{Severity: Error, EdgeID: e.ID, Message: fmt.Sprintf("unknown fallback action %q", m.FallbackAction)})
	}

	return issues
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
