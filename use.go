package flowbuilder

import (
	"context"

	"github.com/common-fate/flowbuilder/pkg/dialect"
)

// Use a specified builder dialect when decoding documents
// which don't name their builder.
func Use(parent context.Context, d dialect.Dialect) context.Context {
	return dialect.Context(parent, d)
}
