// Package jsoncel implements a CEL
// Type Provider for JSON schema documents.
//
// This allows the 'call' and 'contact' variables of condition
// nodes to be type-checked against a JSON schema definition.
package jsoncel
