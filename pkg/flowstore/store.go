// Package flowstore defines the contract for persisting document snapshots.
// The editor core never depends on a store; the server and CLI use one
// to save and load documents.
package flowstore

import (
	"context"
	"errors"

	"github.com/common-fate/flowbuilder"
)

var ErrNotFound = errors.New("flowstore: document not found")

// Store persists document snapshots by name.
type Store interface {
	// CreateSchema prepares the backing storage. It is safe to call more than once.
	CreateSchema(ctx context.Context) error

	// Save creates or replaces the document with the snapshot's name.
	Save(ctx context.Context, s flowbuilder.Snapshot) error
	// Get returns ErrNotFound if no document has the given name.
	Get(ctx context.Context, name string) (*flowbuilder.Snapshot, error)
	// List returns the names of all stored documents, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes a document. No error if it doesn't exist.
	Delete(ctx context.Context, name string) error
}
