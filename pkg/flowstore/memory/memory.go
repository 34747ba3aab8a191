// Package memory implements flowstore.Store in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Store keeps documents as encoded JSON, so that callers never share
// maps with the stored copy.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ flowstore.Store = &Store{}

// New creates an empty store.
func New() *Store {
	return &Store{docs: map[string][]byte{}}
}

func (s *Store) CreateSchema(ctx context.Context) error {
	return nil
}

func (s *Store) Save(ctx context.Context, snap flowbuilder.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", snap.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[snap.Name] = b
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*flowbuilder.Snapshot, error) {
	s.mu.RLock()
	b, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, flowstore.ErrNotFound
	}

	var snap flowbuilder.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}
	return &snap, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
	return nil
}
