// Package postgres implements flowstore.Store using PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_documents (
    name       TEXT PRIMARY KEY,
    builder    TEXT NOT NULL DEFAULT 'flow',
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PGStore implements flowstore.Store using PostgreSQL.
type PGStore struct {
	db *pgxpool.Pool
}

var _ flowstore.Store = &PGStore{}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Connect opens a connection pool and returns a store using it.
func Connect(ctx context.Context, url string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "flowstore: connect")
	}
	return New(pool), nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.db.Close()
}

// CreateSchema creates the flow_documents table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the flow_documents table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_documents;`)
	return err
}

// Save upserts the document.
func (s *PGStore) Save(ctx context.Context, snap flowbuilder.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrapf(err, "flowstore: encode %s", snap.Name)
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO flow_documents (name, builder, document, updated_at) VALUES ($1, $2, $3, NOW())
ON CONFLICT (name) DO UPDATE SET builder = EXCLUDED.builder, document = EXCLUDED.document, updated_at = NOW()`,
		snap.Name, builderOf(snap), doc,
	)
	if err != nil {
		return errors.Wrapf(err, "flowstore: save %s", snap.Name)
	}
	return nil
}

// Get fetches a document by name.
func (s *PGStore) Get(ctx context.Context, name string) (*flowbuilder.Snapshot, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM flow_documents WHERE name = $1`, name).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, flowstore.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "flowstore: get %s", name)
	}

	var snap flowbuilder.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, errors.Wrapf(err, "flowstore: decode %s", name)
	}
	return &snap, nil
}

// List returns all document names, sorted.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM flow_documents ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "flowstore: list")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "flowstore: scan")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "flowstore: rows")
	}
	return names, nil
}

// Delete removes a document. No error if it doesn't exist.
func (s *PGStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_documents WHERE name = $1`, name)
	if err != nil {
		return errors.Wrapf(err, "flowstore: delete %s", name)
	}
	return nil
}

func builderOf(snap flowbuilder.Snapshot) string {
	if snap.Builder == "" {
		return "flow"
	}
	return snap.Builder
}
