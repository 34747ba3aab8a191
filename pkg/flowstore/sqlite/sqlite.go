// Package sqlite implements flowstore.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_documents (
    name       TEXT PRIMARY KEY,
    builder    TEXT NOT NULL DEFAULT 'flow',
    document   TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type Store struct {
	db *sql.DB
}

var _ flowstore.Store = &Store{}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "flowstore: open %s", path)
	}
	// an in-memory database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

func (s *Store) Save(ctx context.Context, snap flowbuilder.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrapf(err, "flowstore: encode %s", snap.Name)
	}

	builder := snap.Builder
	if builder == "" {
		builder = "flow"
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO flow_documents (name, builder, document, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET builder = excluded.builder, document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
		snap.Name, builder, string(doc),
	)
	if err != nil {
		return errors.Wrapf(err, "flowstore: save %s", snap.Name)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*flowbuilder.Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM flow_documents WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, flowstore.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "flowstore: get %s", name)
	}

	var snap flowbuilder.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, errors.Wrapf(err, "flowstore: decode %s", name)
	}
	return &snap, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM flow_documents ORDER BY name`)
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
	return names, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flow_documents WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "flowstore: delete %s", name)
	}
	return nil
}
