package flowbuilder

import (
	"context"

	"github.com/common-fate/flowbuilder/pkg/snaperr"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// EncodeYAML writes a snapshot of g as a YAML document.
func EncodeYAML(g *Graph) ([]byte, error) {
	return yaml.Marshal(Serialize(g))
}

// DecodeYAML reads a graph from a YAML document.
//
// Errors which can be traced to a field in the document are returned
// as a snaperr.PathError, which can pretty-print the offending source.
func DecodeYAML(data []byte, opts ...Option) (*Graph, error) {
	return DecodeYAMLContext(context.Background(), data, opts...)
}

// DecodeYAMLContext reads a graph from a YAML document, using the dialect
// defined in ctx for documents which don't name their builder.
func DecodeYAMLContext(ctx context.Context, data []byte, opts ...Option) (*Graph, error) {
	var s Snapshot
	err := yaml.UnmarshalContext(ctx, data, &s)
	if err != nil {
		return nil, err
	}

	g, err := DeserializeContext(ctx, s, opts...)
	if err != nil {
		return nil, locate(err)
	}
	return g, nil
}

// EncodeJSON writes a snapshot of g as a JSON document.
func EncodeJSON(g *Graph) ([]byte, error) {
	return json.Marshal(Serialize(g))
}

// DecodeJSON reads a graph from a JSON document.
func DecodeJSON(data []byte, opts ...Option) (*Graph, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}

	g, err := Deserialize(s, opts...)
	if err != nil {
		return nil, locate(err)
	}
	return g, nil
}

// locate wraps errors which know their document path in a snaperr.PathError.
func locate(err error) error {
	var p pather
	if errors.As(err, &p) {
		return snaperr.Wrap(err, p.Path())
	}
	return err
}
