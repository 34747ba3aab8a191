// Package snaperr contains an error definition
// for problems found while decoding a document snapshot.
package snaperr

import (
	"errors"

	"github.com/goccy/go-yaml"
)

// PathError is an error located at a YAML path in a document,
// e.g. "$.edges[2].target".
type PathError struct {
	Path string
	Err  error
}

// PrettyPrint the error along with the annotated document source.
func (pe PathError) PrettyPrint(yml []byte) (string, error) {
	path, err := yaml.PathString(pe.Path)
	if err != nil {
		return "", err
	}
	source, err := path.AnnotateSource(yml, true)
	if err != nil {
		return "", err
	}
	return string(source), nil
}

func (pe PathError) Error() string {
	return pe.Path + ": " + pe.Err.Error()
}

func (pe PathError) Unwrap() error {
	return pe.Err
}

// Wrap attaches a path to err.
// Errors which already carry a path are returned unchanged.
func Wrap(err error, path string) error {
	if err == nil {
		return nil
	}
	var pe PathError
	if errors.As(err, &pe) {
		// the error was already located deeper in the document.
		return err
	}
	return PathError{Path: path, Err: err}
}
