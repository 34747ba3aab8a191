package command

import (
	"context"
	"fmt"
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/jsoncel"
	"github.com/common-fate/flowbuilder/pkg/snaperr"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var fileFlag = &cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "the flow document, in YAML format", Required: true}

var builderFlag = &cli.StringFlag{Name: "builder", Aliases: []string{"b"}, Usage: "the builder to use for documents which don't name one (flow or journey)", Value: "flow"}

var schemaFlag = &cli.PathFlag{Name: "schema", Usage: "a JSON schema (YAML or JSON) describing the 'call' and 'contact' variables of conditions", EnvVars: []string{"FLOWCTL_SCHEMA"}}

// readDocument loads the document named by the --file flag.
// If the document can't be decoded because of a problem at a particular
// field, the offending source is printed to stderr.
func readDocument(c *cli.Context) (*flowbuilder.Graph, error) {
	f := c.Path("file")

	data, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	d, err := dialect.Lookup(c.String("builder"))
	if err != nil {
		return nil, err
	}
	ctx := flowbuilder.Use(context.Background(), d)

	g, err := flowbuilder.DecodeYAMLContext(ctx, data)

	var pe snaperr.PathError
	if errors.As(err, &pe) {
		clio.Infof("document error at: %s", pe.Path)
		source, printErr := pe.PrettyPrint(data)
		if printErr != nil {
			clio.Errorf("error pretty printing YAML path: %s", printErr)
		}
		fmt.Fprintf(os.Stderr, "%s\n", source)
	}

	if err != nil {
		return nil, err
	}
	clio.Debugf("loaded %s document %s with %d nodes", g.Dialect.Name, g.Name, len(g.Nodes()))
	return g, nil
}

// readSchema loads the condition schema named by the --schema flag.
// It returns nil if the flag isn't set.
func readSchema(c *cli.Context) (*jsoncel.Schema, error) {
	f := c.Path("schema")
	if f == "" {
		return nil, nil
	}

	data, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	var s jsoncel.Schema
	err = yaml.Unmarshal(data, &s)
	if err != nil {
		return nil, errors.Wrapf(err, "reading condition schema %s", f)
	}
	return &s, nil
}
