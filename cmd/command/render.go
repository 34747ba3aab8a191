package command

import (
	"bytes"
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/goccy/go-graphviz"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// Colours used to shade rendered nodes.
const (
	entryColour       = "#00FF00"
	unreachableColour = "#D3D3D3"
)

var Render = cli.Command{
	Name:  "render",
	Usage: "draw a document as a Graphviz diagram",
	Flags: []cli.Flag{
		fileFlag,
		builderFlag,
		&cli.StringFlag{Name: "format", Usage: "dot, svg or png", Value: "dot"},
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "the file to write; required for svg and png"},
		&cli.BoolFlag{Name: "shade", Usage: "shade entry nodes and nodes which can't be reached"},
	},
	Action: func(c *cli.Context) error {
		g, err := readDocument(c)
		if err != nil {
			return err
		}

		var fill map[string]string
		if c.Bool("shade") {
			fill, err = shading(g)
			if err != nil {
				return err
			}
		}

		var buf bytes.Buffer
		err = g.DOT(&buf, fill)
		if err != nil {
			return err
		}

		format := c.String("format")
		output := c.Path("output")

		if format == "dot" {
			if output == "" {
				_, err = os.Stdout.Write(buf.Bytes())
				return err
			}
			return os.WriteFile(output, buf.Bytes(), 0644)
		}

		if output == "" {
			return errors.Errorf("--output is required for %s output", format)
		}
		err = renderFile(buf.Bytes(), graphviz.Format(format), output)
		if err != nil {
			return err
		}
		clio.Successf("rendered %s", output)
		return nil
	},
}

// shading colours entry nodes and unreachable nodes.
func shading(g *flowbuilder.Graph) (map[string]string, error) {
	report, err := flowbuilder.Inspect(g)
	if err != nil {
		return nil, err
	}

	fill := map[string]string{}
	for _, id := range report.Entries {
		fill[id] = entryColour
	}
	for _, id := range report.Unreachable {
		fill[id] = unreachableColour
	}
	return fill, nil
}

// renderFile renders a DOT graph to a file with Graphviz.
func renderFile(dot []byte, format graphviz.Format, outfile string) error {
	switch format {
	case graphviz.SVG, graphviz.PNG:
	default:
		return errors.Errorf("unsupported format %q: must be dot, svg or png", format)
	}

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return err
	}
	gv := graphviz.New()
	defer gv.Close()

	return gv.RenderFilename(graph, format, outfile)
}
