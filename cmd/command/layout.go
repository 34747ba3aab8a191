package command

import (
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/urfave/cli/v2"
)

var Layout = cli.Command{
	Name:  "layout",
	Usage: "arrange the nodes of a document left to right, starting at the entry node",
	Flags: []cli.Flag{
		fileFlag,
		builderFlag,
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the document here instead of stdout"},
		&cli.BoolFlag{Name: "in-place", Aliases: []string{"i"}, Usage: "overwrite the input document"},
		&cli.Float64Flag{Name: "x-spacing", Usage: "distance between levels", Value: flowbuilder.DefaultXSpacing},
		&cli.Float64Flag{Name: "y-spacing", Usage: "distance between nodes on the same level", Value: flowbuilder.DefaultYSpacing},
		&cli.Float64Flag{Name: "start-x", Usage: "x position of the entry level", Value: flowbuilder.DefaultStartX},
		&cli.Float64Flag{Name: "start-y", Usage: "centre line of every level", Value: flowbuilder.DefaultStartY},
	},
	Action: func(c *cli.Context) error {
		g, err := readDocument(c)
		if err != nil {
			return err
		}

		cfg := flowbuilder.LayoutConfig{
			XSpacing: c.Float64("x-spacing"),
			YSpacing: c.Float64("y-spacing"),
			StartX:   c.Float64("start-x"),
			StartY:   c.Float64("start-y"),
		}
		positions := flowbuilder.RunAutoLayout(g, cfg)
		clio.Debugf("placed %d nodes", len(positions))

		out, err := flowbuilder.EncodeYAML(g)
		if err != nil {
			return err
		}

		output := c.Path("output")
		if c.Bool("in-place") {
			output = c.Path("file")
		}
		if output == "" {
			_, err = os.Stdout.Write(out)
			return err
		}

		err = os.WriteFile(output, out, 0644)
		if err != nil {
			return err
		}
		clio.Successf("wrote %s", output)
		return nil
	},
}
