package command

import (
	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var Lint = cli.Command{
	Name:  "lint",
	Usage: "check a document for unreachable nodes, dead ends and invalid conditions",
	Flags: []cli.Flag{
		fileFlag,
		builderFlag,
		schemaFlag,
		&cli.BoolFlag{Name: "strict", Usage: "fail on warnings as well as errors"},
	},
	Action: func(c *cli.Context) error {
		g, err := readDocument(c)
		if err != nil {
			return err
		}

		schema, err := readSchema(c)
		if err != nil {
			return err
		}

		issues, err := flowbuilder.Lint(g, flowbuilder.WithConditionSchema(schema))
		if err != nil {
			return err
		}

		var errs, warnings int
		for _, i := range issues {
			switch i.Severity {
			case flowbuilder.Error:
				errs++
				clio.Error(i.String())
			case flowbuilder.Warning:
				warnings++
				clio.Warn(i.String())
			}
		}

		if errs > 0 || (c.Bool("strict") && warnings > 0) {
			return errors.Errorf("%s: %d errors, %d warnings", g.Name, errs, warnings)
		}

		clio.Successf("%s: %d errors, %d warnings", g.Name, errs, warnings)
		return nil
	},
}
