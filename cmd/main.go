package main

import (
	"log"
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder/cmd/command"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "flowctl",
		Usage: "edit, lint and render call flow and journey documents",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging", EnvVars: []string{"FLOWCTL_VERBOSE"}},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				clio.SetLevelFromString("debug")
			}
			return nil
		},
		Commands: []*cli.Command{
			&command.Layout,
			&command.Lint,
			&command.Render,
			&command.Serve,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
