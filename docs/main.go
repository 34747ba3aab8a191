package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/goccy/go-graphviz"
)

func main() {
	err := run()
	if err != nil {
		log.Fatal(err)
	}
}

func run() error {
	exampleFolder := "docs/examples"
	outputFolder := "docs/img"

	folders, err := os.ReadDir(exampleFolder)
	if err != nil {
		return err
	}

	gv := graphviz.New()
	defer gv.Close()

	for _, folder := range folders {
		if !folder.IsDir() {
			clio.Infof("skipping %s: not a folder", folder.Name())
			continue
		}

		flowfile := filepath.Join(exampleFolder, folder.Name(), "flow.yml")

		doc, err := os.ReadFile(flowfile)
		if err != nil {
			return err
		}

		g, err := flowbuilder.DecodeYAMLContext(flowbuilder.Use(context.Background(), dialect.Flow), doc)
		if err != nil {
			return err
		}

		// examples are drawn with the layout the editor would give them.
		flowbuilder.RunAutoLayout(g, flowbuilder.DefaultLayoutConfig())

		issues, err := flowbuilder.Lint(g)
		if err != nil {
			return err
		}
		for _, i := range issues {
			clio.Warnf("%s: %s", folder.Name(), i)
		}

		report, err := flowbuilder.Inspect(g)
		if err != nil {
			return err
		}

		// shade entry nodes
		fill := map[string]string{}
		for _, id := range report.Entries {
			fill[id] = "#00FF00"
		}

		var buf bytes.Buffer

		err = g.DOT(&buf, fill)
		if err != nil {
			return err
		}

		graph, err := graphviz.ParseBytes(buf.Bytes())
		if err != nil {
			return err
		}

		outfile := filepath.Join(outputFolder, folder.Name()+".svg")
		err = gv.RenderFilename(graph, graphviz.SVG, outfile)
		if err != nil {
			return err
		}
		clio.Successf("rendered %s", outfile)
	}
	return nil
}
