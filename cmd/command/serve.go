package command

import (
	"context"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/common-fate/flowbuilder/pkg/flowstore/memory"
	"github.com/common-fate/flowbuilder/pkg/flowstore/postgres"
	"github.com/common-fate/flowbuilder/pkg/flowstore/sqlite"
	"github.com/common-fate/flowbuilder/pkg/server"
	"github.com/urfave/cli/v2"
)

var Serve = cli.Command{
	Name:  "serve",
	Usage: "serve the document editing API",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "the address to listen on", Value: ":3000", EnvVars: []string{"FLOWCTL_ADDR"}},
		&cli.StringFlag{Name: "database-url", Usage: "store documents in PostgreSQL", EnvVars: []string{"FLOWCTL_DATABASE_URL", "DATABASE_URL"}},
		&cli.PathFlag{Name: "sqlite", Usage: "store documents in a SQLite database file", EnvVars: []string{"FLOWCTL_SQLITE"}},
		schemaFlag,
	},
	Action: func(c *cli.Context) error {
		ctx := c.Context

		store, closeStore, err := openStore(ctx, c.String("database-url"), c.Path("sqlite"))
		if err != nil {
			return err
		}
		defer closeStore()

		err = store.CreateSchema(ctx)
		if err != nil {
			return err
		}

		schema, err := readSchema(c)
		if err != nil {
			return err
		}

		app := server.New(server.Config{Store: store, ConditionSchema: schema}).App()

		clio.Infof("listening on %s", c.String("addr"))
		return app.Listen(c.String("addr"))
	},
}

// openStore picks a document store from the flags, preferring PostgreSQL,
// then SQLite, then memory.
func openStore(ctx context.Context, databaseURL, sqlitePath string) (flowstore.Store, func(), error) {
	switch {
	case databaseURL != "":
		s, err := postgres.Connect(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		clio.Infof("storing documents in PostgreSQL")
		return s, s.Close, nil

	case sqlitePath != "":
		s, err := sqlite.Open(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		clio.Infof("storing documents in %s", sqlitePath)
		return s, func() { s.Close() }, nil
	}

	clio.Warnf("no database configured: documents will be lost when the server stops")
	return memory.New(), func() {}, nil
}
