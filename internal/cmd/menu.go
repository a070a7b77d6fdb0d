package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/jimezsa/hhcli/internal/seed"
)

type MenuCmd struct {
	NoDB    bool   `name:"no-db" help:"Skip the database; only API search is available."`
	Proxies string `help:"Comma-separated proxy URLs." env:"HHCLI_PROXIES"`
}

func (m *MenuCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx.UI.Headingf("hh.ru vacancy search")
	ctx.UI.Rule("-", 43)

	client, err := newAPIClient(ctx, m.Proxies)
	if err != nil {
		return err
	}

	var reports reportSource
	if !m.NoDB {
		db, err := openDatabase(runCtx, ctx, true)
		if err != nil {
			return err
		}
		defer db.Close()

		seeder := newSeeder(ctx, client, db)
		runSeed := func(c context.Context) (seed.Result, error) {
			return seeder.Run(c, ctx.Config.MinVacancies)
		}
		if err := prepareDatabase(runCtx, ctx.UI, db, runSeed); err != nil {
			return err
		}
		reports = db
	}

	shell := NewShell(ctx.UI, newSearchClient(ctx, client), newJSONStore(ctx), reports, ctx.Logger)
	return shell.Run(runCtx)
}
