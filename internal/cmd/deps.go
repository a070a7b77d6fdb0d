package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jimezsa/hhcli/internal/config"
	"github.com/jimezsa/hhcli/internal/hh"
	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/network"
	"github.com/jimezsa/hhcli/internal/seed"
	"github.com/jimezsa/hhcli/internal/storage"
	"github.com/jimezsa/hhcli/internal/storage/jsonfile"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
)

const proxyBanDuration = 10 * time.Minute

const (
	storeJSON     = "json"
	storePostgres = "postgres"
)

func newAPIClient(ctx *Context, proxiesFlag string) (*network.Client, error) {
	proxies, err := config.LoadProxies(proxiesFlag)
	if err != nil {
		return nil, err
	}

	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return nil, err
		}
		ctx.Logger.Debug().Int("proxies", rotator.Len()).Msg("proxy rotation enabled")
	}

	return network.NewClient(rotator, network.Options{
		UserAgent: ctx.Config.UserAgent,
		Timeout:   ctx.Config.Timeout(),
	})
}

func newSearchClient(ctx *Context, client hh.Doer) *hh.SearchClient {
	cfg := ctx.Config
	return hh.NewSearchClient(client, hh.SearchOptions{
		BaseURL:  cfg.APIURL,
		PerPage:  cfg.PerPage,
		MaxPages: cfg.SearchPageLimit(),
	}, ctx.Logger.With().Str("component", "search").Logger())
}

func newEmployerClient(ctx *Context, client hh.Doer) *hh.EmployerClient {
	cfg := ctx.Config
	return hh.NewEmployerClient(client, hh.EmployerOptions{
		BaseURL:       cfg.APIURL,
		Roster:        cfg.Employers,
		PageSize:      cfg.PerPage,
		MaxPages:      cfg.EmployerPages,
		PageDelay:     cfg.PageDelay(),
		EmployerDelay: cfg.EmployerDelay(),
	}, ctx.Logger.With().Str("component", "employers").Logger())
}

func newJSONStore(ctx *Context) *jsonfile.Store {
	return jsonfile.New(ctx.Config.DataFile, ctx.Logger.With().Str("component", "jsonfile").Logger())
}

// openDatabase connects to the configured database. With create set, the
// database is created first when it does not exist.
func openDatabase(runCtx context.Context, ctx *Context, create bool) (*postgres.Store, error) {
	db := ctx.Config.Database
	if create {
		created, err := postgres.EnsureDatabase(runCtx, db.MaintenanceDSN(), db.Name)
		if err != nil {
			return nil, err
		}
		if created {
			ctx.Logger.Info().Str("database", db.Name).Msg("database created")
		}
	}
	store, err := postgres.Open(runCtx, db.DSN(), ctx.Logger.With().Str("component", "postgres").Logger())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", db.Name, err)
	}
	return store, nil
}

// openStore returns the vacancy store selected by kind and its release func.
func openStore(runCtx context.Context, ctx *Context, kind string) (storage.Store, func(), error) {
	switch kind {
	case "", storeJSON:
		return newJSONStore(ctx), func() {}, nil
	case storePostgres:
		db, err := openDatabase(runCtx, ctx, true)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(runCtx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store: %s", kind)
	}
}

func newSeeder(ctx *Context, client hh.Doer, db seed.Sink) *seed.Seeder {
	return seed.New(newEmployerClient(ctx, client), db, ctx.Logger.With().Str("component", "seed").Logger())
}

// salaryCriteria builds a filter from free-text words and optional bounds.
// A missing bound falls back to the open end of the range.
func salaryCriteria(words string, from, to *int) models.Criteria {
	criteria := models.Criteria{Description: words}
	if from == nil && to == nil {
		return criteria
	}
	r := models.SalaryRange{Min: defaultMinSalary, Max: defaultMaxSalary}
	if from != nil {
		r.Min = *from
	}
	if to != nil {
		r.Max = *to
	}
	criteria.Salary = &r
	return criteria
}
