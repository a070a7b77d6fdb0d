package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/hhcli/internal/export"
	"github.com/jimezsa/hhcli/internal/seed"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
)

type DBCmd struct {
	Setup          DBSetupCmd          `cmd:"" help:"Create the database and tables."`
	Seed           DBSeedCmd           `cmd:"" help:"Load roster employers and their vacancies."`
	Companies      DBCompaniesCmd      `cmd:"" help:"Employers with their vacancy counts."`
	Vacancies      DBVacanciesCmd      `cmd:"" help:"All vacancies, best paid first."`
	AvgSalary      DBAvgSalaryCmd      `cmd:"" name:"avg-salary" help:"Average salary across vacancies."`
	AboveAvg       DBAboveAvgCmd       `cmd:"" name:"above-avg" help:"Vacancies paying above the average."`
	Find           DBFindCmd           `cmd:"" help:"Vacancies whose title contains a keyword."`
	DeleteEmployer DBDeleteEmployerCmd `cmd:"" name:"delete-employer" help:"Delete an employer and its vacancies."`
}

type DBSetupCmd struct{}

type DBSeedCmd struct {
	MinVacancies int    `name:"min-vacancies" help:"Skip employers with fewer vacancies (default from config)."`
	Schedule     string `help:"Keep re-seeding on a cron spec, e.g. \"@every 6h\"."`
	Proxies      string `help:"Comma-separated proxy URLs." env:"HHCLI_PROXIES"`
}

type DBCompaniesCmd struct {
	OutputOptions
}

type DBVacanciesCmd struct {
	Limit int `help:"Show at most N rows (0 = all)."`
	OutputOptions
}

type DBAvgSalaryCmd struct{}

type DBAboveAvgCmd struct {
	Limit int `help:"Show at most N rows (0 = all)."`
	OutputOptions
}

type DBFindCmd struct {
	Keyword string `arg:"" help:"Text to look for in vacancy titles."`
	Limit   int    `help:"Show at most N rows (0 = all)."`
	OutputOptions
}

type DBDeleteEmployerCmd struct {
	ID int64 `arg:"" help:"hh.ru employer id."`
}

// withDB opens the configured database for the duration of fn.
func withDB(ctx *Context, fn func(context.Context, *postgres.Store) error) error {
	runCtx := context.Background()
	db, err := openDatabase(runCtx, ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(runCtx, db)
}

func (c *DBSetupCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	db, err := openDatabase(runCtx, ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(runCtx); err != nil {
		return err
	}
	ctx.UI.Successf("Database %s is ready", ctx.Config.Database.Name)
	return nil
}

func (c *DBSeedCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := openDatabase(runCtx, ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.EnsureSchema(runCtx); err != nil {
		return err
	}

	client, err := newAPIClient(ctx, c.Proxies)
	if err != nil {
		return err
	}
	seeder := newSeeder(ctx, client, db)
	minVacancies := c.MinVacancies
	if minVacancies <= 0 {
		minVacancies = ctx.Config.MinVacancies
	}

	if strings.TrimSpace(c.Schedule) == "" {
		result, err := seeder.Run(runCtx, minVacancies)
		if err != nil {
			return err
		}
		return writeSeedResult(ctx, result)
	}

	scheduler := seed.NewScheduler(seeder, c.Schedule, minVacancies, ctx.Logger.With().Str("component", "schedule").Logger())
	scheduler.OnResult(func(result seed.Result, err error) {
		if err != nil {
			ctx.UI.Errorf("seed: %v", err)
			return
		}
		_ = writeSeedResult(ctx, result)
	})
	ctx.UI.Infof("Seeding on schedule %q, press Ctrl+C to stop", c.Schedule)
	return scheduler.Run(runCtx)
}

func writeSeedResult(ctx *Context, result seed.Result) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "employer\tid\tfetched\tinserted\tstatus")
	for _, e := range result.Employers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", e.Name, e.ID, e.Fetched, e.Inserted, seedStatus(e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(ctx.Err, "summary: employers=%d vacancies=%d\n", len(result.Employers), result.Vacancies)
	return err
}

func seedStatus(e seed.EmployerResult) string {
	switch {
	case e.Existed && e.Error == "":
		return "updated"
	case e.Error != "" && e.Inserted == 0 && e.Fetched > 0:
		return "error: " + e.Error
	case e.Error != "":
		return "partial: " + e.Error
	default:
		return "added"
	}
}

func (c *DBCompaniesCmd) Run(ctx *Context) error {
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		counts := db.ListEmployerVacancyCounts(runCtx)
		return writeListing(ctx, c.OutputOptions, func(w io.Writer, format export.Format, opts export.WriteOptions) error {
			return export.WriteEmployerCounts(w, counts, format, opts)
		})
	})
}

func (c *DBVacanciesCmd) Run(ctx *Context) error {
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		return writeRows(ctx, c.OutputOptions, limitRows(db.ListAllVacancies(runCtx), c.Limit))
	})
}

func (c *DBAvgSalaryCmd) Run(ctx *Context) error {
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		avg := db.AverageSalary(runCtx)
		if ctx.JSONOutput {
			return json.NewEncoder(ctx.Out).Encode(map[string]float64{"average_salary": avg})
		}
		if ctx.PlainText {
			_, err := fmt.Fprintf(ctx.Out, "%.2f\n", avg)
			return err
		}
		if avg == 0 {
			ctx.UI.Warnf("No salary data to average")
			return nil
		}
		_, err := fmt.Fprintf(ctx.Out, "Average salary: %s\n", export.FormatAverage(avg))
		return err
	})
}

func (c *DBAboveAvgCmd) Run(ctx *Context) error {
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		return writeRows(ctx, c.OutputOptions, limitRows(db.ListAboveAverageSalary(runCtx), c.Limit))
	})
}

func (c *DBFindCmd) Run(ctx *Context) error {
	keyword := strings.TrimSpace(c.Keyword)
	if keyword == "" {
		return fmt.Errorf("a non-empty keyword is required")
	}
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		return writeRows(ctx, c.OutputOptions, limitRows(db.SearchByTitleKeyword(runCtx, keyword), c.Limit))
	})
}

func (c *DBDeleteEmployerCmd) Run(ctx *Context) error {
	return withDB(ctx, func(runCtx context.Context, db *postgres.Store) error {
		deleted, err := db.DeleteEmployer(runCtx, c.ID)
		if err != nil {
			return err
		}
		if !deleted {
			ctx.UI.Warnf("No employer with id %d", c.ID)
			return nil
		}
		ctx.UI.Successf("Deleted employer %d and its vacancies", c.ID)
		return nil
	})
}

func writeRows(ctx *Context, opts OutputOptions, rows []postgres.VacancyRow) error {
	return writeListing(ctx, opts, func(w io.Writer, format export.Format, wopts export.WriteOptions) error {
		return export.WriteVacancyRows(w, rows, format, wopts)
	})
}

func limitRows(rows []postgres.VacancyRow, limit int) []postgres.VacancyRow {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}
