package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/hhcli/internal/export"
	"github.com/jimezsa/hhcli/internal/models"
)

type SavedCmd struct {
	List   SavedListCmd   `cmd:"" help:"List saved vacancies matching a filter."`
	Remove SavedRemoveCmd `cmd:"" help:"Remove a saved vacancy by URL."`
}

type SavedListCmd struct {
	Filter    string `help:"Words that must all appear in the description."`
	MinSalary *int   `name:"min-salary" help:"Lowest salary to show (inclusive)."`
	MaxSalary *int   `name:"max-salary" help:"Highest salary to show (inclusive)."`
	Top       int    `help:"Show only the N best paid matches (0 = all, file order)."`
	Store     string `help:"Store to read: json or postgres." enum:"json,postgres" default:"json"`
	OutputOptions
}

type SavedRemoveCmd struct {
	URL   string `arg:"" help:"Vacancy URL."`
	Store string `help:"Store to modify: json or postgres." enum:"json,postgres" default:"json"`
}

func (c *SavedListCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	store, release, err := openStore(runCtx, ctx, c.Store)
	if err != nil {
		return err
	}
	defer release()

	vacancies, err := store.Query(runCtx, salaryCriteria(c.Filter, c.MinSalary, c.MaxSalary))
	if err != nil {
		return err
	}
	if c.Top > 0 {
		vacancies = topBySalary(vacancies, c.Top)
	}

	return writeListing(ctx, c.OutputOptions, func(w io.Writer, format export.Format, opts export.WriteOptions) error {
		return export.WriteVacancies(w, vacancies, format, opts)
	})
}

func (c *SavedRemoveCmd) Run(ctx *Context) error {
	url := strings.TrimSpace(c.URL)
	if url == "" {
		return fmt.Errorf("a vacancy URL is required")
	}
	runCtx := context.Background()
	store, release, err := openStore(runCtx, ctx, c.Store)
	if err != nil {
		return err
	}
	defer release()

	if err := store.Remove(runCtx, models.Vacancy{URL: url}); err != nil {
		return err
	}
	ctx.UI.Successf("Removed %s", url)
	return nil
}
