package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jimezsa/hhcli/internal/export"
	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/storage"
	"github.com/rs/zerolog"
)

type SearchCmd struct {
	Keyword   string `arg:"" help:"Search text sent to hh.ru."`
	Filter    string `help:"Words that must all appear in the description."`
	MinSalary *int   `name:"min-salary" help:"Lowest salary to show (inclusive)."`
	MaxSalary *int   `name:"max-salary" help:"Highest salary to show (inclusive)."`
	Top       int    `help:"Show only the N best paid matches (0 = all)."`
	Store     string `help:"Where fetched vacancies are saved: json or postgres." enum:"json,postgres" default:"json"`
	Proxies   string `help:"Comma-separated proxy URLs." env:"HHCLI_PROXIES"`
	OutputOptions
}

// vacancySearcher fetches and normalizes vacancies for a keyword.
type vacancySearcher interface {
	Search(ctx context.Context, keyword string) ([]models.Vacancy, error)
}

func (s *SearchCmd) Run(ctx *Context) error {
	keyword := strings.TrimSpace(s.Keyword)
	if keyword == "" {
		return fmt.Errorf("a non-empty keyword is required")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := newAPIClient(ctx, s.Proxies)
	if err != nil {
		return err
	}
	store, release, err := openStore(runCtx, ctx, s.Store)
	if err != nil {
		return err
	}
	defer release()

	stopIndicator := startIndicator(ctx, "Searching")
	found, saved, err := searchAndSave(runCtx, newSearchClient(ctx, client), store, keyword, ctx.Logger)
	if stopIndicator != nil {
		stopIndicator()
	}
	if err != nil {
		return err
	}

	matches, err := store.Query(runCtx, salaryCriteria(s.Filter, s.MinSalary, s.MaxSalary))
	if err != nil {
		return err
	}
	matches = topBySalary(matches, s.Top)

	if err := writeListing(ctx, s.OutputOptions, func(w io.Writer, format export.Format, opts export.WriteOptions) error {
		return export.WriteVacancies(w, matches, format, opts)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Err, "summary: found=%d saved=%d shown=%d\n", found, saved, len(matches))
	return nil
}

// searchAndSave runs a keyword search and adds every valid vacancy to store.
// Vacancies failing validation are logged and left out.
func searchAndSave(ctx context.Context, searcher vacancySearcher, store storage.Store, keyword string, logger zerolog.Logger) (found int, saved int, err error) {
	vacancies, err := searcher.Search(ctx, keyword)
	if err != nil {
		if !errors.Is(err, models.ErrValidation) {
			return 0, 0, err
		}
		logger.Warn().Err(err).Msg("some vacancies were skipped")
	}

	saved, err = storage.AddAll(ctx, store, vacancies)
	if err != nil {
		return len(vacancies), saved, fmt.Errorf("save vacancies: %w", err)
	}
	return len(vacancies), saved, nil
}

// topBySalary sorts best paid first and keeps at most n entries; n <= 0
// keeps all.
func topBySalary(vacancies []models.Vacancy, n int) []models.Vacancy {
	models.SortBySalaryDesc(vacancies)
	if n > 0 && len(vacancies) > n {
		return vacancies[:n]
	}
	return vacancies
}
