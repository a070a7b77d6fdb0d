package cmd

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/jimezsa/hhcli/internal/export"
	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/seed"
	"github.com/jimezsa/hhcli/internal/storage"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
	"github.com/jimezsa/hhcli/internal/ui"
	"github.com/rs/zerolog"
)

const (
	defaultMinSalary = 0
	defaultMaxSalary = 999999999

	previewLength = 200

	topSearchResults = 5
	topAllVacancies  = 20
	topAboveAverage  = 15
	topKeywordSearch = 10

	ruleWidth = 50
)

// reportSource is the read side of the relational store.
type reportSource interface {
	ListEmployerVacancyCounts(ctx context.Context) []postgres.EmployerVacancyCount
	ListAllVacancies(ctx context.Context) []postgres.VacancyRow
	AverageSalary(ctx context.Context) float64
	ListAboveAverageSalary(ctx context.Context) []postgres.VacancyRow
	SearchByTitleKeyword(ctx context.Context, keyword string) []postgres.VacancyRow
}

// Shell is the interactive numbered menu. reports may be nil, in which case
// the database menu is unavailable.
type Shell struct {
	ui       *ui.UI
	searcher vacancySearcher
	store    storage.Store
	reports  reportSource
	logger   zerolog.Logger
}

func NewShell(u *ui.UI, searcher vacancySearcher, store storage.Store, reports reportSource, logger zerolog.Logger) *Shell {
	return &Shell{ui: u, searcher: searcher, store: store, reports: reports, logger: logger}
}

// Run shows the main menu until the user exits or input ends. Action errors
// are printed and the menu continues.
func (s *Shell) Run(ctx context.Context) error {
	for {
		s.ui.Printf("\n")
		s.ui.Rule("=", ruleWidth)
		s.ui.Headingf("MAIN MENU")
		s.ui.Rule("=", ruleWidth)
		s.ui.Printf("1. Search vacancies via hh.ru API\n")
		s.ui.Printf("2. Database reports\n")
		s.ui.Printf("0. Exit\n")
		s.ui.Rule("=", ruleWidth)

		choice, err := s.ui.Prompt("Choose an option (0-2): ")
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "1":
			if err := s.searchViaAPI(ctx); err != nil {
				if isEOF(err) {
					return nil
				}
				s.ui.Errorf("Error: %v", err)
			}
			s.ui.Infof("Search finished")
		case "2":
			if s.reports == nil {
				s.ui.Warnf("The database is disabled for this session")
				continue
			}
			exit, err := s.databaseMenu(ctx)
			if err != nil {
				return endOfInput(err)
			}
			if exit {
				s.ui.Infof("Goodbye!")
				return nil
			}
		case "0":
			s.ui.Infof("Goodbye!")
			return nil
		default:
			s.ui.Warnf("Invalid choice, try again")
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
	}
}

func (s *Shell) searchViaAPI(ctx context.Context) error {
	keyword, err := s.ui.Prompt("Search query: ")
	if err != nil {
		return err
	}
	if keyword == "" {
		s.ui.Warnf("A search query is required")
		return nil
	}

	s.ui.Infof("Searching vacancies...")
	found, _, err := searchAndSave(ctx, s.searcher, s.store, keyword, s.logger)
	if err != nil {
		return err
	}
	s.ui.Successf("Found and saved %d vacancies", found)

	s.ui.Printf("\nFilter parameters:\n")
	words, err := s.ui.Prompt("Keywords to filter by (space separated): ")
	if err != nil {
		return err
	}
	s.ui.Printf("- Keywords: %v\n", strings.Fields(words))

	minInput, err := s.ui.Prompt("Minimum salary: ")
	if err != nil {
		return err
	}
	maxInput, err := s.ui.Prompt("Maximum salary: ")
	if err != nil {
		return err
	}
	salary, ok := parseSalaryRange(minInput, maxInput)
	if !ok {
		s.ui.Warnf("Invalid salary input, using the defaults")
	}
	s.ui.Printf("- Salary range: %d-%d\n\n", salary.Min, salary.Max)

	criteria := models.Criteria{Description: strings.Join(strings.Fields(words), " "), Salary: &salary}
	matches, err := s.store.Query(ctx, criteria)
	if err != nil {
		return err
	}
	models.SortBySalaryDesc(matches)

	shown := min(topSearchResults, len(matches))
	s.ui.Headingf("Top %d of %d matching vacancies:", shown, len(matches))
	if len(matches) == 0 {
		s.ui.Printf("No vacancies match the criteria\n")
		return nil
	}
	for i, v := range matches[:shown] {
		s.ui.Printf("\n%d. %s\n", i+1, v.Title)
		s.ui.Printf("   Salary: %s\n", export.FormatSalary(v.Salary, "RUB"))
		s.ui.Printf("   Link: %s\n", s.ui.LinkText(v.URL))
		s.ui.Printf("   Description: %s...\n", preview(v.Description))
	}
	return nil
}

// databaseMenu runs the reports submenu. exit reports that the user asked to
// leave the program rather than go back.
func (s *Shell) databaseMenu(ctx context.Context) (exit bool, err error) {
	for {
		s.ui.Printf("\n")
		s.ui.Rule("=", ruleWidth)
		s.ui.Headingf("HH VACANCIES DATABASE")
		s.ui.Rule("=", ruleWidth)
		s.ui.Printf("1. Employers and vacancy counts\n")
		s.ui.Printf("2. All vacancies\n")
		s.ui.Printf("3. Average salary\n")
		s.ui.Printf("4. Vacancies above the average salary\n")
		s.ui.Printf("5. Search vacancies by keyword\n")
		s.ui.Printf("6. Back to the main menu\n")
		s.ui.Printf("0. Exit\n")
		s.ui.Rule("=", ruleWidth)

		choice, err := s.ui.Prompt("Choose an option (0-6): ")
		if err != nil {
			return false, err
		}

		switch choice {
		case "1":
			s.showEmployerCounts(ctx)
		case "2":
			s.ui.Headingf("\nALL VACANCIES")
			s.showRows(s.reports.ListAllVacancies(ctx), topAllVacancies, "No vacancies in the database")
		case "3":
			s.showAverageSalary(ctx)
		case "4":
			s.ui.Headingf("\nVACANCIES ABOVE THE AVERAGE SALARY")
			s.showRows(s.reports.ListAboveAverageSalary(ctx), topAboveAverage, "No vacancies above the average salary")
		case "5":
			if err := s.searchByKeyword(ctx); err != nil {
				return false, err
			}
		case "6":
			return false, nil
		case "0":
			return true, nil
		default:
			s.ui.Warnf("Invalid choice, try again")
		}
	}
}

func (s *Shell) showEmployerCounts(ctx context.Context) {
	s.ui.Headingf("\nEMPLOYERS AND VACANCY COUNTS")
	s.ui.Rule("-", 40)
	counts := s.reports.ListEmployerVacancyCounts(ctx)
	if len(counts) == 0 {
		s.ui.Warnf("No employer data")
		return
	}
	for i, c := range counts {
		s.ui.Printf("%2d. %-25s | %3d vacancies\n", i+1, c.Employer, c.Count)
	}
}

func (s *Shell) showAverageSalary(ctx context.Context) {
	s.ui.Headingf("\nAVERAGE SALARY")
	s.ui.Rule("-", 30)
	avg := s.reports.AverageSalary(ctx)
	if avg == 0 {
		s.ui.Warnf("Could not compute the average salary")
		return
	}
	s.ui.Printf("Average salary: %s RUB\n", export.FormatAverage(avg))
}

func (s *Shell) searchByKeyword(ctx context.Context) error {
	s.ui.Headingf("\nSEARCH VACANCIES BY KEYWORD")
	keyword, err := s.ui.Prompt("Keyword: ")
	if err != nil {
		return err
	}
	if keyword == "" {
		s.ui.Warnf("A keyword is required")
		return nil
	}
	rows := s.reports.SearchByTitleKeyword(ctx, keyword)
	if len(rows) == 0 {
		s.ui.Warnf("No vacancies with %q in the title", keyword)
		return nil
	}
	s.ui.Printf("\nFound %d vacancies\n", len(rows))
	s.showRows(rows, topKeywordSearch, "")
	return nil
}

func (s *Shell) showRows(rows []postgres.VacancyRow, limit int, empty string) {
	const width = 60
	s.ui.Rule("-", width)
	if len(rows) == 0 {
		s.ui.Warnf("%s", empty)
		return
	}
	shown := min(limit, len(rows))
	for i, r := range rows[:shown] {
		s.ui.Printf("%2d. %s\n", i+1, r.Employer)
		s.ui.Printf("   Title: %s\n", r.Title)
		s.ui.Printf("   Salary: %s\n", rowSalary(r))
		s.ui.Printf("   Link: %s\n", s.ui.LinkText(r.URL))
		s.ui.Rule("-", width)
	}
	if len(rows) > shown {
		s.ui.Printf("... and %d more\n", len(rows)-shown)
	}
}

// prepareDatabase makes sure the tables exist and hold data, seeding them
// when they are missing or empty.
func prepareDatabase(ctx context.Context, u *ui.UI, db dbBootstrap, runSeed func(context.Context) (seed.Result, error)) error {
	exists, err := db.TablesExist(ctx)
	if err != nil {
		return err
	}
	if !exists {
		u.Infof("Tables do not exist, creating them...")
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		return fillDatabase(ctx, u, runSeed)
	}

	count, err := db.CountVacancies(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		u.Infof("The database is empty, filling it...")
		return fillDatabase(ctx, u, runSeed)
	}
	u.Successf("The database already holds %d vacancies", count)
	return nil
}

type dbBootstrap interface {
	TablesExist(ctx context.Context) (bool, error)
	CountVacancies(ctx context.Context) (int, error)
	EnsureSchema(ctx context.Context) error
}

func fillDatabase(ctx context.Context, u *ui.UI, runSeed func(context.Context) (seed.Result, error)) error {
	u.Infof("Fetching employer data from hh.ru...")
	result, err := runSeed(ctx)
	if err != nil {
		return err
	}
	u.Successf("Fetched data for %d employers", len(result.Employers))
	for _, e := range result.Employers {
		switch {
		case e.Error != "" && e.Inserted == 0:
			u.Errorf("%s: %s", e.Name, e.Error)
		case e.Existed:
			u.Warnf("%s: already stored, added %d new vacancies", e.Name, e.Inserted)
		default:
			u.Successf("%s: added %d vacancies", e.Name, e.Inserted)
		}
	}
	u.Successf("Database filled, %d vacancies in total", result.Vacancies)
	return nil
}

// parseSalaryRange reads the optional bounds. Blank input keeps a default;
// any unparsable bound resets both to the defaults.
func parseSalaryRange(minInput, maxInput string) (models.SalaryRange, bool) {
	r := models.SalaryRange{Min: defaultMinSalary, Max: defaultMaxSalary}
	if minInput != "" {
		n, err := strconv.Atoi(minInput)
		if err != nil {
			return models.SalaryRange{Min: defaultMinSalary, Max: defaultMaxSalary}, false
		}
		r.Min = n
	}
	if maxInput != "" {
		n, err := strconv.Atoi(maxInput)
		if err != nil {
			return models.SalaryRange{Min: defaultMinSalary, Max: defaultMaxSalary}, false
		}
		r.Max = n
	}
	return r, true
}

func rowSalary(r postgres.VacancyRow) string {
	if r.Currency == "" {
		return export.FormatSalary(nil, "")
	}
	return export.FormatSalary(r.Salary, r.Currency)
}

func preview(description string) string {
	runes := []rune(description)
	if len(runes) > previewLength {
		return string(runes[:previewLength])
	}
	return description
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// endOfInput treats exhausted input as a normal exit.
func endOfInput(err error) error {
	if isEOF(err) {
		return nil
	}
	return err
}
