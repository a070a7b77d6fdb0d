package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/seed"
	"github.com/jimezsa/hhcli/internal/storage/jsonfile"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
	"github.com/jimezsa/hhcli/internal/ui"
	"github.com/rs/zerolog"
)

type fakeReports struct {
	counts   []postgres.EmployerVacancyCount
	rows     []postgres.VacancyRow
	avg      float64
	keywords []string
}

func (f *fakeReports) ListEmployerVacancyCounts(context.Context) []postgres.EmployerVacancyCount {
	return f.counts
}

func (f *fakeReports) ListAllVacancies(context.Context) []postgres.VacancyRow { return f.rows }

func (f *fakeReports) AverageSalary(context.Context) float64 { return f.avg }

func (f *fakeReports) ListAboveAverageSalary(context.Context) []postgres.VacancyRow {
	return f.rows[:1]
}

func (f *fakeReports) SearchByTitleKeyword(_ context.Context, keyword string) []postgres.VacancyRow {
	f.keywords = append(f.keywords, keyword)
	return nil
}

func newTestUI(input string) (*ui.UI, *bytes.Buffer) {
	var out bytes.Buffer
	u := ui.New(&out, &out, ui.ColorNever, true).WithInput(strings.NewReader(input))
	return u, &out
}

func TestShellSearchFlow(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	searcher := &fakeSearcher{vacancies: []models.Vacancy{
		vacancy(t, "Python Dev", "1", intPtr(100000), "Django Flask "+strings.Repeat("x", 300)),
		vacancy(t, "Java Dev", "2", intPtr(150000), "Spring"),
		vacancy(t, "Python Lead", "3", nil, "Django"),
	}}
	u, out := newTestUI("1\nPython\ndjango\n50000\n120000\n0\n")

	if err := NewShell(u, searcher, store, nil, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Found and saved 3 vacancies",
		"- Keywords: [django]",
		"- Salary range: 50000-120000",
		"Top 1 of 1 matching vacancies:",
		"1. Python Dev",
		"Salary: 100,000 RUB",
		"Link: https://hh.ru/vacancy/1",
		"Goodbye!",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Python Lead") {
		t.Fatalf("vacancy without salary matched a salary range:\n%s", got)
	}
	if strings.Contains(got, strings.Repeat("x", 250)) {
		t.Fatalf("description preview was not truncated")
	}
	if len(searcher.keywords) != 1 || searcher.keywords[0] != "Python" {
		t.Fatalf("searched keywords = %v", searcher.keywords)
	}
}

func TestShellBadSalaryUsesDefaults(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	searcher := &fakeSearcher{vacancies: []models.Vacancy{vacancy(t, "Go", "1", intPtr(1), "")}}
	u, out := newTestUI("1\nGo\n\nlots\n\n")

	if err := NewShell(u, searcher, store, nil, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Invalid salary input") || !strings.Contains(got, "- Salary range: 0-999999999") {
		t.Fatalf("output:\n%s", got)
	}
}

func TestShellSearchErrorKeepsMenu(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	searcher := &fakeSearcher{err: errors.New("hh: cannot connect to the vacancies API")}
	u, out := newTestUI("1\nGo\n7\n2\n0\n")

	if err := NewShell(u, searcher, store, nil, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"Error: hh: cannot connect", "Invalid choice", "database is disabled", "Goodbye!"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShellDatabaseMenu(t *testing.T) {
	reports := &fakeReports{
		counts: []postgres.EmployerVacancyCount{{Employer: "Yandex", Count: 12}},
		avg:    123456.78,
	}
	for i := 0; i < 25; i++ {
		reports.rows = append(reports.rows, postgres.VacancyRow{Employer: "Yandex", Title: "SRE", Salary: intPtr(300000), Currency: "RUR", URL: "https://hh.ru/vacancy/x"})
	}
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	u, out := newTestUI("2\n1\n2\n3\n4\n5\ngolang\n5\n\n6\n0\n")

	if err := NewShell(u, &fakeSearcher{}, store, reports, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		" 1. Yandex                    |  12 vacancies",
		"20. Yandex",
		"... and 5 more",
		"Average salary: 123,457 RUB",
		"Salary: 300,000 RUR",
		"No vacancies with \"golang\" in the title",
		"A keyword is required",
		"MAIN MENU",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "21. Yandex") {
		t.Fatalf("all vacancies listing exceeded 20 rows")
	}
	if len(reports.keywords) != 1 || reports.keywords[0] != "golang" {
		t.Fatalf("keywords = %v", reports.keywords)
	}
}

func TestShellExitsFromDatabaseMenu(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	u, out := newTestUI("2\n0\n")
	if err := NewShell(u, &fakeSearcher{}, store, &fakeReports{}, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Count(out.String(), "MAIN MENU") != 1 || !strings.Contains(out.String(), "Goodbye!") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestShellEndOfInput(t *testing.T) {
	store := jsonfile.New(filepath.Join(t.TempDir(), "vacancies.json"), zerolog.Nop())
	u, _ := newTestUI("1\n")
	if err := NewShell(u, &fakeSearcher{}, store, nil, zerolog.Nop()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want clean exit on EOF", err)
	}
}

func TestParseSalaryRange(t *testing.T) {
	tests := []struct {
		min, max string
		want     models.SalaryRange
		ok       bool
	}{
		{"", "", models.SalaryRange{Min: 0, Max: 999999999}, true},
		{"100", "", models.SalaryRange{Min: 100, Max: 999999999}, true},
		{"", "200", models.SalaryRange{Min: 0, Max: 200}, true},
		{"100", "abc", models.SalaryRange{Min: 0, Max: 999999999}, false},
		{"1.5", "200", models.SalaryRange{Min: 0, Max: 999999999}, false},
	}
	for _, tt := range tests {
		got, ok := parseSalaryRange(tt.min, tt.max)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseSalaryRange(%q, %q) = %+v, %v, want %+v, %v", tt.min, tt.max, got, ok, tt.want, tt.ok)
		}
	}
}

type fakeBootstrap struct {
	exists      bool
	count       int
	schemaCalls int
	err         error
}

func (f *fakeBootstrap) TablesExist(context.Context) (bool, error) { return f.exists, f.err }

func (f *fakeBootstrap) CountVacancies(context.Context) (int, error) { return f.count, nil }

func (f *fakeBootstrap) EnsureSchema(context.Context) error {
	f.schemaCalls++
	return nil
}

func TestPrepareDatabase(t *testing.T) {
	result := seed.Result{
		Employers: []seed.EmployerResult{{Name: "Yandex", Inserted: 7}, {Name: "VK", Existed: true}},
		Vacancies: 7,
	}
	tests := []struct {
		name       string
		db         *fakeBootstrap
		wantSeed   bool
		wantSchema int
	}{
		{"missing tables", &fakeBootstrap{}, true, 1},
		{"empty tables", &fakeBootstrap{exists: true}, true, 0},
		{"populated", &fakeBootstrap{exists: true, count: 42}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, out := newTestUI("")
			seeded := false
			runSeed := func(context.Context) (seed.Result, error) {
				seeded = true
				return result, nil
			}
			if err := prepareDatabase(context.Background(), u, tt.db, runSeed); err != nil {
				t.Fatalf("prepareDatabase() error = %v", err)
			}
			if seeded != tt.wantSeed || tt.db.schemaCalls != tt.wantSchema {
				t.Fatalf("seeded = %v, schema calls = %d", seeded, tt.db.schemaCalls)
			}
			if tt.wantSeed && !strings.Contains(out.String(), "Yandex: added 7 vacancies") {
				t.Fatalf("output:\n%s", out.String())
			}
			if !tt.wantSeed && !strings.Contains(out.String(), "already holds 42 vacancies") {
				t.Fatalf("output:\n%s", out.String())
			}
		})
	}
}

func TestPrepareDatabasePropagatesErrors(t *testing.T) {
	u, _ := newTestUI("")
	noSeed := func(context.Context) (seed.Result, error) { return seed.Result{}, seed.ErrNoEmployers }

	if err := prepareDatabase(context.Background(), u, &fakeBootstrap{err: errors.New("boom")}, noSeed); err == nil {
		t.Fatalf("prepareDatabase() error = nil, want lookup error")
	}
	if err := prepareDatabase(context.Background(), u, &fakeBootstrap{exists: true}, noSeed); !errors.Is(err, seed.ErrNoEmployers) {
		t.Fatalf("prepareDatabase() error = %v, want ErrNoEmployers", err)
	}
}
