package postgres

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"testing"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/rs/zerolog"
)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func rawVacancy(t *testing.T, doc string) models.RawVacancy {
	t.Helper()
	var raw models.RawVacancy
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return raw
}

func TestNewVacancyRecord(t *testing.T) {
	raw := rawVacancy(t, `{
		"id": "93000001",
		"name": "Go Developer",
		"alternate_url": "https://hh.ru/vacancy/93000001",
		"salary": {"from": 200000, "to": 300001, "currency": "RUR"},
		"snippet": {"requirement": "<highlighttext>Go</highlighttext> 3+ years"},
		"experience": {"id": "between3And6", "name": "3-6 years"},
		"employment": {"id": "full", "name": "Full time"}
	}`)

	got := newVacancyRecord(raw)
	want := vacancyRecord{
		Title:       "Go Developer",
		SalaryFrom:  intPtr(200000),
		SalaryTo:    intPtr(300001),
		SalaryAvg:   intPtr(250000),
		Currency:    strPtr("RUR"),
		URL:         "https://hh.ru/vacancy/93000001",
		Description: "Go 3+ years",
		Experience:  strPtr("3-6 years"),
		Employment:  strPtr("Full time"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("newVacancyRecord() = %+v, want %+v", got, want)
	}
}

func TestNewVacancyRecordWithoutSalary(t *testing.T) {
	raw := rawVacancy(t, `{"name": "Intern", "alternate_url": "https://hh.ru/vacancy/1", "description": "<p>Learn</p>"}`)

	got := newVacancyRecord(raw)
	if got.SalaryAvg != nil || got.SalaryFrom != nil || got.SalaryTo != nil || got.Currency != nil {
		t.Fatalf("salary columns = %+v, want all NULL", got)
	}
	if got.Description != "Learn" {
		t.Fatalf("Description = %q, want %q", got.Description, "Learn")
	}
	if got.Experience != nil || got.Employment != nil {
		t.Fatalf("experience/employment = %v/%v, want NULL", got.Experience, got.Employment)
	}
}

// openTestStore connects to HHCLI_TEST_DATABASE_URL and empties the tables.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("HHCLI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HHCLI_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE vacancies, companies RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func seedEmployer(t *testing.T, s *Store, id, name string, salaries ...*int) int64 {
	t.Helper()
	ctx := context.Background()
	key, inserted, err := s.UpsertEmployer(ctx, models.Employer{ID: models.ID(id), Name: name})
	if err != nil || !inserted {
		t.Fatalf("UpsertEmployer(%s) = %d, %v, %v", id, key, inserted, err)
	}
	for i, salary := range salaries {
		raw := models.RawVacancy{
			Name:         name + " vacancy",
			AlternateURL: "https://hh.ru/vacancy/" + id + "-" + string(rune('a'+i)),
		}
		if salary != nil {
			raw.Salary = &models.Salary{From: salary, Currency: "RUR"}
		}
		if _, err := s.UpsertVacancy(ctx, raw, key); err != nil {
			t.Fatalf("UpsertVacancy() error = %v", err)
		}
	}
	return key
}

func TestUpsertIdempotence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	employer := models.Employer{ID: "1740", Name: "Yandex", AlternateURL: "https://hh.ru/employer/1740"}
	key, inserted, err := s.UpsertEmployer(ctx, employer)
	if err != nil || !inserted || key == 0 {
		t.Fatalf("first UpsertEmployer() = %d, %v, %v", key, inserted, err)
	}
	if _, inserted, err := s.UpsertEmployer(ctx, employer); err != nil || inserted {
		t.Fatalf("second UpsertEmployer() inserted = %v, err = %v, want already existing", inserted, err)
	}
	if got, found, err := s.EmployerKey(ctx, employer); err != nil || !found || got != key {
		t.Fatalf("EmployerKey() = %d, %v, %v, want %d", got, found, err, key)
	}
	if _, found, err := s.EmployerKey(ctx, models.Employer{ID: "99", Name: "Nobody"}); err != nil || found {
		t.Fatalf("EmployerKey(missing) found = %v, err = %v", found, err)
	}

	raw := models.RawVacancy{Name: "Go", AlternateURL: "https://hh.ru/vacancy/1"}
	if ok, err := s.UpsertVacancy(ctx, raw, key); err != nil || !ok {
		t.Fatalf("first UpsertVacancy() = %v, %v", ok, err)
	}
	if ok, err := s.UpsertVacancy(ctx, raw, key); err != nil || ok {
		t.Fatalf("second UpsertVacancy() = %v, %v, want not inserted", ok, err)
	}

	n, err := s.CountVacancies(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountVacancies() = %d, %v, want 1", n, err)
	}
	exists, err := s.TablesExist(ctx)
	if err != nil || !exists {
		t.Fatalf("TablesExist() = %v, %v", exists, err)
	}
}

func TestReports(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if avg := s.AverageSalary(ctx); avg != 0 {
		t.Fatalf("AverageSalary() on empty table = %v, want 0", avg)
	}

	seedEmployer(t, s, "1", "Alpha", intPtr(100), intPtr(200), nil)
	seedEmployer(t, s, "2", "Beta", intPtr(301))
	seedEmployer(t, s, "3", "Empty")

	counts := s.ListEmployerVacancyCounts(ctx)
	wantCounts := []EmployerVacancyCount{{"Alpha", 3}, {"Beta", 1}, {"Empty", 0}}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Fatalf("ListEmployerVacancyCounts() = %+v, want %+v", counts, wantCounts)
	}

	all := s.ListAllVacancies(ctx)
	if len(all) != 4 || *all[0].Salary != 301 || *all[3].Salary != 0 {
		t.Fatalf("ListAllVacancies() = %+v", all)
	}

	if avg := s.AverageSalary(ctx); avg != 200.33 {
		t.Fatalf("AverageSalary() = %v, want 200.33", avg)
	}

	above := s.ListAboveAverageSalary(ctx)
	if len(above) != 1 || above[0].Employer != "Beta" {
		t.Fatalf("ListAboveAverageSalary() = %+v", above)
	}

	found := s.SearchByTitleKeyword(ctx, "ALPHA")
	if len(found) != 3 || found[2].Salary != nil {
		t.Fatalf("SearchByTitleKeyword() = %+v, want nulls last", found)
	}

	deleted, err := s.DeleteEmployer(ctx, 1)
	if err != nil || !deleted {
		t.Fatalf("DeleteEmployer() = %v, %v", deleted, err)
	}
	if n, _ := s.CountVacancies(ctx); n != 1 {
		t.Fatalf("CountVacancies() after delete = %d, want 1", n)
	}
}

func TestAboveAverageEmptyWhenEqual(t *testing.T) {
	s := openTestStore(t)
	seedEmployer(t, s, "1", "Flat", intPtr(500), intPtr(500))

	if got := s.ListAboveAverageSalary(context.Background()); len(got) != 0 {
		t.Fatalf("ListAboveAverageSalary() = %+v, want empty", got)
	}
}

func TestStoreInterface(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	python, _ := models.NewVacancy("Python", "https://hh.ru/vacancy/1", intPtr(100000), "Django Flask")
	java, _ := models.NewVacancy("Java", "https://hh.ru/vacancy/2", intPtr(150000), "Spring")
	for _, v := range []models.Vacancy{python, java, python} {
		if err := s.Add(ctx, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := s.Query(ctx, models.Criteria{Description: "django", Salary: &models.SalaryRange{Min: 50000, Max: 120000}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || !got[0].Equal(python) {
		t.Fatalf("Query() = %+v, want the Python vacancy", got)
	}

	if err := s.Remove(ctx, python); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	all, _ := s.Query(ctx, models.Criteria{})
	if len(all) != 1 || all[0].URL != java.URL {
		t.Fatalf("Query() after Remove = %+v", all)
	}
}
