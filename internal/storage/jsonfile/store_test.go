package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/rs/zerolog"
)

func intPtr(v int) *int { return &v }

func mustVacancy(t *testing.T, title, url string, salary *int, description string) models.Vacancy {
	t.Helper()
	v, err := models.NewVacancy(title, url, salary, description)
	if err != nil {
		t.Fatalf("NewVacancy() error = %v", err)
	}
	return v
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data", "vacancies.json"), zerolog.Nop())
}

func TestAddIsIdempotentByURL(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	v := mustVacancy(t, "Python Dev", "https://hh.ru/vacancy/1", intPtr(100000), "Django")

	for i := 0; i < 2; i++ {
		if err := s.Add(ctx, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := s.Query(ctx, models.Criteria{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	want := []models.Vacancy{
		mustVacancy(t, "A", "https://hh.ru/vacancy/1", intPtr(1), "one"),
		mustVacancy(t, "B", "https://hh.ru/vacancy/2", nil, "two"),
		mustVacancy(t, "C", "http://hh.ru/vacancy/3", intPtr(0), ""),
	}
	for _, v := range want {
		if err := s.Add(ctx, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := s.Query(ctx, models.Criteria{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Query() = %+v, want %+v", got, want)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "\n  {\n    \"title\": \"A\"") {
		t.Fatalf("document is not indented:\n%s", data)
	}
}

func TestQueryCriteria(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	python := mustVacancy(t, "Python", "https://hh.ru/vacancy/1", intPtr(100000), "Django Flask")
	java := mustVacancy(t, "Java", "https://hh.ru/vacancy/2", intPtr(150000), "Spring")
	open := mustVacancy(t, "Go", "https://hh.ru/vacancy/3", nil, "Django too")
	for _, v := range []models.Vacancy{python, java, open} {
		if err := s.Add(ctx, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name     string
		criteria models.Criteria
		want     []string
	}{
		{"empty", models.Criteria{}, []string{"Python", "Java", "Go"}},
		{"description and salary", models.Criteria{Description: "django", Salary: &models.SalaryRange{Min: 50000, Max: 120000}}, []string{"Python"}},
		{"all tokens", models.Criteria{Description: "DJANGO flask"}, []string{"Python"}},
		{"inclusive bounds", models.Criteria{Salary: &models.SalaryRange{Min: 100000, Max: 150000}}, []string{"Python", "Java"}},
		{"no match", models.Criteria{Description: "rust"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.criteria)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			var titles []string
			for _, v := range got {
				titles = append(titles, v.Title)
			}
			if !reflect.DeepEqual(titles, tt.want) {
				t.Fatalf("Query() titles = %v, want %v", titles, tt.want)
			}
		})
	}
}

func TestCorruptAndMissingFilesReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, content := range map[string]string{"corrupt": "{not json", "empty": "  \n", "missing": ""} {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			if name != "missing" {
				if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
					t.Fatalf("MkdirAll() error = %v", err)
				}
				if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}
			got, err := s.Query(ctx, models.Criteria{})
			if err != nil || len(got) != 0 {
				t.Fatalf("Query() = %v, %v, want empty", got, err)
			}
			v := mustVacancy(t, "A", "https://hh.ru/vacancy/1", nil, "")
			if err := s.Add(ctx, v); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			got, _ = s.Query(ctx, models.Criteria{})
			if len(got) != 1 {
				t.Fatalf("len after Add = %d, want 1", len(got))
			}
		})
	}
}

func TestQuerySkipsMalformedEntries(t *testing.T) {
	s := newStore(t)
	doc := `[
  {"title": "Good", "url": "https://hh.ru/vacancy/1", "salary": 5000.7, "description": "ok"},
  {"title": "", "url": "https://hh.ru/vacancy/2", "salary": null, "description": ""},
  {"title": "Bad salary", "url": "https://hh.ru/vacancy/3", "salary": "lots", "description": ""},
  {"title": "Bad url", "url": "ftp://hh.ru/vacancy/4", "salary": null, "description": ""},
  42
]`
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := s.Query(context.Background(), models.Criteria{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Good" || *got[0].Salary != 5000 {
		t.Fatalf("Query() = %+v, want only the valid entry", got)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := mustVacancy(t, "A", "https://hh.ru/vacancy/1", nil, "")
	b := mustVacancy(t, "B", "https://hh.ru/vacancy/2", nil, "")
	for _, v := range []models.Vacancy{a, b} {
		if err := s.Add(ctx, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if err := s.Remove(ctx, a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ := s.Query(ctx, models.Criteria{})
	if len(got) != 1 || got[0].URL != b.URL {
		t.Fatalf("Query() after Remove = %+v", got)
	}

	if err := s.Remove(ctx, a); err != nil {
		t.Fatalf("Remove() of absent vacancy error = %v", err)
	}
}

func TestAddPropagatesWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s := New(filepath.Join(blocker, "vacancies.json"), zerolog.Nop())

	v := mustVacancy(t, "A", "https://hh.ru/vacancy/1", nil, "")
	if err := s.Add(context.Background(), v); err == nil {
		t.Fatalf("Add() error = nil, want write error")
	}
}

func TestAddKeepsURLsReadable(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	v := mustVacancy(t, "Go <Senior>", "https://hh.ru/vacancy/1?a=1&b=2", nil, "R&D")
	if err := s.Add(ctx, v); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	doc := string(data)
	for _, want := range []string{`"https://hh.ru/vacancy/1?a=1&b=2"`, `"Go <Senior>"`, `"R&D"`} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %s:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, `\u0026`) {
		t.Fatalf("document escapes ampersands:\n%s", doc)
	}

	got, err := s.Query(ctx, models.Criteria{})
	if err != nil || len(got) != 1 || !got[0].Equal(v) {
		t.Fatalf("Query() = %+v, %v", got, err)
	}
}
