package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
)

func intPtr(v int) *int { return &v }

func sampleVacancies() []models.Vacancy {
	return []models.Vacancy{
		{Title: "Go Dev", URL: "https://hh.ru/vacancy/1", Salary: intPtr(250000), Description: "Kubernetes, gRPC"},
		{Title: "Intern", URL: "https://hh.ru/vacancy/2", Description: "Learn"},
	}
}

func TestWriteVacanciesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVacancies(&buf, sampleVacancies(), FormatCSV, WriteOptions{}); err != nil {
		t.Fatalf("WriteVacancies() error = %v", err)
	}
	want := "title,salary,url,description\n" +
		"Go Dev,250000,https://hh.ru/vacancy/1,\"Kubernetes, gRPC\"\n" +
		"Intern,,https://hh.ru/vacancy/2,Learn\n"
	if buf.String() != want {
		t.Fatalf("csv output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteVacanciesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVacancies(&buf, nil, FormatJSON, WriteOptions{}); err != nil {
		t.Fatalf("WriteVacancies() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("json output = %q, want []", buf.String())
	}

	buf.Reset()
	if err := WriteVacancies(&buf, sampleVacancies(), FormatJSON, WriteOptions{}); err != nil {
		t.Fatalf("WriteVacancies() error = %v", err)
	}
	var got []models.Vacancy
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got) != 2 || got[1].Salary != nil {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestWriteVacanciesTable(t *testing.T) {
	var buf bytes.Buffer
	opts := WriteOptions{DescriptionWidth: 8}
	if err := WriteVacancies(&buf, sampleVacancies(), FormatTable, opts); err != nil {
		t.Fatalf("WriteVacancies() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"title", "250,000", "Kuber...", "https://hh.ru/vacancy/2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b") {
		t.Fatalf("table output contains escape codes without color:\n%s", out)
	}
}

func TestWriteVacancyRowsMarkdown(t *testing.T) {
	rows := []postgres.VacancyRow{{Employer: "Yandex", Title: "SRE", Salary: intPtr(1234567), Currency: "RUR", URL: "https://hh.ru/vacancy/9"}}
	var buf bytes.Buffer
	if err := WriteVacancyRows(&buf, rows, FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("WriteVacancyRows() error = %v", err)
	}
	want := "- **Yandex**\n  Title: SRE\n  Salary: 1,234,567\n  Currency: RUR\n  Url: [Open listing](<https://hh.ru/vacancy/9>)\n"
	if buf.String() != want {
		t.Fatalf("markdown output =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := WriteVacancyRows(&buf, nil, FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("WriteVacancyRows() error = %v", err)
	}
	if buf.String() != "No results.\n" {
		t.Fatalf("empty markdown = %q", buf.String())
	}
}

func TestWriteEmployerCountsTSV(t *testing.T) {
	counts := []postgres.EmployerVacancyCount{{Employer: "Yandex", Count: 12}, {Employer: "VK", Count: 0}}
	var buf bytes.Buffer
	if err := WriteEmployerCounts(&buf, counts, FormatTSV, WriteOptions{}); err != nil {
		t.Fatalf("WriteEmployerCounts() error = %v", err)
	}
	want := "employer\tvacancies\nYandex\t12\nVK\t0\n"
	if buf.String() != want {
		t.Fatalf("tsv output = %q, want %q", buf.String(), want)
	}
}

func TestFormatSalary(t *testing.T) {
	tests := []struct {
		salary   *int
		currency string
		want     string
	}{
		{intPtr(150000), "RUR", "150,000 RUR"},
		{intPtr(999), "", "999"},
		{intPtr(0), "RUR", "not specified"},
		{nil, "RUR", "not specified"},
	}
	for _, tt := range tests {
		if got := FormatSalary(tt.salary, tt.currency); got != tt.want {
			t.Fatalf("FormatSalary() = %q, want %q", got, tt.want)
		}
	}
	if got := FormatAverage(200333.4); got != "200,333" {
		t.Fatalf("FormatAverage() = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Привет мир", 7); got != "Прив..." {
		t.Fatalf("Truncate() = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate() = %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Fatalf("Truncate() = %q", got)
	}
}
