package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/storage/postgres"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
	// DescriptionWidth truncates descriptions in table output; 0 keeps them whole.
	DescriptionWidth int
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// table is the format-independent shape of every listing.
type table struct {
	header  []string
	rows    [][]string
	linkCol int
	value   any
}

func WriteVacancies(w io.Writer, vacancies []models.Vacancy, format Format, opts WriteOptions) error {
	if vacancies == nil {
		vacancies = []models.Vacancy{}
	}
	t := table{
		header:  []string{"title", "salary", "url", "description"},
		linkCol: 2,
		value:   vacancies,
	}
	for _, v := range vacancies {
		description := safe(v.Description)
		if format == FormatTable || format == "" {
			description = Truncate(description, opts.DescriptionWidth)
		}
		t.rows = append(t.rows, []string{safe(v.Title), salaryCell(v.Salary, format), safe(v.URL), description})
	}
	return write(w, t, format, opts)
}

func WriteVacancyRows(w io.Writer, rows []postgres.VacancyRow, format Format, opts WriteOptions) error {
	if rows == nil {
		rows = []postgres.VacancyRow{}
	}
	t := table{
		header:  []string{"employer", "title", "salary", "currency", "url"},
		linkCol: 4,
		value:   rows,
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{safe(r.Employer), safe(r.Title), salaryCell(r.Salary, format), safe(r.Currency), safe(r.URL)})
	}
	return write(w, t, format, opts)
}

func WriteEmployerCounts(w io.Writer, counts []postgres.EmployerVacancyCount, format Format, opts WriteOptions) error {
	if counts == nil {
		counts = []postgres.EmployerVacancyCount{}
	}
	t := table{
		header:  []string{"employer", "vacancies"},
		linkCol: -1,
		value:   counts,
	}
	for _, c := range counts {
		t.rows = append(t.rows, []string{safe(c.Employer), strconv.Itoa(c.Count)})
	}
	return write(w, t, format, opts)
}

func write(w io.Writer, t table, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, t.value)
	case FormatCSV:
		return writeCSV(w, t, ',')
	case FormatTSV:
		return writeCSV(w, t, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, t)
	default:
		return writeTable(w, t, opts)
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeCSV(w io.Writer, t table, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(t.header); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, t table, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	output := termenv.NewOutput(w)
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == "" {
				cell = "-"
			}
			if i == t.linkCol && cell != "-" {
				cell = linkCell(cell, output, opts)
			}
			cells[i] = cell
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, t table) error {
	if len(t.rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, row := range t.rows {
		lines := []string{fmt.Sprintf("- **%s**", row[0])}
		for i := 1; i < len(row); i++ {
			value := row[i]
			switch {
			case value == "":
				continue
			case i == t.linkCol:
				value = fmt.Sprintf("[Open listing](<%s>)", value)
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", headerLabel(t.header[i]), value))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func headerLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func salaryCell(salary *int, format Format) string {
	if salary == nil {
		return ""
	}
	switch format {
	case FormatCSV, FormatTSV:
		return strconv.Itoa(*salary)
	default:
		return FormatAmount(*salary)
	}
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func linkCell(raw string, output *termenv.Output, opts WriteOptions) string {
	const linkColor = "#87CEEB"

	display := raw
	if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
		display = shortURLLabel(raw)
	}
	if opts.ColorEnabled {
		display = output.String(display).Foreground(output.Color(linkColor)).String()
	}
	if opts.Hyperlinks {
		display = hyperlink(raw, display)
	}
	return display
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
