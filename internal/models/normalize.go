package models

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromRaw normalizes an API vacancy: name, alternate_url, the averaged salary
// and the snippet requirement with markup removed.
func FromRaw(raw RawVacancy) (Vacancy, error) {
	from, to, _ := raw.SalaryBounds()
	return NewVacancy(
		raw.Name,
		raw.AlternateURL,
		AverageSalary(from, to),
		StripHTML(raw.Requirement()),
	)
}

// FromRawList normalizes every item. Items that fail validation are left out
// of the result and reported together in the returned error.
func FromRawList(raws []RawVacancy) ([]Vacancy, error) {
	vacancies := make([]Vacancy, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		vacancy, err := FromRaw(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		vacancies = append(vacancies, vacancy)
	}
	return vacancies, errors.Join(errs...)
}

// StripHTML returns the text content of a markup fragment.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
