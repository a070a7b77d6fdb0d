package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID holds an API identifier. The API sends ids as strings, but numeric ids
// are accepted as well.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Int64 parses the identifier as the numeric key stored in the database.
func (id ID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// Salary is the salary block of a vacancy as returned by the API.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency,omitempty"`
	Gross    *bool  `json:"gross,omitempty"`
}

// Snippet holds the short highlighted texts of a search result.
type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

// NamedRef is the {id, name} dictionary value used across the API.
type NamedRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// RawVacancy is a vacancy item as returned by the vacancies endpoint.
type RawVacancy struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	AlternateURL string    `json:"alternate_url"`
	Salary       *Salary   `json:"salary"`
	Snippet      *Snippet  `json:"snippet"`
	Description  string    `json:"description,omitempty"`
	Experience   *NamedRef `json:"experience"`
	Employment   *NamedRef `json:"employment"`
	Employer     *NamedRef `json:"employer,omitempty"`
}

// VacancyPage is one page of the vacancies endpoint.
type VacancyPage struct {
	Items   []RawVacancy `json:"items"`
	Found   int          `json:"found"`
	Pages   int          `json:"pages"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// Employer is an employer profile together with the vacancies fetched for it.
type Employer struct {
	ID           ID           `json:"id"`
	Name         string       `json:"name"`
	AlternateURL string       `json:"alternate_url"`
	Description  string       `json:"description"`
	VacanciesURL string       `json:"vacancies_url"`
	Vacancies    []RawVacancy `json:"vacancies,omitempty"`
}

// RosterEntry names an employer to collect during seeding.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Requirement returns the snippet requirement text, markup included.
func (v RawVacancy) Requirement() string {
	if v.Snippet == nil {
		return ""
	}
	return v.Snippet.Requirement
}

// ExperienceName returns the experience label or "".
func (v RawVacancy) ExperienceName() string {
	if v.Experience == nil {
		return ""
	}
	return v.Experience.Name
}

// EmploymentName returns the employment mode label or "".
func (v RawVacancy) EmploymentName() string {
	if v.Employment == nil {
		return ""
	}
	return v.Employment.Name
}

// SalaryBounds returns the declared bounds and currency.
func (v RawVacancy) SalaryBounds() (from, to *int, currency string) {
	if v.Salary == nil {
		return nil, nil, ""
	}
	return v.Salary.From, v.Salary.To, v.Salary.Currency
}
