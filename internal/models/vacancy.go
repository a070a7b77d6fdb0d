package models

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("invalid vacancy")

// ValidationError reports a vacancy field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid vacancy %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var urlSchemes = []string{"http://", "https://"}

// Vacancy is the normalized posting persisted by the stores.
// A nil Salary means the posting did not declare one.
type Vacancy struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Salary      *int   `json:"salary"`
	Description string `json:"description"`
}

// NewVacancy validates the fields and returns the record.
func NewVacancy(title, url string, salary *int, description string) (Vacancy, error) {
	if err := validateTitle(title); err != nil {
		return Vacancy{}, err
	}
	if err := validateURL(url); err != nil {
		return Vacancy{}, err
	}
	if err := validateSalary(salary); err != nil {
		return Vacancy{}, err
	}
	return Vacancy{
		Title:       title,
		URL:         url,
		Salary:      cloneInt(salary),
		Description: description,
	}, nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	return nil
}

func validateURL(url string) error {
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(url, scheme) {
			return nil
		}
	}
	return &ValidationError{Field: "url", Reason: fmt.Sprintf("%q must start with http:// or https://", url)}
}

func validateSalary(salary *int) error {
	if salary != nil && *salary < 0 {
		return &ValidationError{Field: "salary", Reason: "salary cannot be negative"}
	}
	return nil
}

// HasSalary reports whether the vacancy declares a salary.
func (v Vacancy) HasSalary() bool {
	return v.Salary != nil
}

// Equal compares all fields, including the salary value rather than its pointer.
func (v Vacancy) Equal(other Vacancy) bool {
	if v.Title != other.Title || v.URL != other.URL || v.Description != other.Description {
		return false
	}
	if v.Salary == nil || other.Salary == nil {
		return v.Salary == nil && other.Salary == nil
	}
	return *v.Salary == *other.Salary
}

// Less orders by salary; a vacancy without salary is below any vacancy with one.
func (v Vacancy) Less(other Vacancy) bool {
	return CompareSalary(v, other) < 0
}

// CompareSalary returns -1, 0 or +1 following the salary ordering.
func CompareSalary(a, b Vacancy) int {
	switch {
	case a.Salary == nil && b.Salary == nil:
		return 0
	case a.Salary == nil:
		return -1
	case b.Salary == nil:
		return 1
	}
	return cmp.Compare(*a.Salary, *b.Salary)
}

// SortBySalaryDesc ranks vacancies from the highest salary down. Vacancies
// without salary end up last; ties keep their input order.
func SortBySalaryDesc(vacancies []Vacancy) {
	slices.SortStableFunc(vacancies, func(a, b Vacancy) int {
		return CompareSalary(b, a)
	})
}

func (v Vacancy) String() string {
	salary := "not specified"
	if v.Salary != nil {
		salary = fmt.Sprintf("%d", *v.Salary)
	}
	return fmt.Sprintf("%s (salary: %s) %s", v.Title, salary, v.URL)
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
