package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// AverageSalary applies the salary rule: the truncated mean when both bounds
// are present, else whichever bound is present, else nil.
func AverageSalary(from, to *int) *int {
	switch {
	case from != nil && to != nil:
		avg := (*from + *to) / 2
		return &avg
	case from != nil:
		return cloneInt(from)
	case to != nil:
		return cloneInt(to)
	default:
		return nil
	}
}

// ParseSalary converts a decoded JSON value into a salary. nil stays nil;
// numbers are truncated to whole units; anything else is a validation error.
func ParseSalary(value any) (*int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return &v, validateSalary(&v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Field: "salary", Reason: "salary must be a number"}
		}
		n := int(v)
		return &n, validateSalary(&n)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, &ValidationError{Field: "salary", Reason: fmt.Sprintf("salary must be a number, got %q", v.String())}
		}
		return ParseSalary(f)
	default:
		return nil, &ValidationError{Field: "salary", Reason: fmt.Sprintf("salary must be a number, got %T", value)}
	}
}

// SalaryRange bounds a salary criterion; both ends are inclusive.
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r SalaryRange) contains(salary int) bool {
	return r.Min <= salary && salary <= r.Max
}

// Criteria filters stored vacancies. A zero Description and a nil Salary
// disable their dimension.
type Criteria struct {
	Description string       `json:"description,omitempty"`
	Salary      *SalaryRange `json:"salary,omitempty"`
}

// Tokens returns the lower-cased description words that must all match.
func (c Criteria) Tokens() []string {
	return strings.Fields(strings.ToLower(c.Description))
}

// Match reports whether v satisfies every active criterion.
func (c Criteria) Match(v Vacancy) bool {
	if tokens := c.Tokens(); len(tokens) > 0 {
		description := strings.ToLower(v.Description)
		for _, token := range tokens {
			if !strings.Contains(description, token) {
				return false
			}
		}
	}
	if c.Salary != nil {
		if v.Salary == nil || !c.Salary.contains(*v.Salary) {
			return false
		}
	}
	return true
}
