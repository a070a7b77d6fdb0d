package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jimezsa/hhcli/internal/models"
)

// UpsertEmployer inserts the employer and returns its key. When a row with the
// same hh id or name already exists nothing is written and inserted is false.
func (s *Store) UpsertEmployer(ctx context.Context, e models.Employer) (key int64, inserted bool, err error) {
	hhID, err := e.ID.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("employer %q: %w", e.Name, err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO companies (name, url, description, hh_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING company_id`,
		e.Name, nullString(e.AlternateURL), e.Description, hhID,
	).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert employer %s: %w", e.ID, err)
	}
	return key, true, nil
}

// EmployerKey finds the stored row for e, matching the hh id first and the
// name second since either can cause an upsert conflict.
func (s *Store) EmployerKey(ctx context.Context, e models.Employer) (key int64, found bool, err error) {
	hhID, err := e.ID.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("employer %q: %w", e.Name, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT company_id FROM companies
		WHERE hh_id = $1 OR name = $2
		ORDER BY (hh_id = $1) DESC NULLS LAST
		LIMIT 1`,
		hhID, e.Name,
	).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup employer %s: %w", e.ID, err)
	}
	return key, true, nil
}

// vacancyRecord holds the column values derived from an API vacancy.
type vacancyRecord struct {
	Title       string
	SalaryFrom  *int
	SalaryTo    *int
	SalaryAvg   *int
	Currency    *string
	URL         string
	Description string
	Experience  *string
	Employment  *string
}

func newVacancyRecord(raw models.RawVacancy) vacancyRecord {
	from, to, currency := raw.SalaryBounds()
	description := models.StripHTML(raw.Description)
	if description == "" {
		description = models.StripHTML(raw.Requirement())
	}
	return vacancyRecord{
		Title:       raw.Name,
		SalaryFrom:  from,
		SalaryTo:    to,
		SalaryAvg:   models.AverageSalary(from, to),
		Currency:    nullString(currency),
		URL:         raw.AlternateURL,
		Description: description,
		Experience:  nullString(raw.ExperienceName()),
		Employment:  nullString(raw.EmploymentName()),
	}
}

// UpsertVacancy inserts the vacancy under employerKey and reports whether a
// new row was written. An existing URL is left untouched.
func (s *Store) UpsertVacancy(ctx context.Context, raw models.RawVacancy, employerKey int64) (bool, error) {
	r := newVacancyRecord(raw)
	if r.Title == "" {
		return false, &models.ValidationError{Field: "title", Reason: "title is required"}
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO vacancies (
			title, company_id, salary_from, salary_to,
			salary_avg, currency, url, description,
			experience, employment_mode
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO NOTHING`,
		r.Title, employerKey, r.SalaryFrom, r.SalaryTo,
		r.SalaryAvg, r.Currency, r.URL, r.Description,
		r.Experience, r.Employment,
	)
	if err != nil {
		return false, fmt.Errorf("insert vacancy %s: %w", r.URL, err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteEmployer removes the employer with the given hh id together with its
// vacancies.
func (s *Store) DeleteEmployer(ctx context.Context, hhID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE hh_id = $1`, hhID)
	if err != nil {
		return false, fmt.Errorf("delete employer %d: %w", hhID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
