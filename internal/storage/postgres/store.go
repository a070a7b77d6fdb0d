package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Add stores a normalized vacancy without an employer. An existing URL is
// left untouched.
func (s *Store) Add(ctx context.Context, v models.Vacancy) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vacancies (title, salary_avg, url, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO NOTHING`,
		v.Title, v.Salary, v.URL, v.Description,
	)
	if err != nil {
		return fmt.Errorf("add vacancy %s: %w", v.URL, err)
	}
	return nil
}

// Query returns the stored vacancies matching criteria in insertion order.
// Rows that do not form a valid vacancy are logged and skipped.
func (s *Store) Query(ctx context.Context, criteria models.Criteria) ([]models.Vacancy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT title, COALESCE(url, ''), salary_avg, COALESCE(description, '')
		FROM vacancies
		ORDER BY vacancy_id`)
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}

	vacancies := make([]models.Vacancy, 0)
	var (
		title, url, description string
		salary                  *int
	)
	_, err = pgx.ForEachRow(rows, []any{&title, &url, &salary, &description}, func() error {
		v, err := models.NewVacancy(title, url, salary, description)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", url).Msg("skipping malformed vacancy row")
			return nil
		}
		if criteria.Match(v) {
			vacancies = append(vacancies, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}
	return vacancies, nil
}

// Remove deletes the vacancy with v's URL.
func (s *Store) Remove(ctx context.Context, v models.Vacancy) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM vacancies WHERE url = $1`, v.URL); err != nil {
		return fmt.Errorf("remove vacancy %s: %w", v.URL, err)
	}
	return nil
}
