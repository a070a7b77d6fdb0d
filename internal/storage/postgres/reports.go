package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// EmployerVacancyCount is one row of the per-employer vacancy report.
type EmployerVacancyCount struct {
	Employer string `json:"employer"`
	Count    int    `json:"count"`
}

// VacancyRow is a reported vacancy joined with its employer name. Employer is
// empty for vacancies stored without one.
type VacancyRow struct {
	Employer string `json:"employer"`
	Title    string `json:"title"`
	Salary   *int   `json:"salary"`
	Currency string `json:"currency"`
	URL      string `json:"url"`
}

// Report queries log failures and return an empty result.

// ListEmployerVacancyCounts returns every employer with its vacancy count,
// largest first. Employers without vacancies are included with 0.
func (s *Store) ListEmployerVacancyCounts(ctx context.Context) []EmployerVacancyCount {
	rows, err := s.pool.Query(ctx, `
		SELECT c.name, COUNT(v.vacancy_id) AS vacancy_count
		FROM companies c
		LEFT JOIN vacancies v ON c.company_id = v.company_id
		GROUP BY c.company_id, c.name
		ORDER BY vacancy_count DESC, c.name`)
	if err != nil {
		s.logger.Error().Err(err).Msg("employer vacancy counts")
		return []EmployerVacancyCount{}
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EmployerVacancyCount, error) {
		var c EmployerVacancyCount
		err := row.Scan(&c.Employer, &c.Count)
		return c, err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("employer vacancy counts")
		return []EmployerVacancyCount{}
	}
	return counts
}

// ListAllVacancies returns every vacancy ordered by effective salary: the
// average, else either bound, else 0.
func (s *Store) ListAllVacancies(ctx context.Context) []VacancyRow {
	return s.queryVacancyRows(ctx, "all vacancies", `
		SELECT COALESCE(c.name, ''), v.title,
		       COALESCE(v.salary_avg, v.salary_from, v.salary_to, 0) AS salary,
		       COALESCE(v.currency, ''), COALESCE(v.url, '')
		FROM vacancies v
		LEFT JOIN companies c ON v.company_id = c.company_id
		ORDER BY salary DESC, v.vacancy_id`)
}

// AverageSalary returns the mean of the positive salary averages rounded to
// two decimals, or 0 when there are none.
func (s *Store) AverageSalary(ctx context.Context) float64 {
	var avg float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(ROUND(AVG(salary_avg)::numeric, 2), 0)::float8
		FROM vacancies
		WHERE salary_avg IS NOT NULL AND salary_avg > 0`).Scan(&avg)
	if err != nil {
		s.logger.Error().Err(err).Msg("average salary")
		return 0
	}
	return avg
}

// ListAboveAverageSalary returns the vacancies whose average salary is
// strictly greater than the current AverageSalary, highest first. The average
// is recomputed on every call.
func (s *Store) ListAboveAverageSalary(ctx context.Context) []VacancyRow {
	avg := s.AverageSalary(ctx)
	return s.queryVacancyRows(ctx, "above average salary", `
		SELECT COALESCE(c.name, ''), v.title, v.salary_avg,
		       COALESCE(v.currency, ''), COALESCE(v.url, '')
		FROM vacancies v
		LEFT JOIN companies c ON v.company_id = c.company_id
		WHERE v.salary_avg > $1::float8
		ORDER BY v.salary_avg DESC, v.vacancy_id`, avg)
}

// SearchByTitleKeyword returns the vacancies whose title contains keyword,
// ignoring case, highest salary first with unknown salaries last.
func (s *Store) SearchByTitleKeyword(ctx context.Context, keyword string) []VacancyRow {
	return s.queryVacancyRows(ctx, "title keyword search", `
		SELECT COALESCE(c.name, ''), v.title, v.salary_avg,
		       COALESCE(v.currency, ''), COALESCE(v.url, '')
		FROM vacancies v
		LEFT JOIN companies c ON v.company_id = c.company_id
		WHERE strpos(lower(v.title), lower($1)) > 0
		ORDER BY v.salary_avg DESC NULLS LAST, v.vacancy_id`, keyword)
}

func (s *Store) queryVacancyRows(ctx context.Context, report, sql string, args ...any) []VacancyRow {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Error().Err(err).Str("report", report).Msg("report query failed")
		return []VacancyRow{}
	}
	result, err := pgx.CollectRows(rows, scanVacancyRow)
	if err != nil {
		s.logger.Error().Err(err).Str("report", report).Msg("report query failed")
		return []VacancyRow{}
	}
	return result
}

func scanVacancyRow(row pgx.CollectableRow) (VacancyRow, error) {
	var r VacancyRow
	err := row.Scan(&r.Employer, &r.Title, &r.Salary, &r.Currency, &r.URL)
	return r, err
}
