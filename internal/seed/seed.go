// Package seed fills the relational store with the roster employers and
// their salaried vacancies.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/rs/zerolog"
)

// ErrNoEmployers is returned when the roster produced no usable employer.
var ErrNoEmployers = errors.New("seed: no employer data fetched")

// DefaultMinVacancies is the vacancy threshold below which an employer is
// left out.
const DefaultMinVacancies = 3

// Source collects roster employers with their vacancies.
type Source interface {
	FetchAll(ctx context.Context, minVacancies int) []models.Employer
}

// Sink is the write side of the relational store.
type Sink interface {
	UpsertEmployer(ctx context.Context, e models.Employer) (key int64, inserted bool, err error)
	UpsertVacancy(ctx context.Context, raw models.RawVacancy, employerKey int64) (bool, error)
	EmployerKey(ctx context.Context, e models.Employer) (key int64, found bool, err error)
}

// EmployerResult reports what one employer contributed.
type EmployerResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Existed  bool   `json:"existed"`
	Error    string `json:"error,omitempty"`
}

// Result summarizes a seeding pass.
type Result struct {
	Employers []EmployerResult `json:"employers"`
	Vacancies int              `json:"vacancies"`
}

type Seeder struct {
	source Source
	sink   Sink
	logger zerolog.Logger
}

func New(source Source, sink Sink, logger zerolog.Logger) *Seeder {
	return &Seeder{source: source, sink: sink, logger: logger}
}

// Run fetches the roster and upserts every employer and its vacancies.
// Vacancies of employers stored by an earlier pass are attached to the
// existing row, so repeated passes top up new postings. A failing employer is
// recorded and the pass continues; earlier writes stay committed.
func (s *Seeder) Run(ctx context.Context, minVacancies int) (Result, error) {
	if minVacancies <= 0 {
		minVacancies = DefaultMinVacancies
	}

	employers := s.source.FetchAll(ctx, minVacancies)
	if len(employers) == 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, ErrNoEmployers
	}
	s.logger.Info().Int("employers", len(employers)).Msg("employer data fetched")

	result := Result{Employers: make([]EmployerResult, 0, len(employers))}
	for _, employer := range employers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		er := s.seedEmployer(ctx, employer)
		result.Vacancies += er.Inserted
		result.Employers = append(result.Employers, er)
	}
	return result, nil
}

func (s *Seeder) seedEmployer(ctx context.Context, employer models.Employer) EmployerResult {
	er := EmployerResult{ID: string(employer.ID), Name: employer.Name, Fetched: len(employer.Vacancies)}
	log := s.logger.With().Str("employer_id", er.ID).Str("employer", er.Name).Logger()

	key, inserted, err := s.sink.UpsertEmployer(ctx, employer)
	if err != nil {
		log.Error().Err(err).Msg("employer not stored")
		er.Error = err.Error()
		return er
	}
	if !inserted {
		er.Existed = true
		var found bool
		key, found, err = s.sink.EmployerKey(ctx, employer)
		if err != nil {
			log.Error().Err(err).Msg("stored employer lookup failed")
			er.Error = err.Error()
			return er
		}
		if !found {
			log.Warn().Msg("employer conflicts with a row that cannot be matched")
			er.Error = "stored employer not found"
			return er
		}
		log.Debug().Int64("key", key).Msg("employer already stored")
	}

	var errs []error
	for _, raw := range employer.Vacancies {
		ok, err := s.sink.UpsertVacancy(ctx, raw, key)
		if err != nil {
			log.Warn().Err(err).Str("url", raw.AlternateURL).Msg("vacancy not stored")
			errs = append(errs, err)
			continue
		}
		if ok {
			er.Inserted++
		}
	}
	if len(errs) > 0 {
		er.Error = fmt.Sprintf("%d vacancies failed: %v", len(errs), errors.Join(errs...))
	}
	log.Info().Int("inserted", er.Inserted).Msg("employer stored")
	return er
}
