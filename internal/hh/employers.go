package hh

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultEmployerPageSize = 100
	defaultEmployerPages    = 5
)

// EmployerOptions tunes roster collection.
type EmployerOptions struct {
	BaseURL       string
	Roster        []models.RosterEntry
	PageSize      int
	MaxPages      int
	PageDelay     time.Duration
	EmployerDelay time.Duration
}

// EmployerClient fetches employer profiles and their salaried vacancies.
// Requests are sequential and paced to stay under the API rate limits.
type EmployerClient struct {
	client        Doer
	baseURL       string
	roster        []models.RosterEntry
	pageSize      int
	maxPages      int
	pageDelay     time.Duration
	employerDelay time.Duration
	logger        zerolog.Logger
}

func NewEmployerClient(client Doer, opts EmployerOptions, logger zerolog.Logger) *EmployerClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultEmployerPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultEmployerPages
	}
	return &EmployerClient{
		client:        client,
		baseURL:       opts.BaseURL,
		roster:        append([]models.RosterEntry(nil), opts.Roster...),
		pageSize:      opts.PageSize,
		maxPages:      opts.MaxPages,
		pageDelay:     opts.PageDelay,
		employerDelay: opts.EmployerDelay,
		logger:        logger,
	}
}

// FetchEmployer returns the employer profile with its description stripped
// of markup. Failures are logged and reported as ok == false.
func (c *EmployerClient) FetchEmployer(ctx context.Context, id string) (models.Employer, bool) {
	var employer models.Employer
	if err := getJSON(ctx, c.client, endpoint(c.baseURL, "/employers/"+url.PathEscape(id), nil), &employer); err != nil {
		c.logger.Error().Err(err).Str("employer_id", id).Msg("fetch employer")
		return models.Employer{}, false
	}
	if employer.ID == "" {
		employer.ID = models.ID(id)
	}
	employer.Description = models.StripHTML(employer.Description)
	return employer, true
}

// FetchEmployerVacancies pages through the employer's salaried vacancies, at
// most maxPages pages. On failure the pages collected so far are returned.
func (c *EmployerClient) FetchEmployerVacancies(ctx context.Context, id string, pageSize int) []models.RawVacancy {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}

	var vacancies []models.RawVacancy
	for page := 0; page < c.maxPages; page++ {
		values := url.Values{}
		values.Set("employer_id", id)
		values.Set("per_page", strconv.Itoa(pageSize))
		values.Set("page", strconv.Itoa(page))
		values.Set("only_with_salary", "true")

		var result models.VacancyPage
		if err := getJSON(ctx, c.client, endpoint(c.baseURL, "/vacancies", values), &result); err != nil {
			c.logger.Error().Err(err).Str("employer_id", id).Int("page", page).Msg("fetch employer vacancies")
			break
		}
		vacancies = append(vacancies, result.Items...)

		if page >= result.Pages-1 || page == c.maxPages-1 {
			break
		}
		if err := pause(ctx, c.pageDelay); err != nil {
			break
		}
	}
	return vacancies
}

// FetchAll walks the roster in order and keeps the employers that have at
// least minVacancies vacancies. An employer that cannot be fetched is skipped.
func (c *EmployerClient) FetchAll(ctx context.Context, minVacancies int) []models.Employer {
	employers := make([]models.Employer, 0, len(c.roster))
	for i, entry := range c.roster {
		if i > 0 {
			if err := pause(ctx, c.employerDelay); err != nil {
				c.logger.Warn().Err(err).Msg("employer collection interrupted")
				break
			}
		}

		log := c.logger.With().Str("employer_id", entry.ID).Str("employer", entry.Name).Logger()
		employer, ok := c.FetchEmployer(ctx, entry.ID)
		if !ok {
			log.Warn().Msg("employer skipped")
			continue
		}
		employer.Vacancies = c.FetchEmployerVacancies(ctx, entry.ID, c.pageSize)
		log.Info().Int("vacancies", len(employer.Vacancies)).Msg("employer fetched")

		if len(employer.Vacancies) < minVacancies {
			log.Debug().Int("min_vacancies", minVacancies).Msg("employer below vacancy threshold")
			continue
		}
		employers = append(employers, employer)
	}
	return employers
}

