package hh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/hhcli/internal/models"
	"github.com/rs/zerolog"
)

// ErrConnection is returned when the API cannot be reached before a search.
var ErrConnection = errors.New("hh: cannot connect to the vacancies API")

const (
	defaultPerPage  = 100
	defaultMaxPages = 20
)

// SearchOptions tunes keyword pagination.
type SearchOptions struct {
	BaseURL  string
	PerPage  int
	MaxPages int
}

// SearchClient retrieves vacancies for a free-text keyword.
type SearchClient struct {
	client   Doer
	baseURL  string
	perPage  int
	maxPages int
	logger   zerolog.Logger
}

func NewSearchClient(client Doer, opts SearchOptions, logger zerolog.Logger) *SearchClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	return &SearchClient{
		client:   client,
		baseURL:  opts.BaseURL,
		perPage:  opts.PerPage,
		maxPages: opts.MaxPages,
		logger:   logger,
	}
}

// Connect probes the vacancies endpoint and reports whether it answered 200.
func (c *SearchClient) Connect(ctx context.Context) bool {
	status, err := Probe(ctx, c.client, c.baseURL)
	if err != nil {
		c.logger.Debug().Err(err).Msg("vacancies probe failed")
		return false
	}
	if status != fhttp.StatusOK {
		c.logger.Debug().Int("status", status).Msg("vacancies probe rejected")
		return false
	}
	return true
}

// FetchByKeyword collects the items of successive result pages until the
// reported page count or the page ceiling is reached. A failing page ends the
// walk and the pages gathered so far are returned.
func (c *SearchClient) FetchByKeyword(ctx context.Context, keyword string) ([]models.RawVacancy, error) {
	if !c.Connect(ctx) {
		return nil, ErrConnection
	}

	vacancies := make([]models.RawVacancy, 0)
	for page := 0; page < c.maxPages; page++ {
		var result models.VacancyPage
		if err := getJSON(ctx, c.client, c.pageURL(keyword, page), &result); err != nil {
			c.logger.Warn().Err(err).Int("page", page).Str("keyword", keyword).Msg("stopping search pagination")
			break
		}
		vacancies = append(vacancies, result.Items...)

		if result.Pages <= page+1 {
			break
		}
	}

	c.logger.Debug().Str("keyword", keyword).Int("items", len(vacancies)).Msg("search finished")
	return vacancies, nil
}

func (c *SearchClient) pageURL(keyword string, page int) string {
	values := url.Values{}
	values.Set("text", keyword)
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(c.perPage))
	return endpoint(c.baseURL, "/vacancies", values)
}

// Search fetches and normalizes vacancies in one step. Items failing
// validation are reported through the joined error next to the valid ones.
func (c *SearchClient) Search(ctx context.Context, keyword string) ([]models.Vacancy, error) {
	raws, err := c.FetchByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	return models.FromRawList(raws)
}
