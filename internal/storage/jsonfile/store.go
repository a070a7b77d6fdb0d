// Package jsonfile stores vacancies in a single indented JSON array on disk.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/jimezsa/hhcli/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultPath is used when no data file is configured.
const DefaultPath = "data/vacancies.json"

// Store is a file-backed storage.Store. The document is read on every call
// and rewritten whole on change; there is no cross-process locking.
type Store struct {
	path   string
	logger zerolog.Logger
}

var _ storage.Store = (*Store)(nil)

func New(path string, logger zerolog.Logger) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &Store{path: path, logger: logger}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

type entry struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Salary      any    `json:"salary"`
	Description string `json:"description"`
}

// Add appends v unless its URL is already present.
func (s *Store) Add(ctx context.Context, v models.Vacancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := s.read()
	for _, raw := range entries {
		if entryURL(raw) == v.URL {
			s.logger.Debug().Str("url", v.URL).Msg("vacancy already stored")
			return nil
		}
	}

	data, err := encodeEntry(v)
	if err != nil {
		return fmt.Errorf("encode vacancy: %w", err)
	}
	return s.write(append(entries, data))
}

// encodeEntry marshals v leaving &, < and > readable in URLs and text.
func encodeEntry(v models.Vacancy) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Query returns the decodable entries matching criteria in file order.
func (s *Store) Query(ctx context.Context, criteria models.Criteria) ([]models.Vacancy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vacancies := make([]models.Vacancy, 0)
	for i, raw := range s.read() {
		v, err := decodeEntry(raw)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", i).Str("path", s.path).Msg("skipping malformed vacancy")
			continue
		}
		if criteria.Match(v) {
			vacancies = append(vacancies, v)
		}
	}
	return vacancies, nil
}

// Remove rewrites the document without the entries sharing v's URL.
func (s *Store) Remove(ctx context.Context, v models.Vacancy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := s.read()
	kept := make([]json.RawMessage, 0, len(entries))
	for _, raw := range entries {
		if entryURL(raw) == v.URL {
			continue
		}
		kept = append(kept, raw)
	}
	return s.write(kept)
}

// read loads the raw array. Missing, empty or corrupt documents read as an
// empty collection.
func (s *Store) read() []json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("read vacancies file")
		}
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("vacancies file is corrupt, treating as empty")
		return nil
	}
	return entries
}

func (s *Store) write(entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode vacancies: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func entryURL(raw json.RawMessage) string {
	var e struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return ""
	}
	return e.URL
}

func decodeEntry(raw json.RawMessage) (models.Vacancy, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var e entry
	if err := dec.Decode(&e); err != nil {
		return models.Vacancy{}, err
	}
	salary, err := models.ParseSalary(e.Salary)
	if err != nil {
		return models.Vacancy{}, err
	}
	return models.NewVacancy(e.Title, e.URL, salary, e.Description)
}
