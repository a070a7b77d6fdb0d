// Package postgres is the relational vacancy store: employers and their
// vacancies in two linked tables, upsert ingest and the reporting queries.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store owns a connection pool. Every method checks a connection out for the
// single statement it runs, so each write commits on its own.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Open creates and verifies a pgxpool connection pool.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureDatabase connects to the maintenance database and creates name when
// it does not exist yet.
func EnsureDatabase(ctx context.Context, maintenanceDSN, name string) (bool, error) {
	if name == "" {
		return false, errors.New("database name is required")
	}
	conn, err := pgx.Connect(ctx, maintenanceDSN)
	if err != nil {
		return false, fmt.Errorf("connect maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	stmt := fmt.Sprintf("CREATE DATABASE %s WITH ENCODING 'UTF8' TEMPLATE template0", pgx.Identifier{name}.Sanitize())
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return false, fmt.Errorf("create database %s: %w", name, err)
	}
	return true, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		company_id  SERIAL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL UNIQUE,
		url         VARCHAR(500),
		description TEXT,
		hh_id       BIGINT UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS vacancies (
		vacancy_id      SERIAL PRIMARY KEY,
		title           VARCHAR(500) NOT NULL,
		company_id      INTEGER REFERENCES companies(company_id) ON DELETE CASCADE,
		salary_from     INTEGER,
		salary_to       INTEGER,
		salary_avg      INTEGER,
		currency        VARCHAR(10),
		url             VARCHAR(500) UNIQUE,
		description     TEXT,
		experience      VARCHAR(100),
		employment_mode VARCHAR(100),
		created_date    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vacancies_title ON vacancies(title)`,
	`CREATE INDEX IF NOT EXISTS idx_vacancies_salary_avg ON vacancies(salary_avg)`,
	`CREATE INDEX IF NOT EXISTS idx_vacancies_company ON vacancies(company_id)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// TablesExist reports whether the vacancies table is present.
func (s *Store) TablesExist(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'vacancies'
		)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tables: %w", err)
	}
	return exists, nil
}

// CountVacancies returns the number of stored vacancies.
func (s *Store) CountVacancies(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vacancies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vacancies: %w", err)
	}
	return n, nil
}
