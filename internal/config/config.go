package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/hhcli/internal/models"
	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "hhcli"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	EnvFileName     = ".env"
)

// Config holds every runtime setting. It is loaded once at startup.
type Config struct {
	APIURL          string               `json:"api_url"`
	UserAgent       string               `json:"user_agent"`
	TimeoutSeconds  int                  `json:"timeout_seconds"`
	PerPage         int                  `json:"per_page"`
	MaxPages        int                  `json:"max_pages"`
	TestMode        bool                 `json:"test_mode,omitempty"`
	DataFile        string               `json:"data_file"`
	Database        Database             `json:"database,omitzero"`
	Employers       []models.RosterEntry `json:"employers"`
	MinVacancies    int                  `json:"min_vacancies"`
	EmployerPages   int                  `json:"employer_pages"`
	PageDelayMS     int                  `json:"page_delay_ms"`
	EmployerDelayMS int                  `json:"employer_delay_ms"`
}

// Database holds PostgreSQL connection parameters.
type Database struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     string `json:"port"`
}

// DefaultEmployers is the roster collected by `db seed`.
func DefaultEmployers() []models.RosterEntry {
	return []models.RosterEntry{
		{ID: "1740", Name: "Яндекс"},
		{ID: "1122462", Name: "Сбер"},
		{ID: "15478", Name: "VK"},
		{ID: "2180", Name: "Ozon"},
		{ID: "2748", Name: "Ростелеком"},
		{ID: "3529", Name: "Тинькофф"},
		{ID: "4181", Name: "Билайн"},
		{ID: "907345", Name: "Альфа-Банк"},
		{ID: "4934", Name: "МТС"},
		{ID: "1057", Name: "Kaspersky"},
		{ID: "1373", Name: "Лаборатория Касперского"},
		{ID: "87021", Name: "Wildberries"},
		{ID: "157944", Name: "2GIS"},
		{ID: "6093775", Name: "Yandex Praktikum"},
		{ID: "2324020", Name: "Skyeng"},
	}
}

// DefaultConfig returns the built-in settings with environment overrides applied.
func DefaultConfig() Config {
	cfg := baseConfig()
	applyEnv(&cfg)
	return cfg
}

func baseConfig() Config {
	return Config{
		APIURL:         "https://api.hh.ru",
		UserAgent:      "hhcli/1.0 (hhcli@users.noreply.github.com)",
		TimeoutSeconds: 30,
		PerPage:        100,
		MaxPages:       20,
		DataFile:       filepath.Join("data", "vacancies.json"),
		Database: Database{
			Name:     "hh_vacancies",
			User:     "postgres",
			Password: "password",
			Host:     "localhost",
			Port:     "5432",
		},
		Employers:       DefaultEmployers(),
		MinVacancies:    3,
		EmployerPages:   5,
		PageDelayMS:     100,
		EmployerDelayMS: 500,
	}
}

// applyEnv lets environment variables win over both defaults and the file.
func applyEnv(cfg *Config) {
	cfg.APIURL = envString("HHCLI_API_URL", cfg.APIURL)
	cfg.UserAgent = envString("HHCLI_USER_AGENT", cfg.UserAgent)
	cfg.TimeoutSeconds = envInt("HHCLI_TIMEOUT", cfg.TimeoutSeconds)
	cfg.DataFile = envString("HHCLI_DATA_FILE", cfg.DataFile)
	cfg.Database.Name = envString("DB_NAME", cfg.Database.Name)
	cfg.Database.User = envString("DB_USER", cfg.Database.User)
	cfg.Database.Password = envString("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Host = envString("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envString("DB_PORT", cfg.Database.Port)
	if strings.TrimSpace(os.Getenv("TEST_ENV")) != "" {
		cfg.TestMode = true
	}
}

// template is what `config init` writes. Connection parameters and test mode
// stay in the environment.
func template() Config {
	cfg := baseConfig()
	cfg.Database = Database{}
	cfg.TestMode = false
	return cfg
}

// SearchPageLimit is the page ceiling for keyword searches.
func (c Config) SearchPageLimit() int {
	if c.TestMode {
		return 1
	}
	if c.MaxPages <= 0 {
		return 20
	}
	return c.MaxPages
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

func (c Config) EmployerDelay() time.Duration {
	return time.Duration(c.EmployerDelayMS) * time.Millisecond
}

// DSN returns the connection URL for the configured database.
func (d Database) DSN() string {
	return d.dsnFor(d.Name)
}

// MaintenanceDSN points at the "postgres" database, used to create Name.
func (d Database) MaintenanceDSN() string {
	return d.dsnFor("postgres")
}

func (d Database) dsnFor(name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + name,
		RawQuery: "client_encoding=UTF8",
	}
	return u.String()
}

// LoadEnvFile imports KEY=VALUE pairs from .env without overriding variables
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = EnvFileName
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile overlays the json5 file at path on top of the built-in defaults,
// then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := baseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if len(cfg.Employers) == 0 {
		cfg.Employers = DefaultEmployers()
	}
	applyEnv(&cfg)

	return cfg, nil
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, template()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// LoadProxies resolves proxy URLs from the flag, HHCLI_PROXIES, then proxies.txt.
func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("HHCLI_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}
	return readProxiesFile(path)
}

func readProxiesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
