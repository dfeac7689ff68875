// Package config loads the framework configuration: a YAML file for
// structure, a .env file plus environment variables for secrets and
// per-deployment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/ratelimit"
	"github.com/luguas/priceye/internal/records"
)

// RateBudget configures one provider's call budget.
type RateBudget struct {
	MaxCalls  int `yaml:"max_calls"`
	PeriodSec int `yaml:"period_sec"`
}

// Limiter builds the limiter for this budget.
func (b RateBudget) Limiter() *ratelimit.Limiter {
	return ratelimit.New(b.MaxCalls, time.Duration(b.PeriodSec)*time.Second)
}

// Retry configures the shared backoff policy.
type Retry struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	Multiplier  float64 `yaml:"multiplier"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
}

// Policy converts the section into the executor's policy.
func (r Retry) Policy() collectors.RetryPolicy {
	p := collectors.DefaultRetryPolicy()
	if r.MaxAttempts > 0 {
		p.MaxAttempts = r.MaxAttempts
	}
	if r.BaseDelayMS > 0 {
		p.BaseDelay = time.Duration(r.BaseDelayMS) * time.Millisecond
	}
	if r.Multiplier > 0 {
		p.Multiplier = r.Multiplier
	}
	if r.MaxDelayMS > 0 {
		p.MaxDelay = time.Duration(r.MaxDelayMS) * time.Millisecond
	}
	return p
}

type ScrapeJob struct {
	Token           string     `yaml:"token"`
	BaseURL         string     `yaml:"base_url"`
	PollIntervalSec int        `yaml:"poll_interval_sec"`
	PollTimeoutSec  int        `yaml:"poll_timeout_sec"`
	Budget          RateBudget `yaml:"budget"`
}

type OpenWeather struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type WeatherAPI struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type ExchangeRate struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type Frankfurter struct {
	BaseURL string `yaml:"base_url"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

type Kafka struct {
	Topic   string `yaml:"topic"`
	Group   string `yaml:"group"`
	Workers int    `yaml:"workers"`
	Enabled bool   `yaml:"enabled"`
}

// Config is the full tree.
type Config struct {
	BaseCurrency    string             `yaml:"base_currency"`
	QuoteCurrencies []string           `yaml:"quote_currencies"`
	Locations       []records.Location `yaml:"locations"`
	Schedule        string             `yaml:"schedule"` // cron spec
	SQLitePath      string             `yaml:"sqlite_path"`
	Concurrency     int                `yaml:"concurrency"`

	Retry Retry `yaml:"retry"`

	ScrapeJob    ScrapeJob  `yaml:"scrapejob"`
	OpenWeather  OpenWeather `yaml:"openweather"`
	WeatherAPI   WeatherAPI  `yaml:"weatherapi"`
	Frankfurter  Frankfurter `yaml:"frankfurter"`
	ExchangeRate ExchangeRate `yaml:"exchangerate"`

	WeatherBudget  RateBudget `yaml:"weather_budget"`
	CurrencyBudget RateBudget `yaml:"currency_budget"`

	Redis Redis `yaml:"redis"`
	Kafka Kafka `yaml:"kafka"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		BaseCurrency:    "USD",
		QuoteCurrencies: []string{"EUR", "GBP", "JPY"},
		Schedule:        "0 */6 * * *",
		SQLitePath:      "data/priceye.db",
		Concurrency:     4,
		Retry:           Retry{MaxAttempts: 3, BaseDelayMS: 500, Multiplier: 2, MaxDelayMS: 30000},
		ScrapeJob:       ScrapeJob{Budget: RateBudget{MaxCalls: 10, PeriodSec: 60}},
		WeatherBudget:   RateBudget{MaxCalls: 60, PeriodSec: 60},
		CurrencyBudget:  RateBudget{MaxCalls: 30, PeriodSec: 60},
		Redis:           Redis{TTLHours: 48},
		Kafka:           Kafka{Topic: "priceye.signals", Group: "priceye-persist", Workers: 2},
	}
}

// Load reads YAML config from path (default config.yaml when present), then
// applies .env and environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BASE_CURRENCY"); v != "" {
		cfg.BaseCurrency = v
	}
	if v := os.Getenv("QUOTE_CURRENCIES"); v != "" {
		cfg.QuoteCurrencies = splitCSV(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("COLLECT_SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
	if v, ok := envInt("COLLECT_CONCURRENCY"); ok {
		cfg.Concurrency = v
	}

	if v := os.Getenv("SCRAPEJOB_TOKEN"); v != "" {
		cfg.ScrapeJob.Token = v
	}
	if v := os.Getenv("SCRAPEJOB_BASE_URL"); v != "" {
		cfg.ScrapeJob.BaseURL = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.OpenWeather.APIKey = v
	}
	if v := os.Getenv("WEATHERAPI_API_KEY"); v != "" {
		cfg.WeatherAPI.APIKey = v
	}
	if v := os.Getenv("EXCHANGERATE_API_KEY"); v != "" {
		cfg.ExchangeRate.APIKey = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v, ok := envInt("REDIS_DB"); ok {
		cfg.Redis.DB = v
	}

	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("KAFKA_GROUP"); v != "" {
		cfg.Kafka.Group = v
	}
	if v, ok := envInt("KAFKA_WORKERS"); ok {
		cfg.Kafka.Workers = v
	}
	switch strings.ToLower(os.Getenv("KAFKA_ENABLED")) {
	case "1", "true", "yes", "y":
		cfg.Kafka.Enabled = true
	case "0", "false", "no", "n":
		cfg.Kafka.Enabled = false
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
