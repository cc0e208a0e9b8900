package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

type CoinGecko struct {
	BaseURL    string        `yaml:"base_url"`
	VsCurrency string        `yaml:"vs_currency"`
	Order      string        `yaml:"order"`
	PerPage    int           `yaml:"per_page"`
	Page       int           `yaml:"page"`
	Sparkline  bool          `yaml:"sparkline"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // rotated JSON log, empty disables
}

type Config struct {
	CoinGecko  CoinGecko     `yaml:"coingecko"`
	ReportPath string        `yaml:"report_path"`
	Interval   time.Duration `yaml:"interval"`
	Schedule   string        `yaml:"schedule"` // cron expression, overrides Interval when set

	// Optional surfaces
	DatabaseURL string `yaml:"database_url"`
	HTTPAddr    string `yaml:"http_addr"`

	Log Log `yaml:"log"`
}

func Default() *Config {
	return &Config{
		CoinGecko: CoinGecko{
			BaseURL:    "https://api.coingecko.com/api/v3",
			VsCurrency: "usd",
			Order:      "market_cap_desc",
			PerPage:    50,
			Page:       1,
			Sparkline:  false,
			Timeout:    30 * time.Second,
		},
		ReportPath: "crypto_data.xlsx",
		Interval:   5 * time.Minute,
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (a missing file is ignored), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.CoinGecko.BaseURL = getEnv("COINGECKO_API_URL", c.CoinGecko.BaseURL)
	c.CoinGecko.VsCurrency = getEnv("VS_CURRENCY", c.CoinGecko.VsCurrency)
	c.CoinGecko.Order = getEnv("MARKET_ORDER", c.CoinGecko.Order)
	c.ReportPath = getEnv("REPORT_PATH", c.ReportPath)
	c.Schedule = getEnv("POLL_SCHEDULE", c.Schedule)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	var err error
	if c.CoinGecko.PerPage, err = getEnvInt("PER_PAGE", c.CoinGecko.PerPage); err != nil {
		return err
	}
	if c.CoinGecko.Page, err = getEnvInt("PAGE", c.CoinGecko.Page); err != nil {
		return err
	}
	if c.CoinGecko.Timeout, err = getEnvDuration("REQUEST_TIMEOUT", c.CoinGecko.Timeout); err != nil {
		return err
	}
	if c.Interval, err = getEnvDuration("POLL_INTERVAL", c.Interval); err != nil {
		return err
	}
	if v := os.Getenv("SPARKLINE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: SPARKLINE=%q: %v", ErrInvalid, v, err)
		}
		c.CoinGecko.Sparkline = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.CoinGecko.BaseURL) == "":
		return fmt.Errorf("%w: coingecko base_url is empty", ErrInvalid)
	case c.CoinGecko.PerPage <= 0:
		return fmt.Errorf("%w: per_page must be positive, got %d", ErrInvalid, c.CoinGecko.PerPage)
	case c.CoinGecko.Page <= 0:
		return fmt.Errorf("%w: page must be positive, got %d", ErrInvalid, c.CoinGecko.Page)
	case c.CoinGecko.Timeout <= 0:
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalid)
	case strings.TrimSpace(c.ReportPath) == "":
		return fmt.Errorf("%w: report_path is empty", ErrInvalid)
	case c.Schedule == "" && c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalid, c.Interval)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("%w: schedule %q: %v", ErrInvalid, c.Schedule, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, value, err)
	}
	return d, nil
}
