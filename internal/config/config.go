package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Store struct {
		Path      string `yaml:"path"`
		Timezone  string `yaml:"timezone"`
		Precision int32  `yaml:"precision"`
	} `yaml:"store"`
	DataSource struct {
		Kind   string `yaml:"kind"` // "blockworks" or "quote"
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
		Symbol string `yaml:"symbol"`
	} `yaml:"data_source"`
	Schedule struct {
		PollCron string `yaml:"poll_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`

	location *time.Location
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REPORT_TZ"); v != "" {
		cfg.Store.Timezone = v
	}
	if v := os.Getenv("REPORT_PRECISION"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Store.Precision = int32(p)
		}
	}
	if v := os.Getenv("PRICE_SOURCE_URL"); v != "" {
		cfg.DataSource.URL = v
	}
	if v := os.Getenv("PRICE_SOURCE_KIND"); v != "" {
		cfg.DataSource.Kind = v
	}
	if v := os.Getenv("PRICE_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("POLL_CRON"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/prices.csv"
	}
	if cfg.Store.Timezone == "" {
		cfg.Store.Timezone = "UTC"
	}
	if cfg.Store.Precision == 0 {
		cfg.Store.Precision = 2
	}
	if cfg.DataSource.Kind == "" {
		cfg.DataSource.Kind = "blockworks"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "sol"
	}
	if cfg.Schedule.PollCron == "" {
		cfg.Schedule.PollCron = "0 */5 * * * *"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8050"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks field values and resolves the reference timezone.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Store.Timezone)
	if err != nil {
		return fmt.Errorf("store.timezone: %w", err)
	}
	c.location = loc

	if c.Store.Precision < 0 || c.Store.Precision > 8 {
		return fmt.Errorf("store.precision must be between 0 and 8")
	}
	switch c.DataSource.Kind {
	case "blockworks":
	case "quote":
		if c.DataSource.URL == "" {
			return fmt.Errorf("data_source.url is required for kind %q", c.DataSource.Kind)
		}
	default:
		return fmt.Errorf("data_source.kind %q is not supported", c.DataSource.Kind)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.PollCron); err != nil {
		return fmt.Errorf("schedule.poll_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Location returns the reference timezone used for day boundaries.
// Validate must have been called.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// TelegramEnabled reports whether report delivery via Telegram is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
