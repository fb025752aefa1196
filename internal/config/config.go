// Package config loads the bot binary's settings from the environment,
// with optional .env file support.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	Bot      BotConfig
	Payments PaymentsConfig
	Store    StoreConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// BotConfig governs the Telegram transport.
type BotConfig struct {
	Token         string
	AdminIDs      []int64
	Workers       int
	PollTimeout   int // seconds, long polling
	HandleTimeout time.Duration
	Debug         bool
}

// PaymentsConfig describes the invoice provider.
type PaymentsConfig struct {
	ProviderToken string
	Currency      string
	// TestPurchases enables the free "test purchase" button.
	TestPurchases bool
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string // memory|sqlite|postgres|mongo
	DSN    string
	Seed   bool
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables it.
	Addr string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultWorkers       = 8
	defaultPollTimeout   = 60
	defaultHandleTimeout = 15 * time.Second
	defaultCurrency      = "RUB"
	defaultDriver        = "sqlite"
	defaultDSN           = "football_bot.db"
	defaultLoggingLevel  = "info"
	defaultLoggingFormat = "text"
)

// Load reads an optional .env file and then the environment, applying
// defaults. Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := Config{
		Bot: BotConfig{
			Token:       os.Getenv("BOT_TOKEN"),
			Workers:     parseIntWithDefault("WORKERS", defaultWorkers),
			PollTimeout: parseIntWithDefault("POLL_TIMEOUT", defaultPollTimeout),
			Debug:       parseBoolWithDefault("BOT_DEBUG", false),
		},
		Payments: PaymentsConfig{
			ProviderToken: os.Getenv("PAYMENT_PROVIDER_TOKEN"),
			Currency:      strings.ToUpper(valueOrDefault("PAYMENT_CURRENCY", defaultCurrency)),
			TestPurchases: parseBoolWithDefault("TEST_PURCHASES", false),
		},
		Store: StoreConfig{
			Driver: valueOrDefault("DB_DRIVER", defaultDriver),
			DSN:    valueOrDefault("DB_DSN", defaultDSN),
			Seed:   parseBoolWithDefault("SEED_CATALOG", true),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Metrics: MetricsConfig{
			Addr: os.Getenv("METRICS_ADDR"),
		},
	}

	if cfg.Bot.Token == "" {
		return Config{}, errors.New("config: BOT_TOKEN is required")
	}

	admins, err := parseIDList(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid ADMIN_IDS: %w", err)
	}
	cfg.Bot.AdminIDs = admins

	cfg.Bot.HandleTimeout = defaultHandleTimeout
	if v := os.Getenv("HANDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid HANDLE_TIMEOUT: %w", err)
		}
		cfg.Bot.HandleTimeout = d
	}

	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = defaultWorkers
	}

	return cfg, nil
}

// IsAdmin reports whether userID is listed in ADMIN_IDS.
func (c BotConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

// parseIDList parses a comma separated list of numeric ids.
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		ids = append(ids, v)
	}
	return ids, nil
}
