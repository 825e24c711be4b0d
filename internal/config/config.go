package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HEIDI"

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSqlite = "sqlite"
)

// ErrNoSink is returned when neither Slack nor Telegram is configured.
var ErrNoSink = errors.New("no notification sink configured: set HEIDI_SLACK_TOKEN or HEIDI_TELEGRAM_TOKEN")

type Config struct {
	Env            string `validate:"required"` // Env is the current environment: local, development, production.
	Catalog        Catalog
	ShopURL        string        `validate:"required,url"`
	FetchInterval  time.Duration `validate:"min=1s"`
	Storage        Storage
	Slack          Slack
	Tg             Telegram
	TrackedFields  models.FieldSet
	MentionChannel bool
	StatusAddress  string `validate:"omitempty,hostname_port"`
}

type Catalog struct {
	URL     string        `validate:"required,url"`
	APIKey  string        // APIKey is sent as a bearer token when set.
	Timeout time.Duration `validate:"min=1s"`
}

type Storage struct {
	Driver       string `validate:"oneof=file sqlite"`
	Path         string `validate:"required_if=Driver file"` // Path is the JSON snapshot file.
	DatabasePath string `validate:"required"`                // DatabasePath is the sqlite database file.
}

type Slack struct {
	Token   string
	Channel string `validate:"required_with=Token"` // Channel is a channel ID or an archives URL.
}

type Telegram struct {
	Token   string        // Token is an unique telegram bot token.
	Timeout time.Duration `validate:"min=1s"` // Timeout is a poller timeout duration.
}

// SlackEnabled reports whether the Slack sink is configured.
func (c *Config) SlackEnabled() bool {
	return c.Slack.Token != ""
}

// TelegramEnabled reports whether the Telegram sink is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Tg.Token != ""
}

// RequireSink returns ErrNoSink when no notification sink is configured.
func (c *Config) RequireSink() error {
	if !c.SlackEnabled() && !c.TelegramEnabled() {
		return ErrNoSink
	}
	return nil
}

// Load reads the configuration from a .env file, an optional config file and
// environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	const opn = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env: %w", opn, err)
	}

	v := viper.New()

	// Automatically binds environment variables to config keys
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// optional args
	v.SetDefault("ENV", "production")
	v.SetDefault("CATALOG_URL", "https://flavortown.hackclub.com")
	v.SetDefault("CATALOG_TIMEOUT", "15s")
	v.SetDefault("FETCH_INTERVAL", "5m")
	v.SetDefault("SHOP_URL", "https://flavortown.hackclub.com/shop")
	v.SetDefault("STORAGE_DRIVER", DriverFile)
	v.SetDefault("STORAGE_PATH", "cache.json")
	v.SetDefault("DATABASE_PATH", "heidi.db")
	v.SetDefault("TELEGRAM_TIMEOUT", "15s")
	v.SetDefault("MENTION_CHANNEL", true)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%s: failed to read config file %s: %w", opn, configFile, err)
		}
	}

	tracked, err := models.ParseFieldSet(splitList(v.GetStringSlice("TRACKED_FIELDS")))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid tracked fields: %w", opn, err)
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Catalog: Catalog{
			URL:     v.GetString("CATALOG_URL"),
			APIKey:  v.GetString("CATALOG_API_KEY"),
			Timeout: v.GetDuration("CATALOG_TIMEOUT"),
		},
		ShopURL:       v.GetString("SHOP_URL"),
		FetchInterval: v.GetDuration("FETCH_INTERVAL"),
		Storage: Storage{
			Driver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Path:         v.GetString("STORAGE_PATH"),
			DatabasePath: v.GetString("DATABASE_PATH"),
		},
		Slack: Slack{
			Token:   v.GetString("SLACK_TOKEN"),
			Channel: v.GetString("SLACK_CHANNEL"),
		},
		Tg: Telegram{
			Token:   v.GetString("TELEGRAM_TOKEN"),
			Timeout: v.GetDuration("TELEGRAM_TIMEOUT"),
		},
		TrackedFields:  tracked,
		MentionChannel: v.GetBool("MENTION_CHANNEL"),
		StatusAddress:  v.GetString("STATUS_ADDRESS"),
	}

	if err = validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid configuration: %w", opn, err)
	}

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(err)
	}
	return cfg
}

// splitList flattens comma-separated items, so both "a,b" and [a, b] are accepted.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
