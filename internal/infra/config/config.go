package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/circulabot/internal/domain/circulation"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Vehicle VehicleConfig `yaml:"vehicle"`
	Came    CameConfig    `yaml:"came"`
	Notify  NotifyConfig  `yaml:"notify"`
	History HistoryConfig `yaml:"history"`
	Cache   CacheConfig   `yaml:"cache"`
	Archive ArchiveConfig `yaml:"archive"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// VehicleConfig describes the vehicle checks default to.
type VehicleConfig struct {
	LastDigit int    `yaml:"lastDigit"`
	Sticker   string `yaml:"sticker"`
}

// CameConfig controls the contingency portal probe.
type CameConfig struct {
	URLs     []string      `yaml:"urls"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTtl"`
}

// NotifyConfig selects and configures delivery channels.
type NotifyConfig struct {
	OnlyWhenRestricted bool           `yaml:"onlyWhenRestricted"`
	Telegram           TelegramConfig `yaml:"telegram"`
	Twilio             TwilioConfig   `yaml:"twilio"`
}

// TelegramConfig holds Bot API credentials.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// TwilioConfig holds WhatsApp sender credentials.
type TwilioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"accountSid"`
	AuthToken  string `yaml:"authToken"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
}

// HistoryConfig contains check-history persistence settings.
type HistoryConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig contains connection information for the report cache.
type CacheConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig points at a Valkey-compatible server.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ArchiveConfig configures the evidence snapshot bucket.
type ArchiveConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible storage credentials.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("VEHICLE_LAST_DIGIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Vehicle.LastDigit = parsed
		}
	}
	if v := os.Getenv("VEHICLE_STICKER"); v != "" {
		cfg.Vehicle.Sticker = v
	}
	if v := os.Getenv("CAME_URLS"); v != "" {
		cfg.Came.URLs = splitAndTrim(v)
	}
	if v := os.Getenv("CAME_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Came.Timeout = parsed
		}
	}
	if v := os.Getenv("CAME_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Came.CacheTTL = parsed
		}
	}
	if v := os.Getenv("NOTIFY_ONLY_WHEN_RESTRICTED"); v != "" {
		cfg.Notify.OnlyWhenRestricted = isTruthy(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.Enabled = true
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.Telegram.ChatID = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Notify.Twilio.Enabled = true
		cfg.Notify.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Notify.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_FROM"); v != "" {
		cfg.Notify.Twilio.From = v
	}
	if v := os.Getenv("TWILIO_TO"); v != "" {
		cfg.Notify.Twilio.To = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_VALKEY_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("ARCHIVE_S3_ENABLED"); v != "" {
		cfg.Archive.S3.Enabled = isTruthy(v)
	}
	if v := os.Getenv("ARCHIVE_S3_ENDPOINT"); v != "" {
		cfg.Archive.S3.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_S3_ACCESS_KEY"); v != "" {
		cfg.Archive.S3.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_S3_SECRET_KEY"); v != "" {
		cfg.Archive.S3.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.S3.Region = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Vehicle: VehicleConfig{
			LastDigit: 0,
			Sticker:   string(circulation.StickerTwo),
		},
		Came: CameConfig{
			Timeout:  15 * time.Second,
			CacheTTL: 30 * time.Minute,
		},
		Notify: NotifyConfig{
			OnlyWhenRestricted: true,
		},
		History: HistoryConfig{
			Postgres: PostgresConfig{MaxConns: 4},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Vehicle.LastDigit < 0 || c.Vehicle.LastDigit > 9 {
		return errors.New("vehicle.lastDigit must be between 0 and 9")
	}
	if _, err := circulation.ParseSticker(c.Vehicle.Sticker); err != nil {
		return fmt.Errorf("vehicle.sticker: %w", err)
	}
	if c.Came.Timeout <= 0 {
		return errors.New("came.timeout must be positive")
	}
	if c.Came.CacheTTL < 0 {
		return errors.New("came.cacheTtl cannot be negative")
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.BotToken) == "" || strings.TrimSpace(c.Notify.Telegram.ChatID) == "" {
			return errors.New("notify.telegram requires botToken and chatId when enabled")
		}
	}
	if c.Notify.Twilio.Enabled {
		if strings.TrimSpace(c.Notify.Twilio.AccountSID) == "" ||
			strings.TrimSpace(c.Notify.Twilio.AuthToken) == "" ||
			strings.TrimSpace(c.Notify.Twilio.From) == "" ||
			strings.TrimSpace(c.Notify.Twilio.To) == "" {
			return errors.New("notify.twilio requires accountSid, authToken, from and to when enabled")
		}
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when the valkey cache is enabled")
	}
	if c.Archive.S3.Enabled {
		if strings.TrimSpace(c.Archive.S3.Endpoint) == "" || strings.TrimSpace(c.Archive.S3.Bucket) == "" {
			return errors.New("archive.s3 requires endpoint and bucket when enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
