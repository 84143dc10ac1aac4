package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STAKE_CALC_SERVER_PORT
const EnvPrefix = "STAKE_CALC"

// Config holds all configuration for the stake calculator
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Calculator CalculatorConfig `mapstructure:"calculator"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Slack      SlackConfig      `mapstructure:"slack"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// CalculatorConfig holds calculator defaults
type CalculatorConfig struct {
	DefaultMaxFraction float64 `mapstructure:"default_max_fraction"`
	UserID             string  `mapstructure:"user_id"`
}

// CacheConfig selects the analytics cache backend
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
}

// PostgresConfig holds database configuration. An empty DSN runs the
// service without persistence.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AlertsConfig holds the alert pipeline configuration
type AlertsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	DedupTTL           time.Duration `mapstructure:"dedup_ttl"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	Stream             string        `mapstructure:"stream"`
	StreamMaxLen       int64         `mapstructure:"stream_max_len"`
	MinMarginPercent   float64       `mapstructure:"min_margin_percent"`
	MinEVPercent       float64       `mapstructure:"min_ev_percent"`
	Channels           []string      `mapstructure:"channels"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BotToken   string        `mapstructure:"bot_token"`
	ChatID     string        `mapstructure:"chat_id"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// SlackConfig holds Slack webhook configuration
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional YAML file, a .env file
// and the environment, in increasing order of precedence. An empty path only
// looks for ./config.yaml and does not fail if it is missing.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names shared with the other fortuna services
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("postgres.dsn", EnvPrefix+"_POSTGRES_DSN", "HOLOCRON_DSN")
	_ = v.BindEnv("redis.url", EnvPrefix+"_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("telegram.bot_token", EnvPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", EnvPrefix+"_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("slack.webhook_url", EnvPrefix+"_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:3001"})

	v.SetDefault("calculator.default_max_fraction", 0.1)
	v.SetDefault("calculator.user_id", "default")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.prefix", "stakecalc:cache:")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", "5m")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.url", "")

	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.dedup_ttl", "5m")
	v.SetDefault("alerts.rate_limit_per_minute", 10)
	v.SetDefault("alerts.stream", "opportunities.detected")
	v.SetDefault("alerts.stream_max_len", 10000)
	v.SetDefault("alerts.min_margin_percent", 1.0)
	v.SetDefault("alerts.min_ev_percent", 5.0)
	v.SetDefault("alerts.channels", []string{"websocket"})
	v.SetDefault("alerts.timeout", "30s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay", "1s")

	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.webhook_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	if c.Calculator.DefaultMaxFraction <= 0 || c.Calculator.DefaultMaxFraction > 1 {
		return fmt.Errorf("calculator.default_max_fraction must be in (0, 1]")
	}
	if c.Calculator.UserID == "" {
		return fmt.Errorf("calculator.user_id is required")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of: memory, redis")
	}

	if c.Alerts.Enabled {
		if c.Alerts.DedupTTL <= 0 {
			return fmt.Errorf("alerts.dedup_ttl must be positive")
		}
		if c.Alerts.RateLimitPerMinute < 1 {
			return fmt.Errorf("alerts.rate_limit_per_minute must be at least 1")
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required when slack is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
