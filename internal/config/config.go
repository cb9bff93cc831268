// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/avkor/giftsniper/internal/apperror"
)

// DefaultSession is the session file used when none is configured.
const DefaultSession = "tg_gifts.session"

// MinPollInterval is the lowest allowed catalog poll interval.
const MinPollInterval = 2 * time.Second

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Sniper    SniperConfig    `mapstructure:"sniper"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
}

// TelegramConfig holds Telegram gateway and credential configuration.
// APIID and APIHash are process-wide credentials; a run never starts
// without both.
type TelegramConfig struct {
	APIID             int           `mapstructure:"api_id"`
	APIHash           string        `mapstructure:"api_hash"`
	Session           string        `mapstructure:"session"`
	GatewayURL        string        `mapstructure:"gateway_url"`
	UpdatesURL        string        `mapstructure:"updates_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// SniperConfig holds acquisition run defaults.
type SniperConfig struct {
	Recipient     string        `mapstructure:"recipient"`
	MaxPriceStars int64         `mapstructure:"max_price_stars"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	TUIMode       bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("GIFT")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "GIFT_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "GIFT_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "GIFT_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "GIFT_LOG_FILE")

	// Telegram (legacy env names kept for .env compatibility)
	v.BindEnv("telegram.api_id", "GIFT_TG_API_ID", "TG_API_ID")
	v.BindEnv("telegram.api_hash", "GIFT_TG_API_HASH", "TG_API_HASH")
	v.BindEnv("telegram.session", "GIFT_TG_SESSION", "TG_SESSION")
	v.BindEnv("telegram.gateway_url", "GIFT_TG_GATEWAY_URL", "TG_GATEWAY_URL")
	v.BindEnv("telegram.updates_url", "GIFT_TG_UPDATES_URL", "TG_UPDATES_URL")

	// Sniper
	v.BindEnv("sniper.recipient", "GIFT_RECIPIENT", "RECIPIENT")
	v.BindEnv("sniper.max_price_stars", "GIFT_MAX_PRICE_STARS", "MAX_PRICE_STARS")
	v.BindEnv("sniper.poll_interval", "GIFT_POLL_INTERVAL", "POLL_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "GIFT_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "GIFT_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "GIFT_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "giftsniper")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Telegram defaults
	v.SetDefault("telegram.session", DefaultSession)
	v.SetDefault("telegram.gateway_url", "https://gateway.tgbridge.local")
	v.SetDefault("telegram.updates_url", "wss://gateway.tgbridge.local/updates")
	v.SetDefault("telegram.request_timeout", "10s")
	v.SetDefault("telegram.requests_per_minute", 120)

	// Sniper defaults
	v.SetDefault("sniper.recipient", "me")
	v.SetDefault("sniper.max_price_stars", 500)
	v.SetDefault("sniper.poll_interval", "15s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "giftsniper")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration. Missing credentials are a fatal
// precondition: surfaced here once, before any network activity.
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
		return apperror.New(apperror.CodeMissingCredentials,
			apperror.WithContext("set TG_API_ID and TG_API_HASH in the environment or .env"))
	}
	if c.Telegram.GatewayURL == "" {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("telegram.gateway_url is required"))
	}
	if c.Sniper.MaxPriceStars <= 0 {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext(fmt.Sprintf("sniper.max_price_stars must be positive, got %d", c.Sniper.MaxPriceStars)))
	}
	if c.Sniper.PollInterval < MinPollInterval {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext(fmt.Sprintf("sniper.poll_interval must be at least %s, got %s", MinPollInterval, c.Sniper.PollInterval)))
	}
	return nil
}
