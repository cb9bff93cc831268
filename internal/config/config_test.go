package config

import (
	"testing"
	"time"

	"github.com/avkor/giftsniper/internal/apperror"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("TG_API_ID", "12345")
	t.Setenv("TG_API_HASH", "abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setCredentials(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.APIID != 12345 {
		t.Errorf("APIID = %d, want 12345", cfg.Telegram.APIID)
	}
	if cfg.Telegram.Session != DefaultSession {
		t.Errorf("Session = %q, want %q", cfg.Telegram.Session, DefaultSession)
	}
	if cfg.Sniper.Recipient != "me" {
		t.Errorf("Recipient = %q, want me", cfg.Sniper.Recipient)
	}
	if cfg.Sniper.MaxPriceStars != 500 {
		t.Errorf("MaxPriceStars = %d, want 500", cfg.Sniper.MaxPriceStars)
	}
	if cfg.Sniper.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %s, want 15s", cfg.Sniper.PollInterval)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = true, want false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("TG_SESSION", "alt.session")
	t.Setenv("RECIPIENT", "someuser")
	t.Setenv("MAX_PRICE_STARS", "250")
	t.Setenv("POLL_INTERVAL", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Session != "alt.session" {
		t.Errorf("Session = %q, want alt.session", cfg.Telegram.Session)
	}
	if cfg.Sniper.Recipient != "someuser" {
		t.Errorf("Recipient = %q, want someuser", cfg.Sniper.Recipient)
	}
	if cfg.Sniper.MaxPriceStars != 250 {
		t.Errorf("MaxPriceStars = %d, want 250", cfg.Sniper.MaxPriceStars)
	}
	if cfg.Sniper.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %s, want 5s", cfg.Sniper.PollInterval)
	}
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	setCredentials(t)
	t.Setenv("RECIPIENT", "legacy")
	t.Setenv("GIFT_RECIPIENT", "prefixed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sniper.Recipient != "prefixed" {
		t.Errorf("Recipient = %q, want prefixed", cfg.Sniper.Recipient)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("TG_API_ID", "")
	t.Setenv("TG_API_HASH", "")

	_, err := Load("")
	if !apperror.IsCode(err, apperror.CodeMissingCredentials) {
		t.Fatalf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeMissingCredentials)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Telegram: TelegramConfig{
				APIID:      1,
				APIHash:    "h",
				GatewayURL: "https://gw.local",
			},
			Sniper: SniperConfig{
				MaxPriceStars: 500,
				PollInterval:  15 * time.Second,
			},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode apperror.Code
	}{
		{name: "valid", mutate: func(c *Config) {}, wantCode: ""},
		{name: "missing_api_id", mutate: func(c *Config) { c.Telegram.APIID = 0 }, wantCode: apperror.CodeMissingCredentials},
		{name: "missing_api_hash", mutate: func(c *Config) { c.Telegram.APIHash = "" }, wantCode: apperror.CodeMissingCredentials},
		{name: "missing_gateway_url", mutate: func(c *Config) { c.Telegram.GatewayURL = "" }, wantCode: apperror.CodeConfigurationError},
		{name: "zero_max_price", mutate: func(c *Config) { c.Sniper.MaxPriceStars = 0 }, wantCode: apperror.CodeValidationError},
		{name: "negative_max_price", mutate: func(c *Config) { c.Sniper.MaxPriceStars = -10 }, wantCode: apperror.CodeValidationError},
		{name: "interval_below_floor", mutate: func(c *Config) { c.Sniper.PollInterval = time.Second }, wantCode: apperror.CodeValidationError},
		{name: "interval_at_floor", mutate: func(c *Config) { c.Sniper.PollInterval = MinPollInterval }, wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if !apperror.IsCode(err, tt.wantCode) {
				t.Fatalf("error code = %s, want %s", apperror.GetCode(err), tt.wantCode)
			}
		})
	}
}
