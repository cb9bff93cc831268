package app

import (
	"fmt"
	"time"

	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/config"
	"github.com/avkor/giftsniper/internal/stars"
)

// DefaultRecipient sends the gift to the authenticated account itself.
const DefaultRecipient = "me"

// RunConfig is the immutable configuration of one acquisition run.
// Changing a field after Start has no effect on a running loop.
type RunConfig struct {
	Session       string
	Recipient     string
	MaxPriceStars int64
	PollInterval  time.Duration
}

// Normalized returns a copy with blank fields replaced by defaults.
func (c RunConfig) Normalized() RunConfig {
	if c.Session == "" {
		c.Session = config.DefaultSession
	}
	if c.Recipient == "" {
		c.Recipient = DefaultRecipient
	}
	return c
}

// Validate checks the run parameters.
func (c RunConfig) Validate() error {
	if c.MaxPriceStars <= 0 {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext(fmt.Sprintf("max price must be positive, got %d", c.MaxPriceStars)))
	}
	if c.PollInterval < config.MinPollInterval {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext(fmt.Sprintf("poll interval must be at least %s, got %s", config.MinPollInterval, c.PollInterval)))
	}
	return nil
}

// Ceiling returns the price ceiling as a Stars amount.
func (c RunConfig) Ceiling() stars.Amount {
	return stars.FromInt64(c.MaxPriceStars)
}
