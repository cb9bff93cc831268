// Package gifts implements the gift acquisition bounded context.
package gifts

import (
	"context"
	"time"

	"github.com/avkor/giftsniper/business/gifts/app"
	giftsDI "github.com/avkor/giftsniper/business/gifts/di"
	"github.com/avkor/giftsniper/business/gifts/infra"
	"github.com/avkor/giftsniper/business/gifts/infra/telegram"
	"github.com/avkor/giftsniper/internal/config"
	"github.com/avkor/giftsniper/internal/di"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/monolith"
)

// Module implements the gifts bounded context.
type Module struct {
	updates *telegram.UpdatesFeed
}

// RegisterServices registers all gifts services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Dialer (gateway sessions) - private dependency
	di.RegisterToken(c, giftsDI.Dialer, func(sr di.ServiceRegistry) app.Dialer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return telegram.NewDialer(telegram.ClientConfig{
			BaseURL:           cfg.Telegram.GatewayURL,
			APIID:             cfg.Telegram.APIID,
			APIHash:           cfg.Telegram.APIHash,
			Timeout:           cfg.Telegram.RequestTimeout,
			RequestsPerMinute: cfg.Telegram.RequestsPerMinute,
		}, log)
	})

	// Register Reporter - private dependency
	di.RegisterToken(c, giftsDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Sniper.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Manager (public - exposed to other modules)
	di.RegisterToken(c, giftsDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewManager(giftsDI.GetDialer(sr), giftsDI.GetReporter(sr), log)
	})

	return nil
}

// Startup initializes the gifts module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	reporter := giftsDI.GetReporter(mono.Services())
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	// The update feed is presentation-only; a failed connect never
	// blocks startup.
	if cfg.Telegram.UpdatesURL != "" {
		feed, err := telegram.NewUpdatesFeed(cfg.Telegram.UpdatesURL, reporter, log)
		if err != nil {
			log.Warn(ctx, "updates feed setup failed", "error", err)
		} else {
			m.updates = feed
			if err := feed.Start(ctx); err != nil {
				log.Warn(ctx, "updates feed connection failed, will retry in background", "error", err)
				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case <-time.After(5 * time.Second):
							if err := feed.Start(ctx); err == nil {
								log.Info(ctx, "updates feed connected")
								return
							}
						}
					}
				}()
			}
		}
	}

	log.Info(ctx, "gifts module started")
	return nil
}

// Shutdown stops the module's background resources.
func (m *Module) Shutdown() error {
	if m.updates != nil {
		return m.updates.Stop()
	}
	return nil
}
