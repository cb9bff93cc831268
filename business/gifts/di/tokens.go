// Package di contains dependency injection tokens for the gifts context.
package di

import (
	"github.com/avkor/giftsniper/business/gifts/app"
	"github.com/avkor/giftsniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("gifts.Manager")
)

// Private dependency tokens - internal to gifts module
var (
	Dialer   = di.NewToken[app.Dialer]("gifts:dialer")
	Reporter = di.NewToken[app.Reporter]("gifts:reporter")
)

// Helper functions for type-safe access
func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}

func GetDialer(c di.ServiceRegistry) app.Dialer {
	return di.GetToken(c, Dialer)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
