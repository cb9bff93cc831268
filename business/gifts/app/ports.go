// Package app contains application services and port definitions for the gifts context.
package app

import (
	"context"

	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/stars"
)

// Platform is the port to the messaging platform's gift store. One
// Platform instance owns one session; a run holds its session
// exclusively for the run's lifetime.
type Platform interface {
	// Open connects the session and verifies authorization. An
	// unauthorized session returns CodeAuthRequired; interactive login
	// is out of band.
	Open(ctx context.Context) error

	// Close releases the session.
	Close(ctx context.Context) error

	// ResolveRecipient resolves a username or "me" to a peer.
	ResolveRecipient(ctx context.Context, recipient string) (domain.Peer, error)

	// StarsBalance returns the current Stars balance. Callers must
	// re-read it before every purchase attempt.
	StarsBalance(ctx context.Context) (stars.Amount, error)

	// StarGifts fetches the catalog. hash is the change-detection token
	// from the previous snapshot (zero on the first call). The bool is
	// true when the catalog is unchanged; the page is then empty and
	// the caller keeps its current hash.
	StarGifts(ctx context.Context, hash int64) (domain.CatalogPage, bool, error)

	// PaymentForm prepares payment for a single gift.
	PaymentForm(ctx context.Context, peer domain.Peer, giftID int64) (domain.PaymentForm, error)

	// SubmitForm submits a prepared payment form.
	SubmitForm(ctx context.Context, form domain.PaymentForm) (domain.Receipt, error)
}

// Dialer constructs Platform sessions. Construction is cheap; no network
// happens until Open.
type Dialer interface {
	Dial(session string) (Platform, error)
}

// Reporter is the user-facing log sink for run progress.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends one human-readable line to the sink.
	Report(line string)

	// ReportBalance displays a Stars balance readout.
	ReportBalance(balance stars.Amount)

	// ReportPurchase displays a completed purchase.
	ReportPurchase(receipt domain.Receipt)

	// UpdateRunState updates the displayed run state.
	UpdateRunState(state State)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
