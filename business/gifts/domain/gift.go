// Package domain contains the core gift catalog model for the gifts context.
package domain

import (
	"github.com/avkor/giftsniper/internal/stars"
)

// Gift is a single catalog offer.
type Gift struct {
	ID    int64
	Title string
	Price stars.Amount

	// Limited marks a gift sold in finite supply. Only limited gifts
	// are worth sniping; unlimited ones never run out.
	Limited bool
	SoldOut bool

	// Remains is the remaining supply counter. Nil means the platform
	// did not report one, which counts as unconstrained.
	Remains *int32
	Total   *int32
}

// Available reports whether the gift can still be bought.
func (g Gift) Available() bool {
	if g.SoldOut {
		return false
	}
	if g.Remains != nil && *g.Remains <= 0 {
		return false
	}
	return true
}

// Peer identifies the resolved recipient of a gift.
type Peer struct {
	ID       int64
	Username string
}

// FormKind discriminates payment form types returned by the platform.
type FormKind string

const (
	// FormKindStarGift is the only form kind the sniper submits.
	FormKindStarGift FormKind = "star_gift"
	FormKindInvoice  FormKind = "invoice"
	FormKindUnknown  FormKind = "unknown"
)

// PaymentForm is the platform's prepared payment for a single gift.
type PaymentForm struct {
	ID     int64
	Kind   FormKind
	GiftID int64
	Peer   Peer
	Price  stars.Amount
}

// Payable reports whether the form can be submitted as a Stars gift payment.
func (f PaymentForm) Payable() bool {
	return f.Kind == FormKindStarGift
}

// Receipt confirms a completed purchase.
type Receipt struct {
	FormID int64
	GiftID int64
	Price  stars.Amount
}
