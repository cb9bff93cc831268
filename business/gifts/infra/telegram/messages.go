// Package telegram implements the Platform port against an MTProto HTTP gateway.
package telegram

import (
	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/stars"
)

// Gateway request/response payloads. The gateway bridges MTProto to
// JSON over HTTP; field names follow its wire schema.

type sessionOpenRequest struct {
	Session string `json:"session"`
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
}

type sessionOpenResponse struct {
	Authorized bool  `json:"authorized"`
	UserID     int64 `json:"user_id"`
}

// starsAmount mirrors the platform's split integer/nano representation.
type starsAmount struct {
	Amount int64 `json:"amount"`
	Nanos  int64 `json:"nanos"`
}

func (a starsAmount) toAmount() stars.Amount {
	return stars.FromParts(a.Amount, a.Nanos)
}

type starsStatusResponse struct {
	Balance starsAmount `json:"balance"`
}

type starGiftsResponse struct {
	NotModified bool          `json:"not_modified"`
	Hash        int64         `json:"hash"`
	Gifts       []giftPayload `json:"gifts"`
}

type giftPayload struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Stars   int64  `json:"stars"`
	Limited bool   `json:"limited"`
	SoldOut bool   `json:"sold_out"`

	// Availability counters are absent for unconstrained gifts.
	AvailabilityRemains *int32 `json:"availability_remains,omitempty"`
	AvailabilityTotal   *int32 `json:"availability_total,omitempty"`
}

func (g giftPayload) toDomain() domain.Gift {
	return domain.Gift{
		ID:      g.ID,
		Title:   g.Title,
		Price:   stars.FromInt64(g.Stars),
		Limited: g.Limited,
		SoldOut: g.SoldOut,
		Remains: g.AvailabilityRemains,
		Total:   g.AvailabilityTotal,
	}
}

type resolveRequest struct {
	Recipient string `json:"recipient"`
}

type resolveResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type paymentFormRequest struct {
	PeerID int64 `json:"peer_id"`
	GiftID int64 `json:"gift_id"`
}

type paymentFormResponse struct {
	FormID int64       `json:"form_id"`
	Kind   string      `json:"kind"`
	Price  starsAmount `json:"price"`
}

func (f paymentFormResponse) toDomain(peer domain.Peer, giftID int64) domain.PaymentForm {
	kind := domain.FormKindUnknown
	switch f.Kind {
	case "star_gift":
		kind = domain.FormKindStarGift
	case "invoice":
		kind = domain.FormKindInvoice
	}
	return domain.PaymentForm{
		ID:     f.FormID,
		Kind:   kind,
		GiftID: giftID,
		Peer:   peer,
		Price:  f.Price.toAmount(),
	}
}

type submitFormRequest struct {
	FormID int64 `json:"form_id"`
	GiftID int64 `json:"gift_id"`
}

type submitFormResponse struct {
	Success bool        `json:"success"`
	Paid    starsAmount `json:"paid"`
}

// gatewayError is the gateway's error envelope.
type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Update feed payloads.

type updateEvent struct {
	Type string `json:"type"`

	// stars_balance updates
	Balance *starsAmount `json:"balance,omitempty"`

	// transaction notices
	Description string `json:"description,omitempty"`
}
