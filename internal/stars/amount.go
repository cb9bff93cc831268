// Package stars provides the Telegram Stars currency amount type.
package stars

import (
	"github.com/shopspring/decimal"
)

// NanosPerStar is the number of nanounits in one Star.
const NanosPerStar = 1_000_000_000

// Amount is an immutable Stars quantity. The remote service reports
// balances as an integer amount plus a fractional nano part; both are
// normalized into a single decimal quantity at construction so that all
// comparisons happen on one representation.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero Stars amount.
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// FromParts builds an Amount from integer Stars plus nanounits.
func FromParts(units int64, nanos int64) Amount {
	d := decimal.NewFromInt(units)
	if nanos != 0 {
		d = d.Add(decimal.New(nanos, -9))
	}
	return Amount{d: d}
}

// FromInt64 builds a whole-Star Amount.
func FromInt64(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

// Decimal returns the normalized decimal quantity.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Cmp returns -1, 0 or 1 comparing a against b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// LessThan reports a < b. This is the insufficiency check: a balance
// exactly equal to a price is sufficient.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// AtMost reports a <= b. This is the eligibility check against a price
// ceiling: a price exactly equal to the ceiling qualifies.
func (a Amount) AtMost(b Amount) bool {
	return a.d.LessThanOrEqual(b.d)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// String renders the amount without trailing zeros, e.g. "500" or "2.5".
func (a Amount) String() string {
	return a.d.String()
}

// StringFixed renders the amount rounded to whole Stars for display.
func (a Amount) StringFixed() string {
	return a.d.StringFixed(0)
}
