package domain

import (
	"sort"

	"github.com/avkor/giftsniper/internal/stars"
)

// Eligible filters the catalog down to gifts worth attempting and orders
// them cheapest first. A gift qualifies when it is limited, still
// available, and priced at or under the ceiling. Ties keep catalog order.
func Eligible(gifts []Gift, ceiling stars.Amount) []Gift {
	eligible := make([]Gift, 0, len(gifts))
	for _, g := range gifts {
		if !g.Limited {
			continue
		}
		if !g.Available() {
			continue
		}
		if !g.Price.AtMost(ceiling) {
			continue
		}
		eligible = append(eligible, g)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Price.LessThan(eligible[j].Price)
	})

	return eligible
}
