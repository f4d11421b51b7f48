package viewmodel

import (
	"strconv"

	"github.com/paideia-dao/paideia-site/internal/resource"
)

// PricePlaceholder is shown until a price is known.
const PricePlaceholder = "$-"

// BuildPriceView formats the price with four decimals.
func BuildPriceView(p *resource.PricePayload) string {
	if p == nil || p.Price == nil {
		return PricePlaceholder
	}
	return "$" + strconv.FormatFloat(*p.Price, 'f', 4, 64)
}
