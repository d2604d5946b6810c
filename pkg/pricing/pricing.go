// Package pricing computes the platform's cut of a task price. The fee
// formula lives here and only here; both the create path and any display
// path call the same Calculator.
package pricing

import "strconv"

// DefaultRate is the platform fee as a fraction of the task price.
const DefaultRate = 0.10

// Calculator derives platform fees from task prices at a fixed rate.
type Calculator struct {
	rate float64
}

// NewCalculator creates a Calculator. A non-positive rate falls back to
// DefaultRate.
func NewCalculator(rate float64) Calculator {
	if rate <= 0 {
		rate = DefaultRate
	}
	return Calculator{rate: rate}
}

// Rate returns the configured fee rate.
func (c Calculator) Rate() float64 { return c.rate }

// Fee returns the platform fee for a price, at full precision.
func (c Calculator) Fee(priceGHS float64) float64 {
	return priceGHS * c.rate
}

// Quote is a cost breakdown for display.
type Quote struct {
	PriceGHS       float64 `json:"priceGHS"`
	PlatformFeeGHS float64 `json:"platformFeeGHS"`
	TotalGHS       float64 `json:"totalGHS"`
	FeeDisplay     string  `json:"feeDisplay"`
	TotalDisplay   string  `json:"totalDisplay"`
}

// Quote builds the full breakdown for a price.
func (c Calculator) Quote(priceGHS float64) Quote {
	fee := c.Fee(priceGHS)
	total := priceGHS + fee
	return Quote{
		PriceGHS:       priceGHS,
		PlatformFeeGHS: fee,
		TotalGHS:       total,
		FeeDisplay:     FormatGHS(fee),
		TotalDisplay:   FormatGHS(total),
	}
}

// FormatGHS renders an amount with two decimal places for display. Stored
// values keep full precision.
func FormatGHS(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
