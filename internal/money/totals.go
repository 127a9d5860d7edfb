// internal/money/totals.go
package money

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
)

// Fees are the flat checkout charges. Both are configuration, not computed.
type Fees struct {
	Shipping decimal.Decimal
	Tax      decimal.Decimal
}

func DefaultFees() Fees {
	return Fees{
		Shipping: decimal.NewFromInt(2),
		Tax:      decimal.Zero,
	}
}

func NewFees(shipping, tax float64) Fees {
	return Fees{
		Shipping: decimal.NewFromFloat(shipping),
		Tax:      decimal.NewFromFloat(tax),
	}
}

// LineTotal is unit price times quantity; an unparsable price counts as zero.
func LineTotal(line models.CartLine) decimal.Decimal {
	price, ok := ParsePrice(line.UnitPrice)
	if !ok || line.Quantity <= 0 {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Subtotal sums every line. Lines with bad prices still count, as zero.
func Subtotal(lines []models.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line))
	}
	return subtotal
}

// ComputeTotals applies the coupon to subtotal plus tax, then adds shipping.
func ComputeTotals(lines []models.CartLine, coupon models.CouponState, fees Fees) models.Totals {
	subtotal := Subtotal(lines)
	original := subtotal.Add(fees.Tax)

	discounted := original
	if coupon.Applied {
		fraction := decimal.NewFromFloat(clampFraction(coupon.DiscountFraction))
		discounted = original.Mul(decimal.NewFromInt(1).Sub(fraction))
	}

	return models.Totals{
		Subtotal:        subtotal,
		Shipping:        fees.Shipping,
		Tax:             fees.Tax,
		OriginalTotal:   original,
		DiscountedTotal: discounted.Add(fees.Shipping),
	}
}

// FormattedTotals is the display form of Totals.
type FormattedTotals struct {
	Subtotal        string `json:"subtotal"`
	Shipping        string `json:"shipping"`
	Tax             string `json:"tax"`
	OriginalTotal   string `json:"original_total"`
	DiscountedTotal string `json:"discounted_total"`
}

func FormatTotals(t models.Totals, locale string) FormattedTotals {
	return FormattedTotals{
		Subtotal:        FormatDecimal(t.Subtotal, locale),
		Shipping:        FormatDecimal(t.Shipping, locale),
		Tax:             FormatDecimal(t.Tax, locale),
		OriginalTotal:   FormatDecimal(t.OriginalTotal, locale),
		DiscountedTotal: FormatDecimal(t.DiscountedTotal, locale),
	}
}

func clampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
