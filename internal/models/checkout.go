// internal/models/checkout.go
package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is an entry of the remote coupon catalogue.
type Coupon struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Amount    float64    `json:"amount"`
	Title     string     `json:"title,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CouponResult is what the coupon gateway returns for an accepted code.
// Amount is a percentage between 0 and 100.
type CouponResult struct {
	Amount float64         `json:"amount"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// CouponState belongs to the checkout flow, never to the cart store.
type CouponState struct {
	Code             string  `json:"code"`
	Applied          bool    `json:"applied"`
	DiscountFraction float64 `json:"discount_fraction"`
	Error            string  `json:"error,omitempty"`
}

// Totals is the checkout breakdown. Shipping is never discounted.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	OriginalTotal   decimal.Decimal `json:"original_total"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
}

// OrderConfirmation is handed over by the payment collaborator once it has charged the shopper.
type OrderConfirmation struct {
	OrderID       string `json:"order_id" validate:"omitempty,reference"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card cash"`
	AddressID     string `json:"address_id" validate:"omitempty,reference"`
}

// OrderSnapshot is written once when checkout completes and consumed by the confirmation view.
type OrderSnapshot struct {
	OrderID       string     `json:"order_id"`
	OwnerID       string     `json:"owner_id"`
	Lines         []CartLine `json:"lines"`
	Totals        Totals     `json:"totals"`
	CouponCode    string     `json:"coupon_code,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	AddressID     string     `json:"address_id,omitempty"`
	Locale        string     `json:"locale"`
	CompletedAt   time.Time  `json:"completed_at"`
}
