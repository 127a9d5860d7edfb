// internal/handlers/view.go
package handlers

import (
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/money"
	"github.com/javajoker/storefront/internal/services"
)

// LineView is a cart line rendered for one locale.
type LineView struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Price       string `json:"price"`
	LineTotal   string `json:"line_total"`
	Image       string `json:"image,omitempty"`
	Quantity    int    `json:"quantity"`
}

// CartView is what cart consumers render.
type CartView struct {
	Lines     []LineView            `json:"lines"`
	Count     int                   `json:"count"`
	Totals    money.FormattedTotals `json:"totals"`
	IsLoading bool                  `json:"is_loading"`
	Error     *models.CartError     `json:"error,omitempty"`
	Empty     string                `json:"empty_message,omitempty"`
	Locale    string                `json:"locale"`
	Direction string                `json:"direction"`
}

type CheckoutView struct {
	Coupon    models.CouponState    `json:"coupon"`
	Totals    money.FormattedTotals `json:"totals"`
	Count     int                   `json:"count"`
	Locale    string                `json:"locale"`
	Direction string                `json:"direction"`
}

func buildCartView(sess *services.Session, state models.CartState, images *services.ImageService, locale string) CartView {
	view := CartView{
		Lines:     make([]LineView, 0, len(state.Lines)),
		Totals:    money.FormatTotals(sess.Checkout.TotalsFor(state.Lines), locale),
		IsLoading: state.IsLoading,
		Error:     state.Error,
		Locale:    locale,
		Direction: i18n.Direction(locale),
	}

	for _, line := range state.Lines {
		image := line.Image
		if images != nil {
			image = images.URL(line.Image)
		}
		view.Lines = append(view.Lines, LineView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			Name:        line.Name.In(locale),
			Description: line.Description.In(locale),
			UnitPrice:   line.UnitPrice,
			Price:       money.FormatPrice(line.UnitPrice, locale),
			LineTotal:   money.FormatDecimal(money.LineTotal(line), locale),
			Image:       image,
			Quantity:    line.Quantity,
		})
		view.Count += line.Quantity
	}

	if len(view.Lines) == 0 {
		view.Empty = i18n.T(locale, i18n.KeyCartEmpty)
	}
	return view
}

func buildCheckoutView(sess *services.Session, locale string) CheckoutView {
	return CheckoutView{
		Coupon:    sess.Checkout.Coupon(),
		Totals:    money.FormatTotals(sess.Checkout.Totals(), locale),
		Count:     sess.Cart.LineCount(),
		Locale:    locale,
		Direction: i18n.Direction(locale),
	}
}
