// internal/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/checkout"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/money"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type CheckoutHandler struct {
	sessions *services.SessionService
	images   *services.ImageService
}

func NewCheckoutHandler(sessions *services.SessionService, images *services.ImageService) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		images:   images,
	}
}

type couponRequest struct {
	Code      string `json:"code" validate:"required,coupon_code"`
	CountryID string `json:"country_id" validate:"omitempty,max=8"`
}

type addressRequest struct {
	AddressID string `json:"address_id" validate:"required,reference"`
}

// GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	utils.SuccessResponse(c, gin.H{
		"checkout": buildCheckoutView(sc.session, sc.locale),
	})
}

// GET /checkout/coupons
func (h *CheckoutHandler) ListCoupons(c *gin.Context) {
	sc := resolveScope(c, h.sessions)

	coupons, err := sc.session.Checkout.Coupons(c.Request.Context())
	if err != nil {
		failure := cart.Describe(err, sc.locale)
		utils.BadGatewayResponse(c, "COUPONS_UNAVAILABLE", failure.Message)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"coupons": coupons,
	})
}

// POST /checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sc := resolveScope(c, h.sessions)
	state := sc.session.Checkout.ApplyCoupon(c.Request.Context(), req.Code, req.CountryID, sc.locale)
	view := buildCheckoutView(sc.session, sc.locale)

	if !state.Applied {
		utils.BadRequestResponse(c, state.Error, gin.H{"checkout": view})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(sc.locale, i18n.KeyCouponApplied),
		"checkout": view,
	})
}

// PUT /checkout/address
func (h *CheckoutHandler) SetAddress(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sc := resolveScope(c, h.sessions)
	if sc.owner == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := sc.session.Checkout.SetDefaultAddress(c.Request.Context(), req.AddressID); err != nil {
		utils.BadGatewayResponse(c, "ADDRESS_FAILED", i18n.T(sc.locale, i18n.KeyAddressFailed))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(sc.locale, i18n.KeyAddressUpdated),
		"address_id": req.AddressID,
	})
}

// POST /checkout/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req models.OrderConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sc := resolveScope(c, h.sessions)
	if sc.session.Cart.LineCount() == 0 {
		utils.BadRequestResponse(c, i18n.T(sc.locale, i18n.KeyCartEmpty), nil)
		return
	}

	order, err := sc.session.Checkout.Complete(c.Request.Context(), req, sc.owner, sc.locale)
	if errors.Is(err, checkout.ErrCartNotCleared) {
		state := sc.session.Cart.State()
		message := i18n.T(sc.locale, i18n.KeyCartOperationFailed)
		if state.Error != nil {
			message = state.Error.Message
		}
		utils.ErrorResponse(c, http.StatusBadGateway, "CART_NOT_CLEARED", message, gin.H{
			"order": order,
			"cart":  buildCartView(sc.session, state, h.images, sc.locale),
		})
		return
	}
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(sc.locale, i18n.KeyOrderCompleted),
		"order":   order,
		"totals":  money.FormatTotals(order.Totals, sc.locale),
	})
}

// DELETE /checkout
func (h *CheckoutHandler) Leave(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	sc.session.Checkout.Leave(c.Request.Context())
	utils.SuccessResponse(c, gin.H{
		"checkout": buildCheckoutView(sc.session, sc.locale),
	})
}

// GET /orders/last
func (h *CheckoutHandler) LastOrder(c *gin.Context) {
	sc := resolveScope(c, h.sessions)

	order, err := sc.session.Checkout.ConsumeLastOrder(c.Request.Context())
	if err != nil {
		if errors.Is(err, checkout.ErrNoOrder) {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(sc.locale, i18n.KeyOrderCompleted),
		"order":   order,
		"totals":  money.FormatTotals(order.Totals, sc.locale),
	})
}

// GET /orders
func (h *CheckoutHandler) Orders(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	if sc.owner == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		utils.BadRequestResponse(c, i18n.T(sc.locale, i18n.KeyValidationInvalid, "limit"), nil)
		return
	}

	orders, err := sc.session.Checkout.History(c.Request.Context(), sc.owner, limit)
	if errors.Is(err, checkout.ErrNoArchive) {
		utils.SuccessResponseWithMeta(c, gin.H{"orders": []models.OrderRecord{}}, gin.H{"count": 0, "archived": false})
		return
	}
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponseWithMeta(c, gin.H{"orders": orders}, gin.H{"count": len(orders), "archived": true})
}
