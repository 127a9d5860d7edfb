// internal/handlers/cart.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type CartHandler struct {
	sessions *services.SessionService
	images   *services.ImageService
}

func NewCartHandler(sessions *services.SessionService, images *services.ImageService) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		images:   images,
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	utils.SuccessResponse(c, gin.H{
		"cart": buildCartView(sc.session, sc.session.Cart.State(), h.images, sc.locale),
	})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req models.ProductSnapshot
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sc := resolveScope(c, h.sessions)
	sc.session.Cart.AddLine(c.Request.Context(), req, sc.owner, sc.locale)
	h.respond(c, sc, i18n.KeyCartItemAdded)
}

// PUT /cart/items/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID := c.Param("productId")

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sc := resolveScope(c, h.sessions)
	sc.session.Cart.SetQuantity(c.Request.Context(), productID, req.Quantity, sc.owner, sc.locale)
	if req.Quantity == 0 {
		h.respond(c, sc, i18n.KeyCartItemRemoved)
		return
	}
	h.respond(c, sc, i18n.KeyCartItemUpdated)
}

// DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	sc.session.Cart.RemoveLine(c.Request.Context(), c.Param("productId"), sc.owner, sc.locale)
	h.respond(c, sc, i18n.KeyCartItemRemoved)
}

// DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	sc.session.Cart.Clear(c.Request.Context(), sc.owner, sc.locale)
	h.respond(c, sc, i18n.KeyCartCleared)
}

// POST /cart/reconcile
func (h *CartHandler) Reconcile(c *gin.Context) {
	sc := resolveScope(c, h.sessions)
	if sc.owner == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	sc.session.Cart.Reconcile(c.Request.Context(), sc.owner, sc.locale)
	h.respond(c, sc, i18n.KeyCartItemUpdated)
}

// respond renders the cart after a mutation. A surfaced cart error means the mutation
// was rolled back or the follow-up sync failed, so it is reported as a gateway failure
// with the current cart attached.
func (h *CartHandler) respond(c *gin.Context, sc scope, messageKey string) {
	state := sc.session.Cart.State()
	view := buildCartView(sc.session, state, h.images, sc.locale)

	if state.Error != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, strings.ToUpper(string(state.Error.Kind)), state.Error.Message, gin.H{
			"cart": view,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(sc.locale, messageKey),
		"cart":    view,
	})
}
