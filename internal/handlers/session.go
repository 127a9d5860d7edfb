// internal/handlers/session.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type SessionHandler struct {
	sessions *services.SessionService
	images   *services.ImageService
}

func NewSessionHandler(sessions *services.SessionService, images *services.ImageService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		images:   images,
	}
}

type localeRequest struct {
	Locale string `json:"locale" validate:"required,max=35"`
}

// scope is the session, owner and locale a request acts under.
type scope struct {
	session *services.Session
	owner   string
	locale  string
}

// resolveScope loads the request's session. A bearer token whose user is not yet bound
// to the session logs it in first, so the guest cart is merged before the request runs.
func resolveScope(c *gin.Context, sessions *services.SessionService) scope {
	ctx := c.Request.Context()
	sess := sessions.Get(ctx, utils.GetSessionIDFromContext(c))

	locale := utils.GetLangFromContext(c)
	if c.Query("lang") == "" {
		locale = sessions.Locale(ctx, sess, locale)
	}

	owner := sessions.Owner(ctx, sess)
	if userID, ok := utils.GetUserIDFromContext(c); ok && owner != userID {
		token := c.GetString("auth_token")
		bound, err := sessions.Login(ctx, sess, services.LoginRequest{UserID: userID, Token: token}, locale)
		if err != nil {
			logrus.WithError(err).WithField("session_id", sess.ID).Warn("Failed to bind bearer user to session")
		} else {
			owner = bound
		}
	}

	return scope{session: sess, owner: owner, locale: locale}
}

// POST /session/login
func (h *SessionHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	ctx := c.Request.Context()
	sess := h.sessions.Get(ctx, utils.GetSessionIDFromContext(c))

	userID, err := h.sessions.Login(ctx, sess, req, lang)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrOwnerMismatch):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	locale := h.sessions.Locale(ctx, sess, lang)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(locale, i18n.KeySessionLoggedIn),
		"user_id": userID,
		"cart":    buildCartView(sess, sess.Cart.State(), h.images, locale),
	})
}

// POST /session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	sess := h.sessions.Get(ctx, utils.GetSessionIDFromContext(c))
	locale := h.sessions.Locale(ctx, sess, utils.GetLangFromContext(c))

	if err := h.sessions.Logout(ctx, sess); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(locale, i18n.KeySessionLoggedOut),
		"cart":    buildCartView(sess, sess.Cart.State(), h.images, locale),
	})
}

// PUT /session/locale
func (h *SessionHandler) SetLocale(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req localeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	ctx := c.Request.Context()
	sess := h.sessions.Get(ctx, utils.GetSessionIDFromContext(c))

	locale, err := h.sessions.SetLocale(ctx, sess, req.Locale)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	c.Header("Content-Language", locale)
	utils.SuccessResponse(c, gin.H{
		"locale":    locale,
		"direction": i18n.Direction(locale),
	})
}
