// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/utils"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "storefront_session"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// Session resolves the shopper session from the header or cookie, issuing a new id
// when the request carries none.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = cookie
			}
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, sessionCookieMaxAge, "/", "", false, true)
		c.Header(SessionHeader, id)
		c.Set("session_id", id)
		c.Next()
	}
}

// OptionalAuth binds the bearer token's user to the request when the token is valid.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		// Set user info in context if token is valid
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("auth_token", token)
		c.Next()
	}
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("auth_token", token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
