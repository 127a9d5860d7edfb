// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/i18n"
)

// I18nMiddleware picks the request locale: ?lang first, then Accept-Language.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			lang = c.GetHeader("Accept-Language")
		}
		lang = i18n.Normalize(lang)

		c.Set("lang", lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}
