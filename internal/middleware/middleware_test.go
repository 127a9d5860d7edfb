// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionIssuesAndReusesID(t *testing.T) {
	r := gin.New()
	r.Use(Session())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetSessionIDFromContext(c))
	})

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	issued := w.Body.String()
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	assert.Equal(t, issued, w.Header().Get(SessionHeader))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: issued})
	assert.Equal(t, issued, serve(r, req).Body.String())

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Body.String())
}

func TestOptionalAuth(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateJWT("u1", "shopper", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(OptionalAuth())
	r.GET("/", func(c *gin.Context) {
		userID, _ := utils.GetUserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, "u1", serve(r, req).Body.String())

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.Use(AuthRequired())
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest("GET", "/", nil)).Code)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestI18nMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetLangFromContext(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "ar-JO,ar;q=0.9")
	w := serve(r, req)
	assert.Equal(t, "ar", w.Body.String())
	assert.Equal(t, "ar", w.Header().Get("Content-Language"))

	req = httptest.NewRequest("GET", "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ar")
	assert.Equal(t, "en", serve(r, req).Body.String())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest("GET", "/", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest("GET", "/", nil)).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
