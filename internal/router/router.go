// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/handlers"
	"github.com/javajoker/storefront/internal/middleware"
	"github.com/javajoker/storefront/internal/services"
)

// Initialize builds the engine. The returned limiter's Cleanup loop is left to the caller.
func Initialize(cfg *config.Config, sessions *services.SessionService, images *services.ImageService, logger *logrus.Entry) (*gin.Engine, *middleware.RateLimiter) {
	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessions, images)
	cartHandler := handlers.NewCartHandler(sessions, images)
	checkoutHandler := handlers.NewCheckoutHandler(sessions, images)

	var origins []string
	if cfg.Frontend.BaseURL != "" {
		origins = append(origins, cfg.Frontend.BaseURL)
	}
	streamHandler := handlers.NewStreamHandler(sessions, images, origins...)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(origins...))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"version":  "1.0.0",
			"sessions": sessions.Count(),
		})
	})

	v1 := r.Group("/v1")
	v1.Use(middleware.Session(), middleware.OptionalAuth(), limiter.Middleware())
	{
		session := v1.Group("/session")
		{
			session.POST("/login", sessionHandler.Login)
			session.POST("/logout", sessionHandler.Logout)
			session.PUT("/locale", sessionHandler.SetLocale)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:productId", cartHandler.UpdateItem)
			cart.DELETE("/items/:productId", cartHandler.RemoveItem)
			cart.POST("/reconcile", cartHandler.Reconcile)
			cart.GET("/stream", streamHandler.Stream)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.GET("", checkoutHandler.GetCheckout)
			checkout.DELETE("", checkoutHandler.Leave)
			checkout.GET("/coupons", checkoutHandler.ListCoupons)
			checkout.POST("/coupon", checkoutHandler.ApplyCoupon)
			checkout.PUT("/address", middleware.AuthRequired(), checkoutHandler.SetAddress)
			checkout.POST("/complete", checkoutHandler.Complete)
		}

		v1.GET("/orders", middleware.AuthRequired(), checkoutHandler.Orders)
		v1.GET("/orders/last", checkoutHandler.LastOrder)
	}

	return r, limiter
}
