// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/database"
	"github.com/javajoker/storefront/internal/gateway"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/router"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/storage"
	"github.com/javajoker/storefront/internal/utils"
)

const (
	sessionMaxIdle = 30 * time.Minute
	sweepInterval  = 5 * time.Minute
	purgeInterval  = time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	configureLogging(cfg.Log)
	logger := logrus.NewEntry(logrus.StandardLogger()).WithField("service", "storefront")

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logger.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	provider, purger, db, err := openStorage(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	if db != nil {
		defer database.Close(db)
	}

	client, err := gateway.NewClient(cfg.Remote, gateway.WithLogger(logger.WithField("component", "gateway")))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create storefront gateway")
	}

	images, err := services.NewImageService(cfg.AWS)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize image service")
	}

	var sessionOpts []services.SessionOption
	if db != nil {
		sessionOpts = append(sessionOpts, services.WithOrderArchive(database.NewOrderArchive(db)))
	}
	sessions := services.NewSessionService(cfg, provider, func(st storage.Store) services.Gateways {
		return client.Session(st)
	}, logger.WithField("component", "sessions"), sessionOpts...)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r, limiter := router.Initialize(cfg, sessions, images, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go limiter.Cleanup(ctx)
	go every(ctx, sweepInterval, func() {
		sessions.Sweep(sessionMaxIdle)
	})
	if cfg.Storage.Retention > 0 {
		go every(ctx, purgeInterval, func() {
			purged, err := purger.PurgeBefore(ctx, time.Now().Add(-cfg.Storage.Retention))
			if err != nil {
				logger.WithError(err).Warn("Failed to purge stale session storage")
				return
			}
			if purged > 0 {
				logger.WithField("purged", purged).Info("Stale session storage purged")
			}
		})
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func configureLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openStorage picks the session storage backend. The auth token is sealed at rest.
// The backend is also returned unwrapped so stale sessions can be purged.
func openStorage(cfg *config.Config) (storage.Provider, storage.Purger, *gorm.DB, error) {
	if cfg.Storage.Driver != "postgres" {
		memory := storage.NewMemoryProvider()
		return storage.NewSealedProvider(memory, cfg.Storage.SealSecret, storage.KeyToken), memory, nil, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	durable := storage.NewGormProvider(db)
	return storage.NewSealedProvider(durable, cfg.Storage.SealSecret, storage.KeyToken), durable, db, nil
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
