package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/config"
	"billbook-api/internal/handlers"
	"billbook-api/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	container, err := server.NewContainer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize container")
	}
	defer container.Close()

	logger := container.Logger
	// Middleware logs through the standard logger
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routes := &handlers.RouterConfig{
		CalculatorService: container.CalculatorService,
		DocumentService:   container.DocumentService,
		AuthService:       container.AuthService,
		Credentials: handlers.Credentials{
			Username: cfg.JWT.Username,
			Password: cfg.JWT.Password,
		},
		HealthCheck: container.Health,
	}

	router := gin.New()
	handlers.SetupMiddleware(router, &handlers.MiddlewareConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	handlers.SetupRoutes(router, routes)
	if !cfg.IsProduction() {
		handlers.SetupDevelopmentRoutes(router, routes)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
