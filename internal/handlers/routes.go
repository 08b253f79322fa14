package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"billbook-api/internal/middleware"
	"billbook-api/internal/services"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	CalculatorService services.CalculatorService
	DocumentService   services.DocumentService

	// AuthService protects the draft and document routes. Nil disables
	// authentication.
	AuthService *middleware.AuthService
	Credentials Credentials

	// HealthCheck reports whether the backing stores are reachable
	HealthCheck func(ctx context.Context) error
}

// MiddlewareConfig holds configuration for the global middleware chain
type MiddlewareConfig struct {
	AllowedOrigins     []string
	RateLimitEnabled   bool
	RequestsPerSecond  float64
	Burst              int
	MaxRequestBytes    int64
	SlowRequestTimeout time.Duration
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	calculationHandler := NewCalculationHandler(config.CalculatorService)
	draftHandler := NewDraftHandler(config.DocumentService)
	documentHandler := NewDocumentHandler(config.DocumentService)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"service":   "billbook-api",
			"version":   "1.0.0",
			"timestamp": time.Now().UTC(),
		}
		if config.HealthCheck != nil {
			if err := config.HealthCheck(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}
		c.JSON(status, body)
	})

	v1 := router.Group("/api/v1")
	{
		// Calculation routes are stateless and never require a token
		v1.POST("/calculate/line", calculationHandler.CalculateLine)
		v1.POST("/calculate/document", calculationHandler.CalculateDocument)
		v1.GET("/tax-slabs", calculationHandler.GetTaxSlabs)
		v1.GET("/gstin/:gstin/validate", calculationHandler.ValidateGSTIN)

		api := v1.Group("")
		if config.AuthService != nil {
			authHandler := NewAuthHandler(config.AuthService, config.Credentials)
			auth := v1.Group("/auth")
			{
				auth.POST("/login", authHandler.Login)
				auth.POST("/refresh", authHandler.RefreshToken)
				auth.GET("/me", middleware.Authentication(config.AuthService), authHandler.GetCurrentUser)
			}

			api.Use(middleware.Authentication(config.AuthService))
		}

		drafts := api.Group("/drafts")
		{
			drafts.POST("", draftHandler.CreateDraft)
			drafts.GET("/:id", draftHandler.GetDraft)
			drafts.DELETE("/:id", draftHandler.DeleteDraft)
			drafts.PUT("/:id/header", draftHandler.UpdateHeader)
			drafts.GET("/:id/summary", draftHandler.Summarize)
			drafts.POST("/:id/rows", draftHandler.AddRow)
			drafts.PATCH("/:id/rows/:row", draftHandler.UpdateRow)
			drafts.DELETE("/:id/rows/:row", draftHandler.RemoveRow)
			drafts.PUT("/:id/round-off", draftHandler.SetRoundOff)
			drafts.POST("/:id/payments", draftHandler.AddPayment)
			drafts.PATCH("/:id/payments/:payment", draftHandler.UpdatePayment)
			drafts.DELETE("/:id/payments/:payment", draftHandler.RemovePayment)
			drafts.POST("/:id/finalize", draftHandler.Finalize)
		}

		documents := api.Group("/documents")
		{
			documents.GET("", documentHandler.ListDocuments)
			documents.GET("/:id", documentHandler.GetDocument)
			documents.GET("/:id/handoff", documentHandler.GetHandoff)

			deletion := documents.Group("")
			if config.AuthService != nil {
				deletion.Use(middleware.Authorization(string(middleware.RoleAdmin)))
			}
			deletion.DELETE("/:id", documentHandler.DeleteDocument)
		}
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *MiddlewareConfig) {
	if config == nil {
		config = &MiddlewareConfig{}
	}
	if config.MaxRequestBytes == 0 {
		config.MaxRequestBytes = 1024 * 1024
	}

	router.Use(gin.Recovery())

	// Request ID and correlation ID
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())

	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(config.AllowedOrigins...))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(config.MaxRequestBytes))
	router.Use(middleware.ContentTypeValidation("application/json"))
	router.Use(middleware.RequestValidation())

	if config.RateLimitEnabled {
		router.Use(middleware.RateLimiter(config.RequestsPerSecond, config.Burst))
	}

	router.Use(middleware.StructuredLogger())
	router.Use(middleware.PerformanceMonitor(config.SlowRequestTimeout))
	router.Use(middleware.AuditLogger())
	router.Use(middleware.ErrorTracker())
	router.Use(middleware.ErrorHandler())
}

// SetupDevelopmentRoutes adds development-only routes
func SetupDevelopmentRoutes(router *gin.Engine, config *RouterConfig) {
	dev := router.Group("/dev")
	{
		if config.AuthService != nil {
			dev.POST("/token", func(c *gin.Context) {
				token, err := config.AuthService.GenerateToken(
					"demo-user",
					"demo",
					[]string{string(middleware.RoleAdmin)},
				)
				if err != nil {
					respondError(c, err, "Failed to generate token")
					return
				}
				c.JSON(http.StatusOK, gin.H{"token": token})
			})
		}

		dev.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"tax_slabs":   config.CalculatorService.GetTaxSlabs(c.Request.Context()),
				"api_version": "1.0.0",
				"swagger_url": "/swagger/index.html",
			})
		})
	}
}
