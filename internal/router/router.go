package router

import (
	"github.com/gin-gonic/gin"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/handler"
	"dmeflow/internal/middleware"
	"dmeflow/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	corsCfg config.CORSConfig,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	noteH *handler.NoteHandler,
	orderH *handler.OrderHandler,
	extractH *handler.ExtractHandler,
	userH *handler.UserHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsCfg.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	// Synchronous extraction
	protected.POST("/extract", extractH.Extract)

	// Note routes
	notes := protected.Group("/notes")
	notes.POST("", noteH.Ingest)
	notes.GET("", noteH.List)
	notes.GET("/:id", noteH.Get)
	notes.GET("/:id/content", noteH.Content)
	notes.GET("/:id/content-url", noteH.ContentURL)
	notes.GET("/:id/order", noteH.Order)
	notes.POST("/:id/requeue", noteH.Requeue)

	// Order routes
	orders := protected.Group("/orders")
	orders.GET("", orderH.List)
	orders.GET("/review-queue", orderH.ReviewQueue)
	orders.GET("/export", orderH.Export)
	orders.GET("/:id", orderH.Get)
	orders.POST("/:id/review", orderH.Review)
	orders.POST("/:id/submit", orderH.Submit)

	// User management
	users := protected.Group("/users")
	users.Use(middleware.RequireRole(domain.RoleAdmin))
	users.POST("", userH.Create)
	users.GET("", userH.List)
	users.GET("/:id", userH.Get)
	users.PATCH("/:id", userH.Update)
	users.DELETE("/:id", userH.Delete)

	return r
}
