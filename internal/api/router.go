package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Jansmig/magmamath/pkg/metrics"
	"github.com/Jansmig/magmamath/pkg/middleware"
)

// RouterConfig holds the optional collaborators of the router.
type RouterConfig struct {
	Metrics      *metrics.Metrics
	HealthChecks map[string]HealthCheck
}

// NewBaseRouter creates a gin engine with the shared middleware chain and the
// /health and /metrics endpoints.
func NewBaseRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.GinMiddleware())
	}
	r.Use(middleware.Recovery())

	if cfg.Metrics != nil {
		r.GET("/metrics", cfg.Metrics.Handler())
	}

	r.GET("/health", Health(cfg.HealthChecks))
	return r
}

// NewRouter creates the user service router.
func NewRouter(h *UserHandler, cfg RouterConfig) *gin.Engine {
	r := NewBaseRouter(cfg)

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// User routes
	users := r.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.PATCH("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)

	return r
}
