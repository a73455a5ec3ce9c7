package gateway

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/specfoundry/design-orchestrator/internal/auth"
	"github.com/specfoundry/design-orchestrator/internal/metrics"
	"github.com/specfoundry/design-orchestrator/internal/ratelimit"
)

// NewRouter builds the Gin engine with all routes and middleware. The rate
// limiter guards the /api surface only; probes and metrics stay unthrottled.
func NewRouter(h *Handler, stream *TrainingStream, jwtManager *auth.JWTManager, limiter *ratelimit.Limiter, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.RequestMiddleware())
	router.Use(middleware...)

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", metrics.PrometheusHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.Use(ratelimit.Middleware(limiter))

	api.POST("/auth/token", h.IssueToken)
	api.POST("/auth/login", h.Login)

	// The WebSocket endpoint authenticates itself from the query token.
	api.GET("/ws/train", stream.Stream)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager))
	{
		protected.POST("/generate", h.Generate)
		protected.POST("/evaluate", h.Evaluate)
		protected.POST("/train", h.Train)
		protected.GET("/sessions/:id/iterations", h.SessionIterations)
		protected.GET("/analytics", auth.RequireRole("admin"), h.Analytics)
	}

	return router
}
