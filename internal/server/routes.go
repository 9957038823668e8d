package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/match", handler.MatchInline)

		tenant := v1.Group("", TenantMiddleware())
		{
			tenant.GET("/candidates/:id/matches", handler.CandidateMatches)
			tenant.GET("/candidates/:id/jobs/:jobId/match", handler.MatchPair)
			tenant.POST("/candidates/:id/jobs/:jobId/screen", handler.Screen)
			tenant.GET("/jobs/:id/matches", handler.JobMatches)
			tenant.POST("/jobs/search", handler.SearchJobs)
		}
	}

	return router
}
