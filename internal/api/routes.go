package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/afro-network/ceo-agent/docs" // swagger spec
	"github.com/afro-network/ceo-agent/internal/models"
)

// dashboardPrefix is where the dashboard expects every route
const dashboardPrefix = "/api/ceo"

// registerRoutes registers all API routes at the root and under the dashboard prefix
func (s *Server) registerRoutes() {
	router := s.router

	s.logger.Info("Registering API routes...")

	router.GET("/api/health", s.healthCheck)
	router.HEAD("/api/health", s.healthCheck)

	s.registerGroup(router.Group(""))
	s.registerGroup(router.Group(dashboardPrefix))

	if s.config.Metrics.Enabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})

	s.logger.Info("API routes registered successfully")
}

func (s *Server) registerGroup(g *gin.RouterGroup) {
	operator := s.authMW.RequireOperator()

	g.GET("/health", s.healthCheck)
	g.HEAD("/health", s.healthCheck)

	s.stack.RegisterRoutes(g, operator)
	s.logs.RegisterRoutes(g)
	s.system.RegisterRoutes(g)
	s.ceo.RegisterRoutes(g, operator)
}

// healthCheck godoc
// @Summary Liveness check
// @Description Reports that the agent process is up. It does not check the stack.
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: time.Now().UTC(),
	})
}
