package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cvanloo/burrowdns/internal/api/handlers"
	"github.com/cvanloo/burrowdns/internal/api/middleware"
	"github.com/cvanloo/burrowdns/internal/config"
)

// RegisterRoutes mounts all API endpoints on the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	// Prometheus scrape endpoint, outside the keyed group.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/config", h.GetConfig)
	api.GET("/querylog", h.QueryLog)
}
