package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fleetcheck-backend/config"
	"fleetcheck-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. cacheStore is the
// response cache shared with the lifecycle service's invalidator.
func NewRouter(h *Handler, cacheStore *cache.Cache, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/vehicles", caching, h.GetVehicles)
		api.GET("/vehicles/:id", caching, h.GetVehicle)
		api.GET("/vehicles/:id/mileage", caching, h.GetVehicleMileage)

		api.GET("/checklists", caching, h.GetChecklists)
		api.GET("/checklists/:id", h.GetChecklist)
		api.POST("/checklists", h.PostExit)
		api.POST("/checklists/:id/return", h.PostReturn)

		api.GET("/templates/:id/items", caching, h.GetTemplateItems)

		api.GET("/analytics/fleet", h.GetFleetAnalytics)
	}

	return r
}
