package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openvalley/strmatch-backend-go/internal/config"
	"github.com/openvalley/strmatch-backend-go/internal/handler"
	"github.com/openvalley/strmatch-backend-go/internal/middleware"
	"github.com/openvalley/strmatch-backend-go/internal/service"
)

// SetupRouter builds the HTTP surface: public map and dashboard reads, and
// the JWT-protected curation endpoints.
func SetupRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS for the curation UI
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "STR Match API is running",
		})
	})

	reviewHandler := handler.NewReviewHandler(service.NewReviewService(db, cfg.Weights))
	statsHandler := handler.NewStatsHandler(service.NewStatsService(db))
	geoHandler := handler.NewGeoHandler(service.NewGeoService(db))

	api := r.Group("/api/v1")
	{
		// Public reads for the town dashboard and map layers
		public := api.Group("")
		public.Use(middleware.RateLimit(120, time.Minute))
		{
			public.GET("/stats/dashboard", statsHandler.GetDashboard)
			public.GET("/parcels/geojson", geoHandler.GetParcels)
			public.GET("/dwellings/geojson", geoHandler.GetDwellings)
		}

		// Curation endpoints; the token subject is the recorded reviewer
		review := api.Group("/str-review")
		review.Use(middleware.Auth(cfg.JWTSecret))
		{
			review.GET("/stats", statsHandler.GetReviewStats)
			review.GET("/queue", reviewHandler.GetQueue)
			review.GET("/:id", reviewHandler.GetDetail)
			review.PUT("/:id/decision", reviewHandler.Decide)
		}
	}

	return r
}
