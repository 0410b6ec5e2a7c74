package handlers

import (
	"net/http"

	"github.com/fedor-resh/bite/internal/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the public and authenticated routes.
func NewRouter(d Deps, jwtSecret []byte, corsOrigins []string) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(corsOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		protected.POST("/entries/photo", UploadFoodPhoto(d))
		protected.GET("/entries", ListEntries(d))
		protected.GET("/entries/:id", GetEntry(d))
		protected.GET("/stats/calories", CalorieStats(d))
	}

	return r
}
