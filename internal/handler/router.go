package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public API. The catch-all redirect route goes
// last so it never shadows the fixed paths.
func RegisterRoutes(router gin.IRouter, urls *URLHandler, health *HealthHandler) {
	router.GET("/health", health.Health)
	router.GET("/info", health.Info)

	shortURLs := router.Group("/shorturls")
	{
		shortURLs.POST("", urls.CreateURL)
		shortURLs.GET("/:shortcode", urls.GetStats)
	}

	router.GET("/:shortcode", urls.RedirectURL)
}
