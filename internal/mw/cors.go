package mw

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows every origin in dev. Elsewhere only the configured origins are
// allowed, and none when the list is empty.
func CORS(env string, origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	switch {
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	case env == "dev":
		cfg.AllowOriginFunc = func(string) bool { return true }
	default:
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
