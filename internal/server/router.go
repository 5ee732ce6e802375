package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/config"
	"github.com/rehna-jp/Louer/internal/metrics"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/mw"
	"github.com/rehna-jp/Louer/internal/service"
	"github.com/rehna-jp/Louer/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SetupRouter wires middleware, services and routes. The caller owns gdb and
// limiter and must stop the limiter on shutdown.
func SetupRouter(cfg config.Config, gdb *gorm.DB, limiter *mw.Limiter) *gin.Engine {
	h := NewHandler(
		service.NewUserService(gdb, cfg),
		service.NewListingService(gdb),
		service.NewBookingService(gdb),
		service.NewFavoriteService(gdb),
		service.NewThreadService(gdb),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestID())
	r.Use(tracing.Middleware(cfg.ServiceName))
	r.Use(mw.RequestLogger())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env, cfg.CORSOrigins))
	r.Use(limiter.Middleware())

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "not found"}) })
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", healthHandler(gdb))

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)

	api.GET("/listings", h.ListListings)
	api.GET("/listings/:id", h.GetListing)

	authed := api.Group("")
	authed.Use(auth.AuthMiddleware(cfg))

	authed.GET("/auth/me", h.Me)

	authed.POST("/listings", auth.RequireRole(models.RoleLandlord, models.RoleAdmin), h.CreateListing)
	authed.PUT("/listings/:id", h.UpdateListing)
	authed.DELETE("/listings/:id", h.DeleteListing)

	authed.POST("/bookings", h.CreateBooking)
	authed.GET("/bookings", h.ListBookings)
	authed.GET("/bookings/:id", h.GetBooking)
	authed.PUT("/bookings/:id", h.UpdateBooking)

	authed.POST("/favorites", h.AddFavorite)
	authed.GET("/favorites", h.ListFavorites)
	authed.DELETE("/favorites/:id", h.RemoveFavorite)

	threads := authed.Group("/messages/threads")
	threads.POST("", h.CreateThread)
	threads.GET("", h.ListThreads)
	threads.GET("/:id", h.GetThread)
	threads.POST("/:id/messages", h.SendMessage)
	threads.GET("/:id/messages", h.ListMessages)
	threads.PUT("/:id/read", h.MarkThreadRead)

	return r
}

// healthHandler reports 503 when the database does not answer a ping.
func healthHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Str("request_id", mw.GetRequestID(c)).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "database": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
