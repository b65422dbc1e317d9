package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/handler"
	"github.com/stemsi/exstem-engine/internal/middleware"
	"github.com/stemsi/exstem-engine/internal/response"
)

// paperMaxAge is how long a client may cache a session's paper. The paper
// is frozen once the session starts.
const paperMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background work of the rate limiters. Nil Monitor, System
// or WS handlers leave their routes unregistered.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	startLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.StartPerMinute, time.Minute)
	signalLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.SignalPerMinute, time.Minute)

	// ─── 1. Session Group ──────────────────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", startLimiter.Middleware(), middleware.Brotli(), handlers.Session.StartSession)

		live := sessions.Group("/:id")
		live.Use(middleware.NoStore())
		{
			live.GET("", handlers.Session.GetSession)
			live.POST("/navigate", handlers.Session.Navigate)
			live.POST("/next", handlers.Session.Next)
			live.POST("/previous", handlers.Session.Previous)
			live.POST("/jump", handlers.Session.JumpToSubject)
			live.POST("/answer", handlers.Session.SelectOption)
			live.DELETE("/answer/:index", handlers.Session.ClearResponse)
			live.POST("/review/:index", handlers.Session.MarkForReview)
			live.DELETE("/review/:index", handlers.Session.Unmark)
			live.POST("/integrity", signalLimiter.Middleware(), handlers.Session.ReportSignal)
			live.POST("/submit", handlers.Session.Submit)
			live.GET("/result", handlers.Session.GetResult)
		}

		sessions.GET("/:id/paper", middleware.CacheControl(paperMaxAge), middleware.Brotli(), handlers.Session.GetPaper)
	}

	// ─── 2. Proctor Group ──────────────────────────────────────────────
	if handlers.Monitor != nil {
		sessions.GET("/:id/monitor", handlers.Monitor.MonitorSessionSSE)
		sessions.GET("/:id/integrity-events", middleware.NoStore(), handlers.Monitor.ListIntegrityEvents)

		proctor := router.Group("/api/v1")
		{
			proctor.GET("/monitor/stream", handlers.Monitor.MonitorAllSSE)
			proctor.GET("/results", middleware.NoStore(), middleware.Brotli(), handlers.Monitor.ListResults)
		}
	}

	if handlers.System != nil {
		system := router.Group("/api/v1/system")
		{
			system.GET("/metrics", middleware.NoStore(), handlers.System.Metrics)
			system.GET("/metrics/stream", handlers.System.MetricsSSE)
		}
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	if handlers.WS != nil {
		ws := router.Group("/ws/v1")
		{
			ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
		}
	}

	return router
}
