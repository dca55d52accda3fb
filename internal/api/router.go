// Package api wires together all HTTP routes for the Friend Indeed backend.
//
// Route grouping philosophy:
//   - Browse routes (GET /needs, GET /organizations) are intentionally
//     unauthenticated: the marketplace is publicly discoverable so volunteers
//     can see open needs before signing in. Anonymous listings default to
//     open needs only.
//   - Mutating routes (POST /needs and the status transitions) require the
//     platform identity header; RequirePrincipal enforces that per group.
//
// Authentication itself is delegated to the hosting platform, which runs the
// OAuth flow and hands us the decoded user as the x-ms-client-principal
// header. This service only consumes that header.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	needsapi "github.com/friendindeed/friendindeed/internal/api/needs"
	"github.com/friendindeed/friendindeed/internal/api/organizations"
	"github.com/friendindeed/friendindeed/internal/config"
	"github.com/friendindeed/friendindeed/internal/middleware"
	"github.com/friendindeed/friendindeed/internal/needs"
	"github.com/friendindeed/friendindeed/internal/store"
)

// Version is the reported service version. Overridden at build time via
// -ldflags "-X github.com/friendindeed/friendindeed/internal/api.Version=...".
var Version = "0.1.0"

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) calls Shutdown after the HTTP server has
// drained in-flight requests.
type BackgroundServices struct {
	rateLimiter middleware.Limiter
}

// Shutdown stops all background resources.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.rateLimiter != nil {
		bg.rateLimiter.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router. db may be nil when the
// memory store driver is in use; the health and readiness probes then skip
// the database check.
func NewRouter(cfg *config.Config, needService *needs.Service, orgStore store.OrganizationStore, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeaders(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.Principal())

	if cfg.Security.RateLimiting.Enabled {
		bg.rateLimiter = middleware.NewLimiter(cfg.Security.RateLimiting)
		router.Use(middleware.RateLimit(bg.rateLimiter, cfg.Security.RateLimiting.RequestsPerMinute))
	}

	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	needsHandler := needsapi.NewHandler(needService)
	needsGroup := router.Group("/needs")
	{
		needsGroup.GET("", needsHandler.List)

		protected := needsGroup.Group("")
		protected.Use(middleware.RequirePrincipal())
		{
			protected.POST("", needsHandler.Create)
			protected.POST("/:id/claim", needsHandler.Claim)
			protected.POST("/:id/complete", needsHandler.Complete)
			protected.POST("/:id/cancel", needsHandler.Cancel)
		}
	}

	orgsHandler := organizations.NewHandler(orgStore)
	router.GET("/organizations", orgsHandler.List)
	router.GET("/organizations/:slug", orgsHandler.GetBySlug)

	return router, bg
}

// healthCheckHandler reports process liveness. The database check is a
// soft signal here; /ready is the gate load balancers should use.
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "database connection failed",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler reports whether the service can take traffic.
func readinessHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"error":  "database connection failed",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware emits one structured log line per request. The output
// format (JSON or text) follows the handler installed by
// telemetry.SetupLogger.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		requestID := c.GetString(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware reflects allowed origins from configuration and answers
// preflight requests. The identity header must be in Allow-Headers or
// browsers will strip it from cross-origin calls.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, x-ms-client-principal, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
