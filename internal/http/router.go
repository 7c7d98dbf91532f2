// Package http assembles the HTTP server: middleware, CORS, health and the
// routes of every domain module.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/httpkit"
	"breed_site_backend/platform/logger"
)

// Module is a bounded context that can register its HTTP routes.
type Module interface {
	Name() string
	RegisterRoutes(r gin.IRouter)
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized dependencies of the HTTP server. It is
// populated by the composition root and passed to NewRouter.
type App struct {
	Config  config.HTTPConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module

	// FormLimited lists route paths that get the stricter per-IP rate limit
	// applied to public form endpoints. All listed paths share a single
	// limiter, so one client draws from one budget across every form
	// endpoint rather than getting a fresh allowance per path.
	FormLimited []string
}

// NewRouter builds the gin engine with all middleware and module routes.
func NewRouter(app *App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app.Config))

	formLimiter := httpkit.NewFormRateLimiter(app.Logger)
	for _, path := range app.FormLimited {
		engine.Use(pathLimited(path, formLimiter))
	}

	engine.GET("/health", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for _, module := range app.Modules {
		module.RegisterRoutes(engine)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsConfig)
}

// pathLimited applies the limiter only to requests for the given path.
func pathLimited(path string, limiter *httpkit.IPRateLimiter) gin.HandlerFunc {
	limit := limiter.RateLimit()
	return func(c *gin.Context) {
		if c.Request.URL.Path == path {
			limit(c)
			return
		}
		c.Next()
	}
}
