package app

import (
	"context"
	"net/http"
	"time"

	"recipeshare/internal/api"
	"recipeshare/internal/auth"
	"recipeshare/internal/cache"
	"recipeshare/internal/config"
	"recipeshare/internal/handlers"
	"recipeshare/internal/layout"
	"recipeshare/internal/logger"
	"recipeshare/internal/mail"
	"recipeshare/internal/metrics"
	"recipeshare/internal/render"
	"recipeshare/internal/repo"
	"recipeshare/internal/search"
	"recipeshare/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginPath = "/login"

// Deps are the long-lived collaborators the routes are built from.
type Deps struct {
	Config config.Config
	Logger *zap.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Mailer mail.Mailer
	// Search is nil when no index is configured.
	Search *search.Client
}

func newRouter(d Deps) (*gin.Engine, error) {
	if d.Config.App.Env == "production" || d.Config.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}
	r := gin.New()
	if err := Setup(r, d); err != nil {
		return nil, err
	}
	return r, nil
}

// Setup registers middleware and all routes on the given engine.
func Setup(r *gin.Engine, d Deps) error {
	cfg := d.Config
	log := d.Logger

	renderer, err := render.New(nil)
	if err != nil {
		return err
	}
	r.HTMLRender = renderer

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessionStore := auth.NewStore(d.Redis, cfg.Redis.SessionTTL.Duration())
	sessions := auth.NewCookieAccessor(sessionStore)
	userSvc := service.NewUserService(repo.NewPGUserRepo(d.DB))
	composer := layout.NewComposer(sessions, userSvc, logger.WithComponent(log, "layout"))
	boundary := handlers.NewBoundary(composer, logger.WithComponent(log, "boundary"))

	var responseCache *cache.ResponseCache
	if ttl := cfg.Redis.DefaultTTL.Duration(); ttl > 0 {
		responseCache = cache.NewResponseCache(d.Redis, ttl)
	}
	backend, err := api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout.Duration(),
		Breaker: api.BreakerConfig{
			MaxRequests:      cfg.API.BreakerMaxRequests,
			Interval:         cfg.API.BreakerInterval.Duration(),
			Timeout:          cfg.API.BreakerTimeout.Duration(),
			MinRequests:      cfg.API.BreakerMinRequests,
			FailureThreshold: cfg.API.BreakerFailRatio,
		},
		Cache:   responseCache,
		Metrics: m,
		Logger:  logger.WithComponent(log, "api"),
	})
	if err != nil {
		return err
	}

	var searcher handlers.Searcher
	if d.Search != nil {
		searcher = d.Search
	}

	r.Use(RequestLogger(log), boundary.Recovery(), m.Middleware())
	r.NoRoute(boundary.NotFound)
	r.StaticFS("/static", render.Static())

	r.GET("/health", healthHandler(cfg, d.DB, d.Redis))
	r.GET("/version", versionHandler(cfg))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	pages := handlers.NewPageHandler(composer, backend, searcher, boundary, m, logger.WithComponent(log, "pages"))
	actions := handlers.NewActionHandler(backend, boundary, logger.WithComponent(log, "actions"))
	authHandler := handlers.NewAuthHandler(sessionStore, userSvc, d.Mailer, composer, boundary,
		cfg.HTTP.SecureCookies, logger.WithComponent(log, "auth"))

	registerPageRoutes(r, pages)
	registerAuthPages(r, authHandler)
	registerActionRoutes(r.Group("", auth.RequirePageSession(sessions, loginPath)), pages, actions)

	v1 := r.Group("/api/v1", cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	registerAuthRoutes(v1, authHandler, sessions)
	return nil
}

func corsConfig(origins []string) cors.Config {
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

func healthHandler(cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		checks := gin.H{}
		ok := true
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				checks["postgres"], ok = err.Error(), false
			} else {
				checks["postgres"] = "ok"
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"], ok = err.Error(), false
			} else {
				checks["redis"] = "ok"
			}
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": ok, "env": cfg.App.Env, "checks": checks})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func registerPageRoutes(r gin.IRoutes, h *handlers.PageHandler) {
	r.GET("/", h.Feed)
	r.GET("/recipe/:id", h.Recipe)
	r.GET("/profile/:username", h.Profile)
	r.GET("/search", h.Search)
}

func registerAuthPages(r gin.IRoutes, h *handlers.AuthHandler) {
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)
}

func registerActionRoutes(r gin.IRoutes, pages *handlers.PageHandler, h *handlers.ActionHandler) {
	r.GET("/notifications", pages.Notifications)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.POST("/recipe/:id/bookmark", h.Bookmark)
	r.POST("/recipe/:id/like", h.Like)
	r.POST("/recipe/:id/comments", h.AddComment)
	r.POST("/recipe/:id/comments/:commentId/delete", h.DeleteComment)
	r.POST("/profile/:username/follow", h.Follow)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, sessions auth.SessionGetter) {
	api.POST("/auth/login", h.APILogin)
	api.POST("/auth/register", h.APIRegister)
	api.POST("/auth/logout", h.APILogout)
	api.GET("/auth/session", auth.RequireSession(sessions), h.Session)
	api.GET("/me", h.Me)
}
