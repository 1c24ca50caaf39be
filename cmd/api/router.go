package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"contacts/internal/cache"
	"contacts/internal/config"
	"contacts/internal/middleware"
	"contacts/internal/modules/auth"
	"contacts/internal/modules/contacts"
	"contacts/internal/pkg/mailer"
	"contacts/internal/pkg/response"
	"contacts/internal/pkg/storage"
	"contacts/internal/ratelimit"
	"contacts/internal/repository"
)

type routerDeps struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *gorm.DB
	sessions *cache.SessionCache
	tokens   auth.TokenService
	hasher   auth.PasswordHasher
	mail     mailer.Dispatcher
	avatars  storage.Store
}

func newRouter(d routerDeps) *gin.Engine {
	authService := auth.NewService(
		repository.NewUserRepository(d.db),
		d.tokens,
		d.hasher,
		d.sessions,
		d.mail,
		d.avatars,
		d.log,
		auth.Options{RequireEmailVerification: d.cfg.RequireEmailVerification},
	)
	authHandler := auth.NewHandler(authService, d.cfg.BaseURL)

	contactsHandler := contacts.NewHandler(contacts.NewService(repository.NewContactRepository(d.db)))

	limiter := ratelimit.New(d.sessions, d.cfg.RateLimit.Requests, d.cfg.RateLimit.Window)

	if d.cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(d.log))
	r.Use(middleware.CORS(d.cfg.CORSOrigins))

	if local, ok := d.avatars.(*storage.LocalStore); ok {
		r.Static(d.cfg.Storage.StaticPrefix, local.Dir())
	}

	r.GET("/healthz", healthz(d.db, d.sessions))

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1, middleware.RateLimit(limiter))

		protected := v1.Group("")
		protected.Use(middleware.Authenticate(authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			contactsHandler.RegisterRoutes(protected)

			admin := protected.Group("/admin", middleware.AdminOnly())
			authHandler.RegisterAdminRoutes(admin)
		}
	}

	return r
}

func healthz(db *gorm.DB, sessions *cache.SessionCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", err.Error())
			return
		}
		if err := sessions.Ping(ctx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", err.Error())
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
