package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/auth"
	"github.com/madialex/accounthub/internal/cache"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/http/handlers"
	"github.com/madialex/accounthub/internal/http/middlewares"
	"github.com/madialex/accounthub/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxRequestBody = 1 << 20 // 1 MiB

// RouterDeps carries the injected collaborators. The store is an
// explicit instance, never a package-level registry.
type RouterDeps struct {
	Store     handlers.UsersStore
	Queue     handlers.WelcomeEnqueuer
	Prom      *observability.Prom
	RateStore middlewares.CounterStore
	ListCache *cache.Cache
	Ping      func() error
}

func NewRouter(log *slog.Logger, cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("accounthub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(ErrorHandler(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxRequestBody))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Prom.Registry(), promhttp.HandlerOpts{})))
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up auth plumbing
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager, deps.Store)

	limiter := middlewares.NewRateLimiter(deps.RateStore, cfg.RateLimit, cfg.RateWindow)

	authHandler := handlers.NewAuthHandler(deps.Store, jwtManager, deps.Queue, cfg)
	usersHandler := handlers.NewUsersHandler(deps.Store, deps.ListCache)

	users := r.Group("/api/v/users")

	// public, throttled by IP
	users.POST("/signup", limiter.Middleware(middlewares.KeyByIP), authHandler.SignUp)
	users.POST("/login", limiter.Middleware(middlewares.KeyByIP), authHandler.Login)

	// authenticated self-service
	users.POST("/logout", authMW.RequireAuth(), authHandler.Logout)
	users.GET("/profile", authMW.RequireAuth(), usersHandler.GetProfile)
	users.PUT("/profile", authMW.RequireAuth(), usersHandler.UpdateProfile)

	// admin-only; the router is what keeps non-admins out of these
	users.GET("", authMW.RequireAuth(), authMW.RequireAdmin(), usersHandler.ListUsers)
	users.PUT("/:id", authMW.RequireAuth(), authMW.RequireAdmin(), usersHandler.UpdateUser)
	users.DELETE("/:id", authMW.RequireAuth(), authMW.RequireAdmin(), usersHandler.DeleteUser)

	return r
}
