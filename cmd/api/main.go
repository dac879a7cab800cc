package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/madialex/accounthub/internal/cache"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/db"
	httpx "github.com/madialex/accounthub/internal/http"
	"github.com/madialex/accounthub/internal/http/middlewares"
	"github.com/madialex/accounthub/internal/observability"
	"github.com/madialex/accounthub/internal/queue/redisclient"
	"github.com/madialex/accounthub/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// tracing
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "accounthub-api", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	// database
	if err := db.Migrate(context.Background(), cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	err = db.EnsureAdminUser(seedCtx, pool, cfg)
	cancelSeed()

	if err != nil {
		log.Error("admin seeding failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()
	usersRepo := postgres.NewUsersRepo(pool, prom)

	deps := httpx.RouterDeps{
		Store:     usersRepo,
		Prom:      prom,
		ListCache: cache.New(5 * time.Second),
		Ping: func() error {
			ctx, cancel := config.WithTimeout(time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
	}

	// redis is optional; without it the limiter falls back to the
	// in-process store and signup skips the welcome job
	if cfg.RedisAddr != "" {
		queue := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			QueueKey: cfg.QueueKey,
		})

		pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
		err = queue.Ping(pingCtx)
		cancelPing()

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}

		defer queue.Close()

		deps.Queue = queue
		deps.RateStore = middlewares.NewRedisCounterStore(queue.Raw())
	}

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
