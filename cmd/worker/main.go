package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/notifications"
	"github.com/madialex/accounthub/internal/observability"
	"github.com/madialex/accounthub/internal/queue/redisclient"
	"github.com/madialex/accounthub/internal/queue/worker"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.RedisAddr == "" {
		log.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		QueueKey: cfg.QueueKey,
	})

	pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
	err := queue.Ping(pingCtx)
	cancelPing()

	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	defer queue.Close()

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	prom := observability.NewProm()

	w := worker.New(worker.Config{
		PollTimeout:   2 * time.Second,
		ShutdownGrace: 10 * time.Second,
	}, queue, notifier, log, prom)

	log.Info("worker has started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
