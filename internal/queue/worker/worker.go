package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/madialex/accounthub/internal/jobs"
	"github.com/madialex/accounthub/internal/notifications"
	"github.com/madialex/accounthub/internal/observability"
	"github.com/madialex/accounthub/internal/queue/redisclient"
)

type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)
}

type Config struct {
	PollTimeout   time.Duration // BRPOP block window per iteration
	ShutdownGrace time.Duration
	RetryBase     time.Duration // first retry delay, doubled per attempt
}

type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 2 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil
		default:
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error("dequeue error", "err", err)
			// brief pause so a dead redis doesn't spin the loop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		_ = processed
	}
}

// ProcessOne pops and executes a single job. Returns false when the
// queue was empty for the poll window.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	raw, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)

	if err != nil {
		if errors.Is(err, redisclient.ErrQueueEmpty) {
			return false, nil
		}
		return false, err
	}

	j, err := jobs.Decode(raw)

	if err != nil {
		// malformed payloads are dropped, never retried
		w.log.Error("dropping undecodable job", "err", err)
		return true, nil
	}

	w.observeJob(j, func() error {
		return w.executeWithRetry(ctx, j)
	})

	return true, nil
}

func (w *Worker) observeJob(j jobs.Job, fn func() error) {
	if w.prom == nil {
		_ = fn()
		return
	}

	w.prom.JobsInFlight.Inc()
	defer w.prom.JobsInFlight.Dec()

	start := time.Now()
	err := fn()

	result := "done"
	if err != nil {
		result = "failed"
	}

	w.prom.JobResults.WithLabelValues(string(j.Type), result).Inc()
	w.prom.JobDuration.WithLabelValues(string(j.Type), result).Observe(time.Since(start).Seconds())
}

func (w *Worker) executeWithRetry(ctx context.Context, j jobs.Job) error {
	err := w.execute(ctx, j)

	if err == nil {
		w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts+1)
		return nil
	}

	j.Attempts++

	if j.Attempts >= j.MaxAttempts {
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
		return err
	}

	delay := ExponentialBackoff(w.cfg.RetryBase, j.Attempts-1)
	w.log.Warn("job failed, retrying", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts, "delay", delay, "err", err)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// push it back so another worker picks it up after restart
	}

	raw, encErr := jobs.Encode(j)

	if encErr != nil {
		return encErr
	}

	if reqErr := w.queue.Enqueue(context.WithoutCancel(ctx), raw); reqErr != nil {
		w.log.Error("re-enqueue failed", "job_id", j.ID, "err", reqErr)
		return reqErr
	}

	return err
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.WelcomeEmailPayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			UserID: p.UserID,
			Email:  p.Email,
			Name:   p.Name,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}
