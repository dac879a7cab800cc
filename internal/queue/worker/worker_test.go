package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/madialex/accounthub/internal/jobs"
	"github.com/madialex/accounthub/internal/notifications"
	"github.com/madialex/accounthub/internal/queue/redisclient"
	"github.com/madialex/accounthub/internal/queue/worker"
)

type fakeQueue struct {
	mu    sync.Mutex
	items [][]byte
}

func (q *fakeQueue) Enqueue(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, payload)
	return nil
}

func (q *fakeQueue) Dequeue(_ context.Context, _ time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, redisclient.ErrQueueEmpty
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []notifications.SendWelcomeInput
	fails int // fail this many sends before succeeding
}

func (n *fakeNotifier) SendWelcome(_ context.Context, input notifications.SendWelcomeInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fails > 0 {
		n.fails--
		return errors.New("smtp unavailable")
	}

	n.sent = append(n.sent, input)
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newWorker(q *fakeQueue, n notifications.Notifier) *worker.Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := worker.Config{
		PollTimeout: 10 * time.Millisecond,
		RetryBase:   time.Millisecond,
	}

	return worker.New(cfg, q, n, log, nil)
}

func enqueueWelcome(t *testing.T, q *fakeQueue, email string, attempts, maxAttempts int) jobs.Job {
	t.Helper()

	payload, err := jobs.EncodePayload(jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{
		UserID: "u-1",
		Email:  email,
		Name:   "Alice",
	})
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	j, err := jobs.NewJob(jobs.JobWelcomeEmail, payload)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	j.Attempts = attempts
	j.MaxAttempts = maxAttempts

	raw, err := jobs.Encode(j)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if err := q.Enqueue(context.Background(), raw); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return j
}

func TestProcessOneDeliversWelcome(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{}
	w := newWorker(q, n)

	enqueueWelcome(t, q, "alice@x.com", 0, 5)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	if !processed {
		t.Fatalf("expected a processed job")
	}

	if n.sentCount() != 1 {
		t.Fatalf("sent %d welcomes, want 1", n.sentCount())
	}
	if n.sent[0].Email != "alice@x.com" {
		t.Fatalf("welcome sent to %q", n.sent[0].Email)
	}
}

func TestProcessOneEmptyQueue(t *testing.T) {
	q := &fakeQueue{}
	w := newWorker(q, &fakeNotifier{})

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("empty queue must not error: %v", err)
	}
	if processed {
		t.Fatalf("nothing to process, got processed=true")
	}
}

func TestProcessOneDropsUndecodableJob(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{}
	w := newWorker(q, n)

	if err := q.Enqueue(context.Background(), []byte("not a job")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	if !processed {
		t.Fatalf("malformed job should count as processed")
	}

	if q.len() != 0 {
		t.Fatalf("malformed job must not be re-enqueued")
	}
	if n.sentCount() != 0 {
		t.Fatalf("nothing should have been sent")
	}
}

func TestFailedJobIsReEnqueuedWithBumpedAttempts(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{fails: 1}
	w := newWorker(q, n)

	original := enqueueWelcome(t, q, "alice@x.com", 0, 5)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}

	if q.len() != 1 {
		t.Fatalf("failed job not re-enqueued, queue has %d items", q.len())
	}

	raw, err := q.Dequeue(context.Background(), 0)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	retried, err := jobs.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if retried.ID != original.ID {
		t.Fatalf("retried job has a different id")
	}
	if retried.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", retried.Attempts)
	}
}

func TestExhaustedJobIsNotReEnqueued(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{fails: 10}
	w := newWorker(q, n)

	// one attempt left
	enqueueWelcome(t, q, "alice@x.com", 4, 5)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}

	if q.len() != 0 {
		t.Fatalf("exhausted job must be dropped, queue has %d items", q.len())
	}
}

func TestRetrySucceedsOnSecondDelivery(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{fails: 1}
	w := newWorker(q, n)

	enqueueWelcome(t, q, "alice@x.com", 0, 5)

	ctx := context.Background()

	// first pass fails and re-enqueues, second pass delivers
	for i := 0; i < 2; i++ {
		if _, err := w.ProcessOne(ctx); err != nil {
			t.Fatalf("pass %d failed: %v", i+1, err)
		}
	}

	if n.sentCount() != 1 {
		t.Fatalf("sent %d welcomes, want 1", n.sentCount())
	}
	if q.len() != 0 {
		t.Fatalf("queue should be drained, has %d items", q.len())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	w := newWorker(q, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
