package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sehyun-dev/taxlink/internal/jobs"
	"github.com/sehyun-dev/taxlink/internal/notifications"
	"github.com/sehyun-dev/taxlink/internal/observability"
	"github.com/sehyun-dev/taxlink/internal/queue/redisclient"
)

// Queue is the slice of the redis client the worker needs.
type Queue interface {
	Enqueue(ctx context.Context, j jobs.DeliveryJob) error
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.DeliveryJob, error)
}

type Config struct {
	WorkerID      string
	Concurrency   int
	DequeueWait   time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = 2 * time.Second
	}

	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight
// deliveries up to the shutdown grace period.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	<-ctx.Done()
	w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("worker shutdown complete", "worker_id", w.cfg.WorkerID)
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		return errors.New("worker shutdown grace period exceeded")
	}
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		j, err := w.queue.Dequeue(ctx, w.cfg.DequeueWait)

		if err != nil {
			if errors.Is(err, redisclient.ErrEmpty) || errors.Is(err, context.Canceled) {
				continue
			}

			w.log.Error("dequeue failed", "err", err)

			// don't hot-loop a broken connection
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		w.ProcessOne(ctx, j)
	}
}

// ProcessOne delivers a single job, re-enqueueing on failure until the
// job runs out of tries.
func (w *Worker) ProcessOne(ctx context.Context, j jobs.DeliveryJob) {
	start := time.Now()
	category := string(j.Category)

	if w.prom != nil {
		w.prom.DeliveriesInFlight.Inc()
		defer w.prom.DeliveriesInFlight.Dec()
	}

	err := w.notifier.Send(ctx, notifications.SendInput{
		RecipientID: j.RecipientID,
		Category:    j.Category,
		Message:     j.Message,
	})

	result := "done"

	if err != nil {
		j.Attempts++

		if j.Attempts >= j.MaxTries {
			result = "failed"
			w.log.Error("delivery failed permanently",
				"notification_id", j.NotificationID, "attempts", j.Attempts, "err", err)
		} else {
			result = "retry"
			w.retryLater(ctx, j, err)
		}
	}

	if w.prom != nil {
		w.prom.DeliveryResults.WithLabelValues(category, result).Inc()
		w.prom.DeliveryDuration.WithLabelValues(category, result).Observe(time.Since(start).Seconds())
	}
}

func (w *Worker) retryLater(ctx context.Context, j jobs.DeliveryJob, cause error) {
	delay := ExponentialBackoff(j.Attempts - 1)

	w.log.Warn("delivery failed, retrying",
		"notification_id", j.NotificationID, "attempts", j.Attempts, "delay", delay, "err", cause)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// push back without waiting so the job isn't lost on shutdown
	}

	if err := w.queue.Enqueue(context.WithoutCancel(ctx), j); err != nil {
		w.log.Error("re-enqueue failed, delivery lost", "notification_id", j.NotificationID, "err", err)
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
