package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// RedeliveryLockName guards the sweep so only one instance drains the queue.
const RedeliveryLockName = "redelivery-sweep"

// Redeliverer re-sends one confirmation email. *subscription.Service
// satisfies it.
type Redeliverer interface {
	Redeliver(ctx context.Context, job subscription.RedeliveryJob) error
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	Delivered int
	Requeued  int
	Dropped   int
	Skipped   int
	Locked    bool // another instance held the lock
}

// RedeliveryWorker periodically retries confirmation emails that failed
// during signup.
type RedeliveryWorker struct {
	queue       *RedisRetryQueue
	svc         Redeliverer
	lock        distlock.DistLock
	interval    time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
	log         *logger.Logger
}

// NewRedeliveryWorker creates a worker. lock should be shared by name
// across instances, e.g. distlock.NewLock(rdb, db, RedeliveryLockName, ttl).
func NewRedeliveryWorker(queue *RedisRetryQueue, svc Redeliverer, lock distlock.DistLock, cfg config.RedeliveryConfig, log *logger.Logger) *RedeliveryWorker {
	if log == nil {
		log = logger.Nop()
	}
	w := &RedeliveryWorker{
		queue:       queue,
		svc:         svc,
		lock:        lock,
		interval:    cfg.Interval(),
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
		log:         log.With("worker", "redelivery"),
	}
	if w.interval <= 0 {
		w.interval = time.Minute
	}
	if w.batchSize <= 0 {
		w.batchSize = 50
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = 5
	}
	return w
}

// Start sweeps every interval until ctx is cancelled.
func (w *RedeliveryWorker) Start(ctx context.Context) {
	w.log.Info("Redelivery worker started",
		"interval", w.interval.String(),
		"batch_size", w.batchSize,
		"max_attempts", w.maxAttempts,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Redelivery worker stopped")
			return
		case <-ticker.C:
			stats, err := w.RunOnce(ctx)
			if err != nil {
				w.log.Error("Redelivery sweep failed", "error", err.Error())
				continue
			}
			if stats.Delivered+stats.Requeued+stats.Dropped+stats.Skipped > 0 {
				w.log.Info("Redelivery sweep complete",
					"delivered", stats.Delivered,
					"requeued", stats.Requeued,
					"dropped", stats.Dropped,
					"skipped", stats.Skipped,
				)
			}
		}
	}
}

// RunOnce performs a single sweep under the distributed lock.
func (w *RedeliveryWorker) RunOnce(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	acquired, err := w.lock.Acquire(ctx)
	if err != nil {
		return stats, fmt.Errorf("acquire redelivery lock: %w", err)
	}
	if !acquired {
		stats.Locked = true
		return stats, nil
	}
	defer func() {
		if err := w.lock.Release(context.WithoutCancel(ctx)); err != nil {
			w.log.Warn("Failed to release redelivery lock", "error", err.Error())
		}
	}()

	jobs, skipped, err := w.queue.PopBatch(ctx, w.batchSize)
	stats.Skipped = skipped
	if err != nil && len(jobs) == 0 {
		return stats, err
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			// put back what we did not get to
			if perr := w.queue.Push(context.WithoutCancel(ctx), job); perr != nil {
				w.log.Error("Lost redelivery job on shutdown", "subscriber_id", job.SubscriberID.String())
			}
			continue
		}
		w.process(ctx, job, &stats)
	}
	return stats, nil
}

func (w *RedeliveryWorker) process(ctx context.Context, job subscription.RedeliveryJob, stats *SweepStats) {
	sendErr := w.svc.Redeliver(ctx, job)
	if sendErr == nil {
		stats.Delivered++
		return
	}

	job.Attempt++
	job.LastError = sendErr.Error()
	job.FailedAt = w.now().UTC()

	if job.Attempt >= w.maxAttempts {
		stats.Dropped++
		w.log.Error("Giving up on confirmation email",
			"subscriber_id", job.SubscriberID.String(),
			"attempts", job.Attempt,
			"error", job.LastError,
		)
		return
	}

	if err := w.queue.Push(ctx, job); err != nil {
		stats.Dropped++
		w.log.Error("Failed to requeue confirmation email",
			"subscriber_id", job.SubscriberID.String(),
			"error", err.Error(),
		)
		return
	}
	stats.Requeued++
}
