package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/newsletter/internal/service/subscription"
)

// RedeliveryQueueKey is the Redis list holding undelivered confirmations.
const RedeliveryQueueKey = "newsletter:confirmation:redelivery"

// RedisRetryQueue is a FIFO of redelivery jobs stored as JSON in a Redis
// list. Jobs are pushed on the left and popped from the right.
type RedisRetryQueue struct {
	client *redis.Client
	key    string
}

// NewRedisRetryQueue creates a queue on RedeliveryQueueKey.
func NewRedisRetryQueue(client *redis.Client) *RedisRetryQueue {
	return &RedisRetryQueue{client: client, key: RedeliveryQueueKey}
}

// RecordFailedDelivery implements subscription.FailedDeliveryRecorder.
func (q *RedisRetryQueue) RecordFailedDelivery(ctx context.Context, job subscription.RedeliveryJob) error {
	return q.Push(ctx, job)
}

// Push appends job to the queue.
func (q *RedisRetryQueue) Push(ctx context.Context, job subscription.RedeliveryJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode redelivery job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("push redelivery job: %w", err)
	}
	return nil
}

// PopBatch removes up to n jobs from the head of the queue. Entries that do
// not decode are discarded and counted in skipped.
func (q *RedisRetryQueue) PopBatch(ctx context.Context, n int) (jobs []subscription.RedeliveryJob, skipped int, err error) {
	for len(jobs) < n {
		raw, err := q.client.RPop(ctx, q.key).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return jobs, skipped, fmt.Errorf("pop redelivery job: %w", err)
		}

		var job subscription.RedeliveryJob
		if err := json.Unmarshal(raw, &job); err != nil {
			skipped++
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, skipped, nil
}

// Len returns the number of queued jobs.
func (q *RedisRetryQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
