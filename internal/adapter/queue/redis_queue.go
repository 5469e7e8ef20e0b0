// Package queue implements a durable, Redis-backed job queue: a LIST of
// ready job ids, a ZSET of delayed job ids scored by due-unix-millis, and
// HASHes tracking job bodies, in-flight leases, and dead-lettered jobs.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paygateway/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RetryPolicy controls how many times Fail() re-queues a job before it is
// dead-lettered, and the backoff before each retry becomes visible.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// DefaultRetryPolicy implements spec's payment-processing/refund-processing
// policy: 3 attempts, exponential backoff starting at 1s (1s, 2s, 4s).
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Backoff:     []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
}

// RedisQueue implements ports.Queue over a *redis.Client, following the
// same thin-typed-wrapper idiom used elsewhere for IdempotencyCache and
// RateLimitStore.
type RedisQueue struct {
	client *goredis.Client
	policy RetryPolicy
}

// NewRedisQueue creates a RedisQueue using policy for every named queue.
func NewRedisQueue(client *goredis.Client, policy RetryPolicy) *RedisQueue {
	return &RedisQueue{client: client, policy: policy}
}

type jobRecord struct {
	Payload []byte `json:"payload"`
	Attempt int    `json:"attempt"`
}

func readyKey(queue string) string     { return "queue:" + queue + ":ready" }
func delayedKey(queue string) string   { return "queue:" + queue + ":delayed" }
func jobsKey(queue string) string      { return "queue:" + queue + ":jobs" }
func activeKey(queue string) string    { return "queue:" + queue + ":active" }
func deadKey(queue string) string      { return "queue:" + queue + ":dead" }
func completedKey(queue string) string { return "queue:" + queue + ":completed" }

// Enqueue appends a job to queue, visible immediately or after delay.
func (q *RedisQueue) Enqueue(ctx context.Context, queue string, payload []byte, delay time.Duration) error {
	jobID := uuid.New().String()
	rec := jobRecord{Payload: payload, Attempt: 0}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	if err := q.client.HSet(ctx, jobsKey(queue), jobID, data).Err(); err != nil {
		return fmt.Errorf("store job body: %w", err)
	}

	if delay <= 0 {
		if err := q.client.RPush(ctx, readyKey(queue), jobID).Err(); err != nil {
			return fmt.Errorf("push ready job: %w", err)
		}
		return nil
	}

	due := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, delayedKey(queue), goredis.Z{Score: due, Member: jobID}).Err(); err != nil {
		return fmt.Errorf("schedule delayed job: %w", err)
	}
	return nil
}

// PromoteDue moves delayed jobs whose due time has passed onto the ready
// list. Called by a ticker loop (ground: the pack's RetryWorker.Start) and
// opportunistically before every pull.
func (q *RedisQueue) PromoteDue(ctx context.Context, queue string) error {
	nowMs := float64(time.Now().UnixMilli())
	ids, err := q.client.ZRangeByScore(ctx, delayedKey(queue), &goredis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%f", nowMs),
	}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed jobs: %w", err)
	}
	for _, id := range ids {
		if err := q.client.ZRem(ctx, delayedKey(queue), id).Err(); err != nil {
			continue
		}
		if err := q.client.RPush(ctx, readyKey(queue), id).Err(); err != nil {
			return fmt.Errorf("promote delayed job: %w", err)
		}
	}
	return nil
}

// PullAndLease blocks up to timeout for a ready job and leases it.
func (q *RedisQueue) PullAndLease(ctx context.Context, queue string, timeout time.Duration) (*ports.Job, ports.LeaseToken, error) {
	if err := q.PromoteDue(ctx, queue); err != nil {
		return nil, "", err
	}

	result, err := q.client.BLPop(ctx, timeout, readyKey(queue)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("pull ready job: %w", err)
	}
	jobID := result[1]

	raw, err := q.client.HGet(ctx, jobsKey(queue), jobID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			// Job body vanished (e.g. completed twice); nothing to lease.
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("load job body: %w", err)
	}

	var rec jobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, "", fmt.Errorf("unmarshal job record: %w", err)
	}
	rec.Attempt++

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, "", fmt.Errorf("marshal job record: %w", err)
	}
	if err := q.client.HSet(ctx, jobsKey(queue), jobID, data).Err(); err != nil {
		return nil, "", fmt.Errorf("persist attempt count: %w", err)
	}

	lease := ports.LeaseToken(uuid.New().String())
	if err := q.client.HSet(ctx, activeKey(queue), string(lease), jobID).Err(); err != nil {
		return nil, "", fmt.Errorf("register lease: %w", err)
	}

	return &ports.Job{ID: jobID, Queue: queue, Payload: rec.Payload, Attempt: rec.Attempt}, lease, nil
}

// Complete acknowledges successful processing.
func (q *RedisQueue) Complete(ctx context.Context, queue string, lease ports.LeaseToken) error {
	jobID, err := q.client.HGet(ctx, activeKey(queue), string(lease)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil
		}
		return fmt.Errorf("resolve lease: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, activeKey(queue), string(lease))
	pipe.HDel(ctx, jobsKey(queue), jobID)
	pipe.Incr(ctx, completedKey(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail returns the job to the retry policy, or dead-letters it once the
// policy's attempt ceiling is reached.
func (q *RedisQueue) Fail(ctx context.Context, queue string, lease ports.LeaseToken) error {
	jobID, err := q.client.HGet(ctx, activeKey(queue), string(lease)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil
		}
		return fmt.Errorf("resolve lease: %w", err)
	}
	if err := q.client.HDel(ctx, activeKey(queue), string(lease)).Err(); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}

	raw, err := q.client.HGet(ctx, jobsKey(queue), jobID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil
		}
		return fmt.Errorf("load job body: %w", err)
	}
	var rec jobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("unmarshal job record: %w", err)
	}

	if rec.Attempt >= q.policy.MaxAttempts {
		pipe := q.client.TxPipeline()
		pipe.HSet(ctx, deadKey(queue), jobID, raw)
		pipe.HDel(ctx, jobsKey(queue), jobID)
		_, err := pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("dead-letter job: %w", err)
		}
		return nil
	}

	idx := rec.Attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(q.policy.Backoff) {
		idx = len(q.policy.Backoff) - 1
	}
	due := float64(time.Now().Add(q.policy.Backoff[idx]).UnixMilli())
	if err := q.client.ZAdd(ctx, delayedKey(queue), goredis.Z{Score: due, Member: jobID}).Err(); err != nil {
		return fmt.Errorf("reschedule failed job: %w", err)
	}
	return nil
}

// Counts reports waiting/active/completed/failed counts for queue.
func (q *RedisQueue) Counts(ctx context.Context, queue string) (ports.QueueCounts, error) {
	waitingReady, err := q.client.LLen(ctx, readyKey(queue)).Result()
	if err != nil {
		return ports.QueueCounts{}, fmt.Errorf("count ready: %w", err)
	}
	waitingDelayed, err := q.client.ZCard(ctx, delayedKey(queue)).Result()
	if err != nil {
		return ports.QueueCounts{}, fmt.Errorf("count delayed: %w", err)
	}
	active, err := q.client.HLen(ctx, activeKey(queue)).Result()
	if err != nil {
		return ports.QueueCounts{}, fmt.Errorf("count active: %w", err)
	}
	failed, err := q.client.HLen(ctx, deadKey(queue)).Result()
	if err != nil {
		return ports.QueueCounts{}, fmt.Errorf("count dead: %w", err)
	}
	completed, err := q.client.Get(ctx, completedKey(queue)).Int64()
	if err != nil && err != goredis.Nil {
		return ports.QueueCounts{}, fmt.Errorf("count completed: %w", err)
	}

	return ports.QueueCounts{
		Waiting:   waitingReady + waitingDelayed,
		Active:    active,
		Completed: completed,
		Failed:    failed,
	}, nil
}
