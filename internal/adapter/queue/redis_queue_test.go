package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *RedisQueue {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewRedisQueue(client, DefaultRetryPolicy)
}

func TestEnqueue_PullAndLease_Complete(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "payment-processing", []byte(`{"payment_id":"pay_1"}`), 0))

	job, lease, err := q.PullAndLease(ctx, "payment-processing", time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, []byte(`{"payment_id":"pay_1"}`), job.Payload)
	assert.Equal(t, 1, job.Attempt)

	require.NoError(t, q.Complete(ctx, "payment-processing", lease))

	counts, err := q.Counts(ctx, "payment-processing")
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts.Waiting)
	assert.EqualValues(t, 0, counts.Active)
	assert.EqualValues(t, 1, counts.Completed)
}

func TestPullAndLease_TimesOutWhenEmpty(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, lease, err := q.PullAndLease(ctx, "payment-processing", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Empty(t, lease)
}

func TestEnqueue_WithDelay_NotImmediatelyVisible(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "webhook-delivery", []byte(`{}`), time.Hour))

	job, _, err := q.PullAndLease(ctx, "webhook-delivery", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job, "delayed job should not be visible before its due time")

	counts, err := q.Counts(ctx, "webhook-delivery")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Waiting)
}

func TestFail_RequeuesUntilMaxAttemptsThenDeadLetters(t *testing.T) {
	q := NewRedisQueue(goredis.NewClient(&goredis.Options{Addr: miniredis.RunT(t).Addr()}), RetryPolicy{
		MaxAttempts: 2,
		Backoff:     []time.Duration{0, 0},
	})
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "refund-processing", []byte(`{}`), 0))

	_, lease1, err := q.PullAndLease(ctx, "refund-processing", time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, "refund-processing", lease1))

	counts, err := q.Counts(ctx, "refund-processing")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Waiting, "first failure should be requeued, not dead-lettered")

	_, lease2, err := q.PullAndLease(ctx, "refund-processing", time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, "refund-processing", lease2))

	counts, err = q.Counts(ctx, "refund-processing")
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts.Waiting)
	assert.EqualValues(t, 1, counts.Failed, "second failure should dead-letter at MaxAttempts")
}

func TestPromoteDue_MovesDelayedJobsAfterDeadline(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "webhook-delivery", []byte(`{}`), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, q.PromoteDue(ctx, "webhook-delivery"))

	job, _, err := q.PullAndLease(ctx, "webhook-delivery", 50*time.Millisecond)
	require.NoError(t, err)
	assert.NotNil(t, job)
}
