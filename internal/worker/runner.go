// Package worker runs the background job consumers: payment processing,
// refund processing, webhook delivery, and the pending-job reconciliation
// sweeper.
package worker

import (
	"context"
	"time"

	"paygateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// pullTimeout bounds each blocking PullAndLease call so the consumer loop
// can observe ctx cancellation promptly.
const pullTimeout = 5 * time.Second

// Handler processes a single job's payload. An error causes the queue's
// retry policy to run; nil acknowledges the job as complete.
type Handler func(ctx context.Context, payload []byte) error

// Consume runs a single-goroutine pull-process-ack loop against queueName
// until ctx is cancelled. Grounded on the pack's ticker/poll-loop idiom for
// background job consumers.
func Consume(ctx context.Context, queue ports.Queue, queueName string, handle Handler, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, lease, err := queue.PullAndLease(ctx, queueName, pullTimeout)
		if err != nil {
			log.Error().Err(err).Str("queue", queueName).Msg("pull-and-lease failed")
			continue
		}
		if job == nil {
			continue
		}

		if err := handle(ctx, job.Payload); err != nil {
			log.Error().Err(err).Str("queue", queueName).Str("job_id", job.ID).Int("attempt", job.Attempt).Msg("job handler failed")
			if failErr := queue.Fail(ctx, queueName, lease); failErr != nil {
				log.Error().Err(failErr).Str("queue", queueName).Str("job_id", job.ID).Msg("failed to mark job failed")
			}
			continue
		}

		if err := queue.Complete(ctx, queueName, lease); err != nil {
			log.Error().Err(err).Str("queue", queueName).Str("job_id", job.ID).Msg("failed to mark job complete")
		}
	}
}
