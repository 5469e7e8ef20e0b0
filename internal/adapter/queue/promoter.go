package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StartPromoter runs a ticker loop that promotes due delayed jobs to ready
// for every queue in queues, until ctx is cancelled. Ground: the pack's
// RetryWorker.Start ticker-loop idiom.
func (q *RedisQueue) StartPromoter(ctx context.Context, interval time.Duration, log zerolog.Logger, queues ...string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range queues {
				if err := q.PromoteDue(ctx, name); err != nil {
					log.Error().Err(err).Str("queue", name).Msg("promote delayed jobs failed")
				}
			}
		}
	}
}
