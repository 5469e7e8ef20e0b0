package handler

import (
	"paygateway/internal/core/ports"
	"paygateway/pkg/apperror"
	"paygateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// jobsQueues lists the queues reported by the status endpoint.
var jobsQueues = []string{
	ports.QueuePaymentProcessing,
	ports.QueueRefundProcessing,
	ports.QueueWebhookDelivery,
}

// JobsStatus handles GET /api/v1/test/jobs/status — an unauthenticated,
// operational view of queue depth, surfaced in the teacher's {data,
// request_id, timestamp} success envelope since it isn't itself a
// merchant-scoped resource.
func JobsStatus(queue ports.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := make(map[string]ports.QueueCounts, len(jobsQueues))
		for _, name := range jobsQueues {
			counts, err := queue.Counts(c.Request.Context(), name)
			if err != nil {
				response.Error(c, apperror.Internal(err))
				return
			}
			result[name] = counts
		}

		response.Status(c, gin.H{"queues": result})
	}
}
