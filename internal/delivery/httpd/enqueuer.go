package httpd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker/queue"
)

// JobEnqueuer publishes analysis jobs for the async endpoints.
type JobEnqueuer struct {
	publisher queue.RabbitMQPublisher
	exchange  string
}

func NewJobEnqueuer(publisher queue.RabbitMQPublisher, exchange string) *JobEnqueuer {
	return &JobEnqueuer{publisher: publisher, exchange: exchange}
}

func (e *JobEnqueuer) EnqueueEngine(ctx context.Context, job models.EngineJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal engine job: %w", err)
	}
	return e.publisher.Publish(ctx, e.exchange, repository.QueueForEngine(job.Engine), models.JobTypeEngine, body)
}

func (e *JobEnqueuer) EnqueueComprehensive(ctx context.Context, job models.ComprehensiveJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal comprehensive job: %w", err)
	}
	return e.publisher.Publish(ctx, e.exchange, repository.QueueForEngine(repository.QueueComprehensive), models.JobTypeComprehensive, body)
}

func (e *JobEnqueuer) EnqueueBulk(ctx context.Context, job models.BulkJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal bulk job: %w", err)
	}
	return e.publisher.Publish(ctx, e.exchange, repository.QueueForEngine(repository.QueueComprehensive), models.JobTypeBulk, body)
}
