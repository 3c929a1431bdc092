package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/coordinator"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker/queue"
)

type AnalysisWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	RetriedJobs    int `json:"retried_jobs"`
	QueueLength    int `json:"queue_length"`
}

type analysisWorker struct {
	workerPool  *WorkerPool
	consumers   map[string]queue.RabbitMQConsumer
	publisher   queue.RabbitMQPublisher
	coordinator *coordinator.Coordinator
	policies    map[string]queue.Policy
	exchange    string
	logger      zerolog.Logger
	stats       WorkerStats
	statsMutex  sync.RWMutex
	startTime   time.Time
}

func NewAnalysisWorker(
	workerPool *WorkerPool,
	consumers map[string]queue.RabbitMQConsumer,
	publisher queue.RabbitMQPublisher,
	coord *coordinator.Coordinator,
	policies map[string]queue.Policy,
	exchange string,
	logger zerolog.Logger,
) AnalysisWorker {
	return &analysisWorker{
		workerPool:  workerPool,
		consumers:   consumers,
		publisher:   publisher,
		coordinator: coord,
		policies:    policies,
		exchange:    exchange,
		logger:      logger,
		startTime:   time.Now(),
	}
}

func (w *analysisWorker) Start(ctx context.Context) error {
	w.logger.Info().Int("queues", len(w.consumers)).Msg("Starting analysis worker...")

	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	for queueName, consumer := range w.consumers {
		msgs, err := consumer.Consume(ctx)
		if err != nil {
			return fmt.Errorf("failed to consume queue %s: %w", queueName, err)
		}
		go w.processMessages(ctx, msgs)
	}

	w.logger.Info().Msg("Analysis worker started successfully")
	return nil
}

func (w *analysisWorker) Stop() error {
	w.logger.Info().Msg("Stopping analysis worker...")

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	for queueName, consumer := range w.consumers {
		if err := consumer.Close(); err != nil {
			w.logger.Error().Err(err).Str("queue", queueName).Msg("Failed to close consumer")
		}
	}

	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	w.logger.Info().
		Int("total_processed", w.stats.TotalProcessed).
		Int("failed_jobs", w.stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Analysis worker stopped")

	return nil
}

func (w *analysisWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			w.workerPool.Submit(func() {
				w.handleMessage(ctx, msg)
			})
		}
	}
}

// handleMessage runs one job and decides its fate: ack on success, ack and
// drop on permanent errors, ack and republish with backoff on retryable ones.
func (w *analysisWorker) handleMessage(ctx context.Context, msg queue.RabbitMQMessage) {
	err := w.dispatch(ctx, msg)

	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Str("queue", msg.Queue).Msg("Failed to ack message")
		}
		w.statsMutex.Lock()
		w.stats.TotalProcessed++
		w.statsMutex.Unlock()
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		w.logger.Error().Err(ackErr).Str("queue", msg.Queue).Msg("Failed to ack failed message")
	}

	if !engine.IsRetryable(err) {
		w.logger.Error().Err(err).
			Str("queue", msg.Queue).
			Int("attempt", msg.Attempt).
			Msg("Job failed permanently")
		w.recordFailure()
		return
	}

	policy := w.policies[msg.Queue]
	if policy.Exhausted(msg.Attempt) {
		w.logger.Error().Err(err).
			Str("queue", msg.Queue).
			Int("attempt", msg.Attempt).
			Int("max_attempts", policy.MaxAttempts).
			Msg("Job failed, retry budget exhausted")
		w.recordFailure()
		return
	}

	delay := policy.Delay(msg.Attempt)
	if pubErr := w.publisher.PublishWithDelay(ctx, w.exchange, msg.Queue, msg.Type, msg.Body, msg.Attempt+1, delay); pubErr != nil {
		w.logger.Error().Err(pubErr).Str("queue", msg.Queue).Msg("Failed to republish job for retry")
		w.recordFailure()
		return
	}

	w.logger.Warn().Err(err).
		Str("queue", msg.Queue).
		Int("next_attempt", msg.Attempt+1).
		Dur("delay", delay).
		Msg("Job scheduled for retry")

	w.statsMutex.Lock()
	w.stats.RetriedJobs++
	w.statsMutex.Unlock()
}

func (w *analysisWorker) dispatch(ctx context.Context, msg queue.RabbitMQMessage) error {
	if msg.Queue == repository.QueueForEngine(repository.QueueComprehensive) {
		switch msg.Type {
		case models.JobTypeBulk:
			return w.handleBulk(ctx, msg.Body)
		default:
			return w.handleComprehensive(ctx, msg.Body)
		}
	}

	return w.handleEngine(ctx, msg.Body)
}

func (w *analysisWorker) handleEngine(ctx context.Context, body []byte) error {
	var job models.EngineJob
	if err := json.Unmarshal(body, &job); err != nil {
		return engine.NewValidationError("malformed engine job: %v", err)
	}

	subject := models.Subject{ContentType: job.ContentType, ContentID: job.ContentID}
	artifacts, err := w.coordinator.RunEngine(ctx, job.Engine, subject, job.Options, job.Force)
	if err != nil {
		return err
	}

	w.logger.Info().
		Str("engine", job.Engine).
		Str("subject", subject.String()).
		Int("artifacts", artifacts).
		Msg("Engine job completed")
	return nil
}

func (w *analysisWorker) handleComprehensive(ctx context.Context, body []byte) error {
	var job models.ComprehensiveJob
	if err := json.Unmarshal(body, &job); err != nil {
		return engine.NewValidationError("malformed comprehensive job: %v", err)
	}

	subject := models.Subject{ContentType: job.ContentType, ContentID: job.ContentID}
	result, err := w.coordinator.Comprehensive(ctx, subject, job.Options, job.Force, func(percent int, stage string) {
		w.logger.Debug().Str("subject", subject.String()).Int("progress", percent).Str("stage", stage).Msg("Comprehensive progress")
	})
	if err != nil {
		return err
	}

	// Partial engine failures stay inside the result; the job itself only
	// retries when it produced nothing and at least one failure is retryable.
	// A subject missing everywhere (ErrNotFound) stays terminal.
	if retryWorthy(result) {
		return &engine.AIServiceError{
			Engine: "comprehensive",
			Err:    fmt.Errorf("all engines failed for %s", subject),
		}
	}

	w.logger.Info().
		Str("subject", subject.String()).
		Int("errors", len(result.Errors)).
		Msg("Comprehensive job completed")
	return nil
}

func (w *analysisWorker) handleBulk(ctx context.Context, body []byte) error {
	var job models.BulkJob
	if err := json.Unmarshal(body, &job); err != nil {
		return engine.NewValidationError("malformed bulk job: %v", err)
	}

	result, err := w.coordinator.Bulk(ctx, job.Engine, job.ContentType, job.ContentIDs, job.Options, job.Force, nil)
	if err != nil {
		return err
	}

	w.logger.Info().
		Str("engine", job.Engine).
		Int("successful", result.Summary.Successful).
		Int("failed", result.Summary.Failed).
		Msg("Bulk job completed")
	return nil
}

func retryWorthy(result *models.ComprehensiveResult) bool {
	if len(result.Errors) == 0 {
		return false
	}

	res := result.Results
	if res.Tags != nil || res.Quality != nil || res.Plagiarism != nil ||
		res.Quiz != nil || res.SimilarContent != nil {
		return false
	}

	for _, engineErr := range result.Errors {
		if engineErr.Retryable {
			return true
		}
	}
	return false
}

func (w *analysisWorker) recordFailure() {
	w.statsMutex.Lock()
	w.stats.FailedJobs++
	w.statsMutex.Unlock()
}

func (w *analysisWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	stats := w.stats
	w.statsMutex.RUnlock()

	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()
	stats.QueueLength = w.workerPool.GetQueueLength()
	return stats
}
