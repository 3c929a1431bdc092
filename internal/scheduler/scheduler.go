// Package scheduler runs the periodic maintenance jobs: re-enqueueing failed
// analyses and expiring similarity records that fell out of the freshness
// window.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker/queue"
)

type Scheduler struct {
	cron            *cron.Cron
	publisher       queue.RabbitMQPublisher
	plagiarismRepo  repository.PlagiarismRepository
	qualityRepo     repository.QualityRepository
	similarityRepo  repository.SimilarityRepository
	exchange        string
	retryLimit      int
	freshnessWindow time.Duration
	logger          zerolog.Logger
}

func NewScheduler(
	publisher queue.RabbitMQPublisher,
	plagiarismRepo repository.PlagiarismRepository,
	qualityRepo repository.QualityRepository,
	similarityRepo repository.SimilarityRepository,
	exchange string,
	retryCronSpec string,
	retryLimit int,
	freshnessWindow time.Duration,
	logger zerolog.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:            cron.New(cron.WithSeconds()),
		publisher:       publisher,
		plagiarismRepo:  plagiarismRepo,
		qualityRepo:     qualityRepo,
		similarityRepo:  similarityRepo,
		exchange:        exchange,
		retryLimit:      retryLimit,
		freshnessWindow: freshnessWindow,
		logger:          logger,
	}

	if _, err := s.cron.AddFunc(retryCronSpec, s.runMaintenance); err != nil {
		return nil, fmt.Errorf("invalid retry cron spec %q: %w", retryCronSpec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Scheduler stopped")
	case <-time.After(10 * time.Second):
		s.logger.Warn().Msg("Scheduler stop timed out, jobs may still be running")
	}
}

func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.requeueFailedScans(ctx)
	s.requeueFailedAssessments(ctx)
	s.expireSimilarityRecords(ctx)
}

func (s *Scheduler) requeueFailedScans(ctx context.Context) {
	scans, err := s.plagiarismRepo.ListByStatus(ctx, models.ScanStatusFailed.String(), s.retryLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list failed scans")
		return
	}

	for _, scan := range scans {
		job := models.EngineJob{
			Engine:      models.EnginePlagiarism,
			ContentType: scan.ContentType,
			ContentID:   scan.ContentID,
		}
		if err := s.publishEngineJob(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("content_id", scan.ContentID).Msg("Failed to requeue scan")
			continue
		}
	}

	if len(scans) > 0 {
		s.logger.Info().Int("count", len(scans)).Msg("Requeued failed plagiarism scans")
	}
}

func (s *Scheduler) requeueFailedAssessments(ctx context.Context) {
	assessments, err := s.qualityRepo.ListByStatus(ctx, models.AssessmentStatusFailed.String(), s.retryLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list failed assessments")
		return
	}

	for _, assessment := range assessments {
		job := models.EngineJob{
			Engine:      models.EngineQuality,
			ContentType: assessment.ContentType,
			ContentID:   assessment.ContentID,
		}
		if err := s.publishEngineJob(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("content_id", assessment.ContentID).Msg("Failed to requeue assessment")
			continue
		}
	}

	if len(assessments) > 0 {
		s.logger.Info().Int("count", len(assessments)).Msg("Requeued failed quality assessments")
	}
}

// expireSimilarityRecords marks calculated edges older than the freshness
// window as outdated so the next request recalculates them.
func (s *Scheduler) expireSimilarityRecords(ctx context.Context) {
	cutoff := time.Now().Add(-s.freshnessWindow)

	marked, err := s.similarityRepo.MarkOutdated(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark outdated similarity records")
		return
	}

	if marked > 0 {
		s.logger.Info().Int64("count", marked).Msg("Marked stale similarity records as outdated")
	}
}

func (s *Scheduler) publishEngineJob(ctx context.Context, job models.EngineJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.exchange, repository.QueueForEngine(job.Engine), models.JobTypeEngine, body)
}
