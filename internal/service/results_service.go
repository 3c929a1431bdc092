package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
)

// ResultsService is the read side: stored analysis artifacts, independent of
// whether an engine is currently running.
type ResultsService interface {
	GetTags(ctx context.Context, subject models.Subject) ([]models.ContentTag, error)
	DeleteTag(ctx context.Context, tagID string) error
	GetSimilar(ctx context.Context, subject models.Subject, similarityType string) ([]models.SimilarityRecord, error)
	GetLatestAssessment(ctx context.Context, subject models.Subject) (*models.QualityAssessment, error)
	SearchAssessments(ctx context.Context, filters repository.AssessmentFilters, limit, offset int) ([]models.QualityAssessment, error)
	GetQuizzes(ctx context.Context, lessonID string) ([]models.QuizRecord, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	UpdateQuizReview(ctx context.Context, quizID, reviewStatus string) error
	GetScans(ctx context.Context, subject models.Subject) ([]models.PlagiarismScan, error)
}

type resultsService struct {
	tagRepo        repository.TagRepository
	similarityRepo repository.SimilarityRepository
	qualityRepo    repository.QualityRepository
	quizRepo       repository.QuizRepository
	plagiarismRepo repository.PlagiarismRepository
	logger         zerolog.Logger
}

func NewResultsService(
	tagRepo repository.TagRepository,
	similarityRepo repository.SimilarityRepository,
	qualityRepo repository.QualityRepository,
	quizRepo repository.QuizRepository,
	plagiarismRepo repository.PlagiarismRepository,
	logger zerolog.Logger,
) ResultsService {
	return &resultsService{
		tagRepo:        tagRepo,
		similarityRepo: similarityRepo,
		qualityRepo:    qualityRepo,
		quizRepo:       quizRepo,
		plagiarismRepo: plagiarismRepo,
		logger:         logger,
	}
}

func (s *resultsService) GetTags(ctx context.Context, subject models.Subject) ([]models.ContentTag, error) {
	tags, err := s.tagRepo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *resultsService) DeleteTag(ctx context.Context, tagID string) error {
	err := s.tagRepo.SoftDelete(ctx, tagID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tag %s: %w", tagID, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	s.logger.Info().Str("tag_id", tagID).Msg("Tag deleted")
	return nil
}

func (s *resultsService) GetSimilar(ctx context.Context, subject models.Subject, similarityType string) ([]models.SimilarityRecord, error) {
	if similarityType == "" {
		similarityType = models.DefaultSimilarityOptions().SimilarityType
	}

	records, err := s.similarityRepo.GetCalculated(ctx, subject, similarityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list similarity records: %w", err)
	}
	return records, nil
}

func (s *resultsService) GetLatestAssessment(ctx context.Context, subject models.Subject) (*models.QualityAssessment, error) {
	assessment, err := s.qualityRepo.GetLatest(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	if assessment == nil {
		return nil, fmt.Errorf("assessment for %s: %w", subject, engine.ErrNotFound)
	}
	return assessment, nil
}

func (s *resultsService) SearchAssessments(ctx context.Context, filters repository.AssessmentFilters, limit, offset int) ([]models.QualityAssessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	assessments, err := s.qualityRepo.Search(ctx, filters, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search assessments: %w", err)
	}
	return assessments, nil
}

func (s *resultsService) GetQuizzes(ctx context.Context, lessonID string) ([]models.QuizRecord, error) {
	quizzes, err := s.quizRepo.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *resultsService) DeleteQuiz(ctx context.Context, quizID string) error {
	err := s.quizRepo.SoftDelete(ctx, quizID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("quiz %s: %w", quizID, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info().Str("quiz_id", quizID).Msg("Quiz deleted")
	return nil
}

func (s *resultsService) UpdateQuizReview(ctx context.Context, quizID, reviewStatus string) error {
	switch reviewStatus {
	case models.QuizReviewPending, models.QuizReviewApproved, models.QuizReviewRejected:
	default:
		return engine.NewValidationError("unknown review status %q", reviewStatus)
	}

	err := s.quizRepo.UpdateReviewStatus(ctx, quizID, reviewStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("quiz %s: %w", quizID, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}

	s.logger.Info().Str("quiz_id", quizID).Str("review_status", reviewStatus).Msg("Quiz review updated")
	return nil
}

func (s *resultsService) GetScans(ctx context.Context, subject models.Subject) ([]models.PlagiarismScan, error) {
	scans, err := s.plagiarismRepo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}
