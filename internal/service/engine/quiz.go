package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
)

type QuizEngine struct {
	quizzes repository.QuizRepository
	content integration.ContentClient
	ai      integration.AIClient
	gate    freshness.Gate
	logger  zerolog.Logger
}

func NewQuizEngine(
	quizzes repository.QuizRepository,
	content integration.ContentClient,
	ai integration.AIClient,
	gate freshness.Gate,
	logger zerolog.Logger,
) *QuizEngine {
	return &QuizEngine{
		quizzes: quizzes,
		content: content,
		ai:      ai,
		gate:    gate,
		logger:  logger,
	}
}

// Analyze generates a quiz for a lesson. Courses are rejected: questions are
// built from a single lesson's text, not an aggregate.
func (e *QuizEngine) Analyze(ctx context.Context, subject models.Subject, opts models.QuizOptions, force bool) (*models.QuizResult, error) {
	if subject.ContentType != models.ContentTypeLesson {
		return nil, NewValidationError("quiz generation is only supported for lessons, got %q", subject.ContentType)
	}

	if opts.QuestionCount <= 0 {
		opts = models.DefaultQuizOptions()
	}

	content, err := resolveSubject(ctx, e.content, subject)
	if err != nil {
		return nil, err
	}

	existing, err := e.quizzes.GetLatestCompleted(ctx, subject.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing quizzes: %w", err)
	}

	if existing != nil && e.gate.Reusable(existing.Status, existing.GeneratedAt, force) {
		e.logger.Info().Str("subject", subject.String()).Str("quiz_id", existing.ID).Msg("Returning cached quiz")
		return &models.QuizResult{Subject: subject, Quiz: existing, Cached: true}, nil
	}

	quiz := &models.QuizRecord{
		ID:           uuid.New().String(),
		LessonID:     subject.ContentID,
		Title:        fmt.Sprintf("Quiz: %s", content.Title),
		Difficulty:   opts.DifficultyLevel,
		Status:       models.QuizStatusProcessing.String(),
		ReviewStatus: models.QuizReviewPending,
		CreatedAt:    time.Now(),
	}

	if err := e.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz record: %w", err)
	}

	resp, err := e.ai.GenerateQuiz(ctx, models.QuizGenerationRequest{
		Content: toAIContent(content),
		Requirements: models.QuizRequirements{
			QuestionCount:       opts.QuestionCount,
			DifficultyLevel:     opts.DifficultyLevel,
			QuestionTypes:       opts.QuestionTypes,
			TargetObjectives:    opts.TargetObjectives,
			IncludeExplanations: opts.IncludeExplanations,
			CustomPrompt:        opts.CustomPrompt,
			TimeLimit:           opts.TimeLimit,
		},
	})
	if err != nil {
		if updErr := e.quizzes.UpdateStatus(ctx, quiz.ID, models.QuizStatusFailed.String()); updErr != nil {
			e.logger.Error().Err(updErr).Str("quiz_id", quiz.ID).Msg("Failed to mark quiz failed")
		}
		return nil, &AIServiceError{Engine: models.EngineQuiz, Err: err}
	}

	questions, err := json.Marshal(resp.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quiz questions: %w", err)
	}

	generatedAt := time.Now()
	if err := e.quizzes.UpdateCompleted(ctx, quiz.ID, questions, len(resp.Questions), resp.ModelVersion, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to persist quiz: %w", err)
	}

	quiz.Questions = questions
	quiz.QuestionCount = len(resp.Questions)
	quiz.ModelVersion = resp.ModelVersion
	quiz.Status = models.QuizStatusCompleted.String()
	quiz.GeneratedAt = &generatedAt

	e.logger.Info().
		Str("subject", subject.String()).
		Str("quiz_id", quiz.ID).
		Int("questions", quiz.QuestionCount).
		Msg("Quiz generation completed")

	return &models.QuizResult{Subject: subject, Quiz: quiz}, nil
}
