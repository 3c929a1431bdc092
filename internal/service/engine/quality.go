package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
)

const (
	QualitySourceAI        = "ai"
	QualitySourceHeuristic = "heuristic_fallback"
)

type QualityEngine struct {
	assessments repository.QualityRepository
	content     integration.ContentClient
	ai          integration.AIClient
	gate        freshness.Gate
	logger      zerolog.Logger
}

func NewQualityEngine(
	assessments repository.QualityRepository,
	content integration.ContentClient,
	ai integration.AIClient,
	gate freshness.Gate,
	logger zerolog.Logger,
) *QualityEngine {
	return &QualityEngine{
		assessments: assessments,
		content:     content,
		ai:          ai,
		gate:        gate,
		logger:      logger,
	}
}

func (e *QualityEngine) Analyze(ctx context.Context, subject models.Subject, opts models.QualityOptions, force bool) (*models.QualityResult, error) {
	content, err := resolveSubject(ctx, e.content, subject)
	if err != nil {
		return nil, err
	}

	existing, err := e.assessments.GetLatest(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to check latest assessment: %w", err)
	}

	if existing != nil && e.gate.Reusable(existing.Status, existing.AssessedAt, force) {
		e.logger.Info().Str("subject", subject.String()).Msg("Returning cached quality assessment")
		return &models.QualityResult{Subject: subject, Assessment: existing, Cached: true}, nil
	}

	now := time.Now()
	assessment := &models.QualityAssessment{
		ID:          uuid.New().String(),
		ContentType: subject.ContentType,
		ContentID:   subject.ContentID,
		Source:      QualitySourceAI,
		IsLatest:    true,
		Status:      models.AssessmentStatusProcessing.String(),
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Flips the previous latest record in the same transaction.
	if err := e.assessments.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment record: %w", err)
	}

	resp, err := e.ai.AssessQuality(ctx, models.QualityAssessmentRequest{
		Content: toAIContent(content),
		AssessmentCriteria: models.AssessmentCriteria{
			Dimensions:           opts.Dimensions,
			IncludeReadability:   opts.IncludeReadability,
			IncludeAccessibility: opts.IncludeAccessibility,
			IncludeEngagement:    opts.IncludeEngagement,
			DetailedAnalysis:     opts.DetailedAnalysis,
			GenerateImprovements: opts.GenerateImprovements,
		},
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("subject", subject.String()).Msg("AI quality assessment failed, using length heuristic")
		return e.fallback(ctx, assessment, content)
	}

	dimensionScores, err := json.Marshal(resp.DimensionScores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dimension scores: %w", err)
	}
	improvements, err := json.Marshal(resp.Improvements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal improvements: %w", err)
	}

	assessedAt := time.Now()
	level := models.QualityLevelForScore(resp.OverallScore)

	if err := e.assessments.UpdateCompleted(ctx, assessment.ID, resp.OverallScore, dimensionScores, string(level), resp.Analysis, QualitySourceAI, improvements, assessedAt); err != nil {
		return nil, fmt.Errorf("failed to persist assessment: %w", err)
	}

	score := resp.OverallScore
	assessment.OverallScore = &score
	assessment.DimensionScores = dimensionScores
	assessment.QualityLevel = string(level)
	assessment.Analysis = resp.Analysis
	assessment.Improvements = improvements
	assessment.Status = models.AssessmentStatusCompleted.String()
	assessment.AssessedAt = &assessedAt

	e.logger.Info().
		Str("subject", subject.String()).
		Float64("overall_score", resp.OverallScore).
		Str("quality_level", string(level)).
		Msg("Quality assessment completed")

	return &models.QualityResult{Subject: subject, Assessment: assessment}, nil
}

// fallback scores the content from title/description/body length when the AI
// service is unavailable. Coarse, but keeps the sync path answering.
func (e *QualityEngine) fallback(ctx context.Context, assessment *models.QualityAssessment, content *models.Content) (*models.QualityResult, error) {
	score := HeuristicScore(content.Title, content.Description, content.Text)
	level := models.QualityLevelForScore(score)

	dims := make(map[string]float64, len(models.QualityDimensions))
	for _, dim := range models.QualityDimensions {
		dims[dim] = score
	}
	dimensionScores, err := json.Marshal(dims)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fallback dimension scores: %w", err)
	}

	assessedAt := time.Now()
	analysis := "Heuristic assessment derived from content length; AI service unavailable."

	if err := e.assessments.UpdateCompleted(ctx, assessment.ID, score, dimensionScores, string(level), analysis, QualitySourceHeuristic, nil, assessedAt); err != nil {
		return nil, fmt.Errorf("failed to persist fallback assessment: %w", err)
	}

	assessment.OverallScore = &score
	assessment.DimensionScores = dimensionScores
	assessment.QualityLevel = string(level)
	assessment.Analysis = analysis
	assessment.Source = QualitySourceHeuristic
	assessment.Status = models.AssessmentStatusCompleted.String()
	assessment.AssessedAt = &assessedAt

	return &models.QualityResult{Subject: models.Subject{ContentType: assessment.ContentType, ContentID: assessment.ContentID}, Assessment: assessment}, nil
}

// HeuristicScore derives a coarse 0-100 quality score from title,
// description and body length.
func HeuristicScore(title, description, text string) float64 {
	score := 40.0

	if len(strings.TrimSpace(title)) >= 10 {
		score += 10
	}
	if len(strings.TrimSpace(description)) >= 50 {
		score += 15
	}

	words := len(strings.Fields(text))
	switch {
	case words >= 300:
		score += 20
	case words >= 100:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
