package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
)

type SimilarityEngine struct {
	records       repository.SimilarityRepository
	content       integration.ContentClient
	ai            integration.AIClient
	gate          freshness.Gate
	maxCandidates int
	logger        zerolog.Logger
}

func NewSimilarityEngine(
	records repository.SimilarityRepository,
	content integration.ContentClient,
	ai integration.AIClient,
	gate freshness.Gate,
	maxCandidates int,
	logger zerolog.Logger,
) *SimilarityEngine {
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &SimilarityEngine{
		records:       records,
		content:       content,
		ai:            ai,
		gate:          gate,
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// Analyze compares the subject against candidate content of the same type.
// There is no fallback heuristic: AI failures propagate to the caller.
func (e *SimilarityEngine) Analyze(ctx context.Context, subject models.Subject, opts models.SimilarityOptions, force bool) (*models.SimilarityResult, error) {
	if opts.SimilarityType == "" {
		opts.SimilarityType = models.DefaultSimilarityOptions().SimilarityType
	}

	target, err := resolveSubject(ctx, e.content, subject)
	if err != nil {
		return nil, err
	}

	existing, err := e.records.GetCalculated(ctx, subject, opts.SimilarityType)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing similarity records: %w", err)
	}

	if len(existing) > 0 && e.gate.Reusable("calculated", latestCalculatedAt(existing), force) {
		e.logger.Info().Str("subject", subject.String()).Msg("Returning cached similarity records")
		return &models.SimilarityResult{
			Subject:        subject,
			SimilarityType: opts.SimilarityType,
			Similar:        toSimilarContent(existing),
			Cached:         true,
		}, nil
	}

	candidateIDs := opts.CandidateIDs
	if len(candidateIDs) == 0 {
		candidateIDs, err = e.content.ListContentIDs(ctx, subject.ContentType, subject.ContentID, e.maxCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
	}
	if len(candidateIDs) > e.maxCandidates {
		candidateIDs = candidateIDs[:e.maxCandidates]
	}

	candidates := make([]*models.Content, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		candidate, err := e.content.GetContent(ctx, subject.ContentType, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candidate %s: %w", id, err)
		}
		if candidate == nil {
			continue
		}
		candidates = append(candidates, candidate)
	}

	if len(candidates) == 0 {
		return &models.SimilarityResult{
			Subject:        subject,
			SimilarityType: opts.SimilarityType,
			Similar:        []models.SimilarContent{},
		}, nil
	}

	now := time.Now()
	records := make([]models.SimilarityRecord, 0, len(candidates))
	aiCandidates := make([]models.AIContent, 0, len(candidates))
	for _, candidate := range candidates {
		records = append(records, models.SimilarityRecord{
			ID:                uuid.New().String(),
			ContentType:       subject.ContentType,
			ContentID:         subject.ContentID,
			ComparedContentID: candidate.ID,
			SimilarityType:    opts.SimilarityType,
			Status:            models.SimilarityStatusProcessing.String(),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		aiCandidates = append(aiCandidates, toAIContent(candidate))
	}

	if err := e.records.CreateBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to create similarity records: %w", err)
	}

	resp, err := e.ai.CalculateSimilarity(ctx, models.SimilarityCalculationRequest{
		TargetContent:     toAIContent(target),
		CandidateContents: aiCandidates,
		SimilarityType:    opts.SimilarityType,
	})
	if err != nil {
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		if markErr := e.records.MarkBatchFailed(ctx, ids); markErr != nil {
			e.logger.Error().Err(markErr).Str("subject", subject.String()).Msg("Failed to mark similarity records failed")
		}
		return nil, &AIServiceError{Engine: models.EngineSimilarity, Err: err}
	}

	calculatedAt := time.Now()
	similar := make([]models.SimilarContent, 0, len(records))
	for i := range records {
		score := resp.Similarities[i].SimilarityScore
		reasons := resp.Similarities[i].SimilarityReasons

		if err := e.records.UpdateCalculated(ctx, records[i].ID, score, reasons, calculatedAt); err != nil {
			return nil, fmt.Errorf("failed to persist similarity score: %w", err)
		}

		similar = append(similar, models.SimilarContent{
			ContentID:       records[i].ComparedContentID,
			SimilarityScore: score,
			Reasons:         reasons,
		})
	}

	sort.Slice(similar, func(i, j int) bool {
		return similar[i].SimilarityScore > similar[j].SimilarityScore
	})

	e.logger.Info().
		Str("subject", subject.String()).
		Int("candidates", len(similar)).
		Str("algorithm", resp.AlgorithmUsed).
		Msg("Similarity calculation completed")

	return &models.SimilarityResult{
		Subject:        subject,
		SimilarityType: opts.SimilarityType,
		Similar:        similar,
	}, nil
}

func latestCalculatedAt(records []models.SimilarityRecord) *time.Time {
	var latest *time.Time
	for i := range records {
		if records[i].CalculatedAt == nil {
			continue
		}
		if latest == nil || records[i].CalculatedAt.After(*latest) {
			latest = records[i].CalculatedAt
		}
	}
	return latest
}

func toSimilarContent(records []models.SimilarityRecord) []models.SimilarContent {
	similar := make([]models.SimilarContent, 0, len(records))
	for _, rec := range records {
		var score float64
		if rec.OverallSimilarity != nil {
			score = *rec.OverallSimilarity
		}
		similar = append(similar, models.SimilarContent{
			ContentID:       rec.ComparedContentID,
			SimilarityScore: score,
			Reasons:         rec.AnalysisNotes,
		})
	}
	return similar
}
