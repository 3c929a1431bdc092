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

type PlagiarismEngine struct {
	scans   repository.PlagiarismRepository
	content integration.ContentClient
	ai      integration.AIClient
	gate    freshness.Gate
	logger  zerolog.Logger
}

func NewPlagiarismEngine(
	scans repository.PlagiarismRepository,
	content integration.ContentClient,
	ai integration.AIClient,
	gate freshness.Gate,
	logger zerolog.Logger,
) *PlagiarismEngine {
	return &PlagiarismEngine{
		scans:   scans,
		content: content,
		ai:      ai,
		gate:    gate,
		logger:  logger,
	}
}

func (e *PlagiarismEngine) Analyze(ctx context.Context, subject models.Subject, opts models.PlagiarismOptions, force bool) (*models.PlagiarismResult, error) {
	content, err := resolveSubject(ctx, e.content, subject)
	if err != nil {
		return nil, err
	}

	existing, err := e.scans.GetLatestCompleted(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to check latest scan: %w", err)
	}

	// Reuse requires both a fresh record and an unchanged fingerprint.
	if existing != nil && e.gate.ReusableScan(existing.Status, existing.CompletedAt, existing.ContentHash, content.Text, force) {
		e.logger.Info().Str("subject", subject.String()).Msg("Returning cached plagiarism scan")
		return &models.PlagiarismResult{Subject: subject, Scan: existing, Cached: true}, nil
	}

	now := time.Now()
	scan := &models.PlagiarismScan{
		ID:          uuid.New().String(),
		ContentType: subject.ContentType,
		ContentID:   subject.ContentID,
		ContentHash: freshness.Fingerprint(content.Text),
		Status:      models.ScanStatusScanning.String(),
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.scans.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}

	resp, err := e.ai.ScanPlagiarism(ctx, models.PlagiarismScanRequest{
		Content: toAIContent(content),
		ScanOptions: models.ScanOptions{
			CheckWebSources:      opts.CheckWebSources,
			CheckAcademicSources: opts.CheckAcademicSources,
			CheckInternalSources: opts.CheckInternalSources,
			CheckStudentWork:     opts.CheckStudentWork,
			SensitivityLevel:     opts.SensitivityLevel,
			ExcludedSources:      opts.ExcludedSources,
		},
	})
	if err != nil {
		if updateErr := e.scans.UpdateStatus(ctx, scan.ID, models.ScanStatusFailed.String()); updateErr != nil {
			e.logger.Error().Err(updateErr).Str("scan_id", scan.ID).Msg("Failed to mark scan failed")
		}
		return nil, &AIServiceError{Engine: models.EnginePlagiarism, Err: err}
	}

	matches, err := json.Marshal(resp.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal matches: %w", err)
	}

	completedAt := time.Now()
	severity := models.SeverityForSimilarity(resp.OverallSimilarity)

	if err := e.scans.UpdateCompleted(ctx, scan.ID, resp.OverallSimilarity, string(severity), resp.SourcesChecked, matches, resp.Analysis, completedAt); err != nil {
		return nil, fmt.Errorf("failed to persist scan results: %w", err)
	}

	similarity := resp.OverallSimilarity
	scan.OverallSimilarity = &similarity
	scan.SeverityLevel = string(severity)
	scan.SourcesChecked = resp.SourcesChecked
	scan.Matches = matches
	scan.Analysis = resp.Analysis
	scan.Status = models.ScanStatusCompleted.String()
	scan.CompletedAt = &completedAt

	e.logger.Info().
		Str("subject", subject.String()).
		Float64("overall_similarity", resp.OverallSimilarity).
		Str("severity", string(severity)).
		Int("matches", len(resp.Matches)).
		Msg("Plagiarism scan completed")

	return &models.PlagiarismResult{Subject: subject, Scan: scan}, nil
}
