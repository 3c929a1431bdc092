// Package coordinator sequences the analysis engines for comprehensive and
// bulk runs. Engine failures are isolated per step and per item; a run always
// completes and reports what failed inside its result.
package coordinator

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
)

type TagAnalyzer interface {
	Analyze(ctx context.Context, subject models.Subject, opts models.TagOptions, force bool) (*models.TagResult, error)
}

type SimilarityAnalyzer interface {
	Analyze(ctx context.Context, subject models.Subject, opts models.SimilarityOptions, force bool) (*models.SimilarityResult, error)
}

type QualityAnalyzer interface {
	Analyze(ctx context.Context, subject models.Subject, opts models.QualityOptions, force bool) (*models.QualityResult, error)
}

type QuizAnalyzer interface {
	Analyze(ctx context.Context, subject models.Subject, opts models.QuizOptions, force bool) (*models.QuizResult, error)
}

type PlagiarismAnalyzer interface {
	Analyze(ctx context.Context, subject models.Subject, opts models.PlagiarismOptions, force bool) (*models.PlagiarismResult, error)
}

type Coordinator struct {
	tags        TagAnalyzer
	quality     QualityAnalyzer
	plagiarism  PlagiarismAnalyzer
	quiz        QuizAnalyzer
	similarity  SimilarityAnalyzer
	maxBulkSize int
	logger      zerolog.Logger
}

func NewCoordinator(
	tags TagAnalyzer,
	quality QualityAnalyzer,
	plagiarism PlagiarismAnalyzer,
	quiz QuizAnalyzer,
	similarity SimilarityAnalyzer,
	maxBulkSize int,
	logger zerolog.Logger,
) *Coordinator {
	if maxBulkSize <= 0 {
		maxBulkSize = 50
	}
	return &Coordinator{
		tags:        tags,
		quality:     quality,
		plagiarism:  plagiarism,
		quiz:        quiz,
		similarity:  similarity,
		maxBulkSize: maxBulkSize,
		logger:      logger,
	}
}

// Fixed progress checkpoints for the comprehensive stage order.
const (
	progressTags       = 10
	progressQuality    = 30
	progressPlagiarism = 50
	progressQuiz       = 70
	progressSimilarity = 90
	progressDone       = 100
)

// Comprehensive runs the enabled engines in a fixed order. A failing engine
// is recorded in the result's Errors and the run continues; only a subject
// that cannot be analyzed at all aborts the run.
func (c *Coordinator) Comprehensive(ctx context.Context, subject models.Subject, opts models.ComprehensiveOptions, force bool, progress models.ProgressFunc) (*models.ComprehensiveResult, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	result := &models.ComprehensiveResult{
		Subject:   subject,
		Errors:    []models.EngineError{},
		StartedAt: time.Now(),
	}

	report := func(percent int, stage string) {
		result.Progress = percent
		progress(percent, stage)
	}

	if opts.IncludeTags {
		tags, err := c.tags.Analyze(ctx, subject, opts.Tags, force)
		if err != nil {
			result.Errors = append(result.Errors, engineError(models.EngineTags, err))
		} else {
			result.Results.Tags = tags
		}
	}
	report(progressTags, models.EngineTags)

	if opts.IncludeQuality {
		quality, err := c.quality.Analyze(ctx, subject, opts.Quality, force)
		if err != nil {
			result.Errors = append(result.Errors, engineError(models.EngineQuality, err))
		} else {
			result.Results.Quality = quality
		}
	}
	report(progressQuality, models.EngineQuality)

	if opts.IncludePlagiarism {
		scan, err := c.plagiarism.Analyze(ctx, subject, opts.Plagiarism, force)
		if err != nil {
			result.Errors = append(result.Errors, engineError(models.EnginePlagiarism, err))
		} else {
			result.Results.Plagiarism = scan
		}
	}
	report(progressPlagiarism, models.EnginePlagiarism)

	// Quiz generation only applies to lessons. For courses the stage is
	// skipped silently rather than recorded as an error.
	if opts.IncludeQuizGeneration && subject.ContentType == models.ContentTypeLesson {
		quiz, err := c.quiz.Analyze(ctx, subject, opts.Quiz, force)
		if err != nil {
			result.Errors = append(result.Errors, engineError(models.EngineQuiz, err))
		} else {
			result.Results.Quiz = quiz
		}
	}
	report(progressQuiz, models.EngineQuiz)

	if opts.IncludeSimilarity {
		similar, err := c.similarity.Analyze(ctx, subject, opts.Similarity, force)
		if err != nil {
			result.Errors = append(result.Errors, engineError(models.EngineSimilarity, err))
		} else {
			result.Results.SimilarContent = similar
		}
	}
	report(progressSimilarity, models.EngineSimilarity)

	result.CompletedAt = time.Now()
	report(progressDone, "completed")

	c.logger.Info().
		Str("subject", subject.String()).
		Int("errors", len(result.Errors)).
		Dur("duration", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Comprehensive analysis finished")

	return result, nil
}

// Bulk runs one engine over a list of content IDs, sequentially in input
// order. Failures are recorded per item; one bad item never stops the batch.
func (c *Coordinator) Bulk(ctx context.Context, engineName string, contentType models.ContentType, contentIDs []string, rawOpts json.RawMessage, force bool, progress models.ProgressFunc) (*models.BulkResult, error) {
	if !models.KnownEngine(engineName) {
		return nil, engine.NewValidationError("unknown engine %q", engineName)
	}
	if len(contentIDs) == 0 {
		return nil, engine.NewValidationError("bulk analysis requires at least one content id")
	}
	if len(contentIDs) > c.maxBulkSize {
		return nil, engine.NewValidationError("bulk size %d exceeds limit %d", len(contentIDs), c.maxBulkSize)
	}
	if engineName == models.EngineQuiz && contentType != models.ContentTypeLesson {
		return nil, engine.NewValidationError("quiz generation is only supported for lessons, got %q", contentType)
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	result := &models.BulkResult{
		Engine:         engineName,
		ContentType:    contentType,
		TotalProcessed: len(contentIDs),
		Results:        make([]models.BulkItemResult, 0, len(contentIDs)),
		StartedAt:      time.Now(),
	}

	for i, contentID := range contentIDs {
		subject := models.Subject{ContentType: contentType, ContentID: contentID}

		artifacts, err := c.RunEngine(ctx, engineName, subject, rawOpts, force)
		item := models.BulkItemResult{ContentID: contentID, Artifacts: artifacts}
		if err != nil {
			item.Error = err.Error()
			result.Summary.Failed++
			c.logger.Warn().Err(err).Str("subject", subject.String()).Str("engine", engineName).Msg("Bulk item failed")
		} else {
			item.Success = true
			result.Summary.Successful++
			result.Summary.TotalArtifacts += artifacts
		}
		result.Results = append(result.Results, item)

		progress(int(math.Round(float64(i+1)/float64(len(contentIDs))*100)), contentID)
	}

	result.CompletedAt = time.Now()

	c.logger.Info().
		Str("engine", engineName).
		Int("total", result.TotalProcessed).
		Int("successful", result.Summary.Successful).
		Int("failed", result.Summary.Failed).
		Msg("Bulk analysis finished")

	return result, nil
}

// RunEngine dispatches a single subject to one engine by name, decoding the
// raw engine options. It returns the number of artifacts produced.
func (c *Coordinator) RunEngine(ctx context.Context, engineName string, subject models.Subject, rawOpts json.RawMessage, force bool) (int, error) {
	switch engineName {
	case models.EngineTags:
		opts := models.DefaultTagOptions()
		if err := decodeOptions(rawOpts, &opts); err != nil {
			return 0, err
		}
		res, err := c.tags.Analyze(ctx, subject, opts, force)
		if err != nil {
			return 0, err
		}
		return len(res.Tags), nil

	case models.EngineQuality:
		opts := models.DefaultQualityOptions()
		if err := decodeOptions(rawOpts, &opts); err != nil {
			return 0, err
		}
		if _, err := c.quality.Analyze(ctx, subject, opts, force); err != nil {
			return 0, err
		}
		return 1, nil

	case models.EnginePlagiarism:
		opts := models.DefaultPlagiarismOptions()
		if err := decodeOptions(rawOpts, &opts); err != nil {
			return 0, err
		}
		if _, err := c.plagiarism.Analyze(ctx, subject, opts, force); err != nil {
			return 0, err
		}
		return 1, nil

	case models.EngineQuiz:
		opts := models.DefaultQuizOptions()
		if err := decodeOptions(rawOpts, &opts); err != nil {
			return 0, err
		}
		if _, err := c.quiz.Analyze(ctx, subject, opts, force); err != nil {
			return 0, err
		}
		return 1, nil

	case models.EngineSimilarity:
		opts := models.DefaultSimilarityOptions()
		if err := decodeOptions(rawOpts, &opts); err != nil {
			return 0, err
		}
		res, err := c.similarity.Analyze(ctx, subject, opts, force)
		if err != nil {
			return 0, err
		}
		return len(res.Similar), nil
	}

	return 0, engine.NewValidationError("unknown engine %q", engineName)
}

func decodeOptions(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return engine.NewValidationError("invalid engine options: %v", err)
	}
	return nil
}

func engineError(engineName string, err error) models.EngineError {
	return models.EngineError{
		Engine:    engineName,
		Message:   err.Error(),
		Retryable: engine.IsRetryable(err),
	}
}
