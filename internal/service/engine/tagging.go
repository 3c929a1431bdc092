package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
)

const fallbackConfidence = 0.3

type TaggingEngine struct {
	tags    repository.TagRepository
	content integration.ContentClient
	ai      integration.AIClient
	gate    freshness.Gate
	logger  zerolog.Logger
}

func NewTaggingEngine(
	tags repository.TagRepository,
	content integration.ContentClient,
	ai integration.AIClient,
	gate freshness.Gate,
	logger zerolog.Logger,
) *TaggingEngine {
	return &TaggingEngine{
		tags:    tags,
		content: content,
		ai:      ai,
		gate:    gate,
		logger:  logger,
	}
}

func (e *TaggingEngine) Analyze(ctx context.Context, subject models.Subject, opts models.TagOptions, force bool) (*models.TagResult, error) {
	if opts.MaxTags <= 0 {
		opts = models.DefaultTagOptions()
	}

	content, err := resolveSubject(ctx, e.content, subject)
	if err != nil {
		return nil, err
	}

	existing, err := e.tags.GetLatestGeneration(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing tags: %w", err)
	}

	if len(existing) > 0 && e.gate.Reusable(existing[0].Status, existing[0].GeneratedAt, force) {
		e.logger.Info().Str("subject", subject.String()).Msg("Returning cached tags")
		return &models.TagResult{
			Subject: subject,
			Tags:    existing,
			Source:  existing[0].Source,
			Cached:  true,
		}, nil
	}

	resp, err := e.ai.GenerateTags(ctx, models.TagGenerationRequest{
		Content: toAIContent(content),
		Preferences: models.TagPreferences{
			MaxTags:       opts.MaxTags,
			Categories:    opts.Categories,
			MinConfidence: opts.MinConfidence,
		},
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("subject", subject.String()).Msg("AI tagging failed, falling back to word frequency")
		return e.fallback(ctx, subject, content, opts)
	}

	now := time.Now()
	tags := make([]models.ContentTag, 0, len(resp.Tags))
	for _, aiTag := range resp.Tags {
		if aiTag.Confidence < opts.MinConfidence {
			continue
		}
		if len(tags) == opts.MaxTags {
			break
		}
		tags = append(tags, models.ContentTag{
			ID:          uuid.New().String(),
			ContentType: subject.ContentType,
			ContentID:   subject.ContentID,
			Name:        aiTag.Name,
			Category:    aiTag.Category,
			Confidence:  aiTag.Confidence,
			Source:      models.TagSourceAI,
			Status:      models.TagStatusCompleted.String(),
			GeneratedAt: &now,
			CreatedAt:   now,
		})
	}

	if err := e.tags.CreateBatch(ctx, tags); err != nil {
		return nil, fmt.Errorf("failed to persist tags: %w", err)
	}

	e.logger.Info().
		Str("subject", subject.String()).
		Int("tag_count", len(tags)).
		Str("model_version", resp.ModelVersion).
		Msg("Tags generated")

	return &models.TagResult{
		Subject: subject,
		Tags:    tags,
		Source:  models.TagSourceAI,
	}, nil
}

// fallback extracts the most frequent words longer than three characters and
// stores them as low-confidence tags.
func (e *TaggingEngine) fallback(ctx context.Context, subject models.Subject, content *models.Content, opts models.TagOptions) (*models.TagResult, error) {
	words := FrequentWords(content.Title+" "+content.Description+" "+content.Text, opts.MaxTags)
	if len(words) == 0 {
		return nil, &AIServiceError{Engine: models.EngineTags, Err: fmt.Errorf("no fallback tags extractable from %s", subject)}
	}

	now := time.Now()
	tags := make([]models.ContentTag, 0, len(words))
	for _, word := range words {
		tags = append(tags, models.ContentTag{
			ID:          uuid.New().String(),
			ContentType: subject.ContentType,
			ContentID:   subject.ContentID,
			Name:        word,
			Category:    "auto",
			Confidence:  fallbackConfidence,
			Source:      models.TagSourceFallback,
			Status:      models.TagStatusCompleted.String(),
			GeneratedAt: &now,
			CreatedAt:   now,
		})
	}

	if err := e.tags.CreateBatch(ctx, tags); err != nil {
		return nil, fmt.Errorf("failed to persist fallback tags: %w", err)
	}

	return &models.TagResult{
		Subject: subject,
		Tags:    tags,
		Source:  models.TagSourceFallback,
	}, nil
}

var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "from": true,
	"have": true, "into": true, "more": true, "other": true, "some": true,
	"than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "were": true,
	"what": true, "when": true, "which": true, "will": true, "with": true,
	"your": true,
}

// FrequentWords returns the top-n words longer than three characters,
// most frequent first; ties break alphabetically for stable output.
func FrequentWords(text string, n int) []string {
	counts := make(map[string]int)

	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) <= 3 || stopwords[word] {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}

	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}
