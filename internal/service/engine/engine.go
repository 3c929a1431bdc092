// Package engine implements the five content-analysis engines. Every engine
// follows the same lifecycle: resolve the subject, consult the freshness
// gate, create a processing record, call the AI service, persist the outcome.
package engine

import (
	"context"
	"fmt"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
)

// resolveSubject fetches the analyzed content, mapping a missing subject to
// ErrNotFound.
func resolveSubject(ctx context.Context, client integration.ContentClient, subject models.Subject) (*models.Content, error) {
	if _, err := models.ParseContentType(subject.ContentType.String()); err != nil {
		return nil, NewValidationError("%v", err)
	}
	if subject.ContentID == "" {
		return nil, NewValidationError("empty content id")
	}

	content, err := client.GetContent(ctx, subject.ContentType, subject.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", subject, err)
	}
	if content == nil {
		return nil, fmt.Errorf("%s: %w", subject, ErrNotFound)
	}

	return content, nil
}

func toAIContent(content *models.Content) models.AIContent {
	return models.AIContent{
		ID:          content.ID,
		Type:        content.Type.String(),
		Title:       content.Title,
		Description: content.Description,
		Text:        content.Text,
	}
}
