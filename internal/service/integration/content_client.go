package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

// ContentClient reads courses and lessons from the content service. A missing
// subject is reported as (nil, nil), not an error.
type ContentClient interface {
	GetContent(ctx context.Context, contentType models.ContentType, contentID string) (*models.Content, error)
	ListContentIDs(ctx context.Context, contentType models.ContentType, excludeID string, limit int) ([]string, error)
}

type contentClient struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

func NewContentClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) ContentClient {
	return &contentClient{
		baseURL:    baseURL,
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// contentPayload is the wire shape the content service returns; Body carries
// HTML for lessons and plain text for course descriptions.
type contentPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
}

func (c *contentClient) GetContent(ctx context.Context, contentType models.ContentType, contentID string) (*models.Content, error) {
	url := fmt.Sprintf("%s/api/v1/%ss/%s", c.baseURL, contentType, contentID)

	var payload *contentPayload
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("url", url).Msg("Retrying content fetch")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to get content: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				resp.Body.Close()
				lastErr = fmt.Errorf("failed to decode response: %w", err)
				continue
			}
			resp.Body.Close()

			return &models.Content{
				ID:          payload.ID,
				Type:        contentType,
				Title:       payload.Title,
				Description: payload.Description,
				Text:        ExtractText(payload.Body),
			}, nil
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("content service returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("failed to get content after %d attempts: %w", c.retryCount+1, lastErr)
}

func (c *contentClient) ListContentIDs(ctx context.Context, contentType models.ContentType, excludeID string, limit int) ([]string, error) {
	url := fmt.Sprintf("%s/api/v1/%ss?limit=%d", c.baseURL, contentType, limit+1)

	var items []struct {
		ID string `json:"id"`
	}
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("url", url).Msg("Retrying content listing")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to list content: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
				resp.Body.Close()
				lastErr = fmt.Errorf("failed to decode response: %w", err)
				continue
			}
			resp.Body.Close()

			ids := make([]string, 0, len(items))
			for _, item := range items {
				if item.ID == excludeID {
					continue
				}
				ids = append(ids, item.ID)
				if len(ids) == limit {
					break
				}
			}
			return ids, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("content service returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("failed to list content after %d attempts: %w", c.retryCount+1, lastErr)
}

// ExtractText strips markup from a lesson body and collapses whitespace.
// Bodies without tags pass through unchanged.
func ExtractText(body string) string {
	if !strings.Contains(body, "<") {
		return strings.TrimSpace(body)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.TrimSpace(body)
	}

	doc.Find("script, style").Remove()
	text := doc.Text()

	return strings.Join(strings.Fields(text), " ")
}
