package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

const maxCompletionTokens = 4096

// AIClient is the boundary to the external inference service, one method per
// analysis engine. Responses are decoded into the typed contract structs and
// validated before they reach an engine; malformed responses are errors here,
// never loosely-typed passthroughs.
type AIClient interface {
	GenerateTags(ctx context.Context, req models.TagGenerationRequest) (*models.TagGenerationResponse, error)
	CalculateSimilarity(ctx context.Context, req models.SimilarityCalculationRequest) (*models.SimilarityCalculationResponse, error)
	AssessQuality(ctx context.Context, req models.QualityAssessmentRequest) (*models.QualityAssessmentResponse, error)
	GenerateQuiz(ctx context.Context, req models.QuizGenerationRequest) (*models.QuizGenerationResponse, error)
	ScanPlagiarism(ctx context.Context, req models.PlagiarismScanRequest) (*models.PlagiarismScanResponse, error)
}

type aiClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAIClient(apiKey, baseURL, model string, timeout time.Duration, logger zerolog.Logger) AIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &aiClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *aiClient) GenerateTags(ctx context.Context, req models.TagGenerationRequest) (*models.TagGenerationResponse, error) {
	var resp models.TagGenerationResponse
	if err := c.call(ctx, tagSystemPrompt, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tag response: %w", err)
	}
	return &resp, nil
}

func (c *aiClient) CalculateSimilarity(ctx context.Context, req models.SimilarityCalculationRequest) (*models.SimilarityCalculationResponse, error) {
	var resp models.SimilarityCalculationResponse
	if err := c.call(ctx, similaritySystemPrompt, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(len(req.CandidateContents)); err != nil {
		return nil, fmt.Errorf("invalid similarity response: %w", err)
	}
	return &resp, nil
}

func (c *aiClient) AssessQuality(ctx context.Context, req models.QualityAssessmentRequest) (*models.QualityAssessmentResponse, error) {
	var resp models.QualityAssessmentResponse
	if err := c.call(ctx, qualitySystemPrompt, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quality response: %w", err)
	}
	return &resp, nil
}

func (c *aiClient) GenerateQuiz(ctx context.Context, req models.QuizGenerationRequest) (*models.QuizGenerationResponse, error) {
	var resp models.QuizGenerationResponse
	if err := c.call(ctx, quizSystemPrompt, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quiz response: %w", err)
	}
	return &resp, nil
}

func (c *aiClient) ScanPlagiarism(ctx context.Context, req models.PlagiarismScanRequest) (*models.PlagiarismScanResponse, error) {
	var resp models.PlagiarismScanResponse
	if err := c.call(ctx, plagiarismSystemPrompt, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plagiarism response: %w", err)
	}
	return &resp, nil
}

// call sends one JSON-mode chat completion and decodes the reply strictly.
func (c *aiClient) call(ctx context.Context, systemPrompt string, request interface{}, out interface{}) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal AI request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxCompletionTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return fmt.Errorf("AI completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("AI response contains no choices")
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(resp.Choices[0].Message.Content)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode AI response: %w", err)
	}

	c.logger.Debug().
		Str("model", c.model).
		Dur("duration", time.Since(started)).
		Msg("AI completion finished")

	return nil
}

const tagSystemPrompt = `You are a content tagging service for a learning platform.
The user message is a JSON request with "content" and "preferences".
Respond with JSON: {"tags":[{"name","category","confidence","description","keywords","context","relevanceScore"}],"model_version","extraction_method","algorithm_used","processing_time"}.
Confidence values are between 0 and 1. Return at most preferences.maxTags tags at or above preferences.minConfidence.`

const similaritySystemPrompt = `You are a content similarity service for a learning platform.
The user message is a JSON request with "targetContent", "candidateContents" and "similarityType".
Respond with JSON: {"similarities":[{"similarityScore","similarityReasons"}],"algorithm_used","processing_info":{"processing_time_ms"}}.
Return exactly one entry per candidate, in candidate order, with scores between 0 and 100.`

const qualitySystemPrompt = `You are a content quality assessment service for a learning platform.
The user message is a JSON request with "content" and "assessmentCriteria".
Respond with JSON: {"overall_score","dimension_scores":{"clarity","accuracy","completeness","engagement","structure","readability","accessibility","relevance"},"analysis","improvements","model_version","processing_time","confidence"}.
All scores are between 0 and 100; every dimension is required.`

const quizSystemPrompt = `You are a quiz generation service for a learning platform.
The user message is a JSON request with "content" and "requirements".
Respond with JSON: {"questions":[{"type","question","options","correct_answer","explanation","difficulty","points","estimated_time","keywords"}],"quality_assessment","model_version","generation_prompt","analysis","processing_time","confidence"}.
Generate requirements.questionCount questions of the requested types and difficulty.`

const plagiarismSystemPrompt = `You are a plagiarism detection service for a learning platform.
The user message is a JSON request with "content" and "scanOptions".
Respond with JSON: {"overall_similarity","sources_checked","matches":[{"source_url","source_title","similarity","matched_text","start_position","end_position","source_type","confidence"}],"analysis","processing_time","scan_provider","scan_version","confidence"}.
Similarity values are percentages between 0 and 100.`
