package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
)

func testLesson() *models.Content {
	return &models.Content{
		ID:          "lesson-1",
		Type:        models.ContentTypeLesson,
		Title:       "Introduction to Algorithms",
		Description: "A lesson covering the fundamentals of algorithm design and complexity analysis.",
		Text:        "Algorithms transform input into output. Sorting algorithms order data. Complexity analysis measures algorithms.",
	}
}

func lessonSubject() models.Subject {
	return models.Subject{ContentType: models.ContentTypeLesson, ContentID: "lesson-1"}
}

func TestTaggingEngine_GeneratesAndFilters(t *testing.T) {
	ai := &fakeAIClient{
		tagResp: &models.TagGenerationResponse{
			Tags: []models.AITag{
				{Name: "algorithms", Category: "topic", Confidence: 0.95},
				{Name: "sorting", Category: "topic", Confidence: 0.8},
				{Name: "barely", Category: "topic", Confidence: 0.2},
			},
			ModelVersion: "v1",
		},
	}
	repo := &fakeTagRepo{}
	eng := NewTaggingEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.TagOptions{MaxTags: 10, MinConfidence: 0.5}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(result.Tags) != 2 {
		t.Fatalf("expected 2 tags above min confidence, got %d", len(result.Tags))
	}
	if result.Source != models.TagSourceAI {
		t.Errorf("expected source %q, got %q", models.TagSourceAI, result.Source)
	}
	if result.Cached {
		t.Error("fresh generation must not be marked cached")
	}
	if len(repo.batches) != 1 {
		t.Errorf("expected 1 persisted batch, got %d", len(repo.batches))
	}
	for _, tag := range result.Tags {
		if tag.Status != models.TagStatusCompleted.String() {
			t.Errorf("tag %q has status %q, want completed", tag.Name, tag.Status)
		}
	}
}

func TestTaggingEngine_SecondCallIsCached(t *testing.T) {
	ai := &fakeAIClient{
		tagResp: &models.TagGenerationResponse{
			Tags: []models.AITag{{Name: "algorithms", Category: "topic", Confidence: 0.9}},
		},
	}
	repo := &fakeTagRepo{}
	eng := NewTaggingEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	ctx := context.Background()
	if _, err := eng.Analyze(ctx, lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}

	result, err := eng.Analyze(ctx, lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if !result.Cached {
		t.Error("second call within freshness window must be cached")
	}
	if ai.tagCalls != 1 {
		t.Errorf("expected exactly 1 AI call, got %d", ai.tagCalls)
	}
}

func TestTaggingEngine_ForceBypassesCache(t *testing.T) {
	ai := &fakeAIClient{
		tagResp: &models.TagGenerationResponse{
			Tags: []models.AITag{{Name: "algorithms", Category: "topic", Confidence: 0.9}},
		},
	}
	repo := &fakeTagRepo{}
	eng := NewTaggingEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	ctx := context.Background()
	if _, err := eng.Analyze(ctx, lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}

	result, err := eng.Analyze(ctx, lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, true)
	if err != nil {
		t.Fatalf("forced Analyze: %v", err)
	}
	if result.Cached {
		t.Error("force must bypass the cache")
	}
	if ai.tagCalls != 2 {
		t.Errorf("expected 2 AI calls with force, got %d", ai.tagCalls)
	}
}

func TestTaggingEngine_FallbackOnAIFailure(t *testing.T) {
	ai := &fakeAIClient{tagErr: errors.New("ai service down")}
	repo := &fakeTagRepo{}
	eng := NewTaggingEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false)
	if err != nil {
		t.Fatalf("Analyze with fallback: %v", err)
	}

	if result.Source != models.TagSourceFallback {
		t.Fatalf("expected fallback source, got %q", result.Source)
	}
	if len(result.Tags) == 0 {
		t.Fatal("fallback produced no tags")
	}
	for _, tag := range result.Tags {
		if tag.Confidence != fallbackConfidence {
			t.Errorf("fallback tag %q confidence %v, want %v", tag.Name, tag.Confidence, fallbackConfidence)
		}
		if len(tag.Name) <= 3 {
			t.Errorf("fallback tag %q is too short", tag.Name)
		}
	}
}

func TestTaggingEngine_FallbackWithoutWordsFails(t *testing.T) {
	empty := &models.Content{ID: "lesson-1", Type: models.ContentTypeLesson, Title: "ab", Text: "a b c"}
	ai := &fakeAIClient{tagErr: errors.New("ai service down")}
	eng := NewTaggingEngine(&fakeTagRepo{}, newFakeContentClient(empty), ai, freshness.NewGate(0), zerolog.Nop())

	_, err := eng.Analyze(context.Background(), lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false)
	if err == nil {
		t.Fatal("expected error when no fallback words are extractable")
	}
	if !IsRetryable(err) {
		t.Errorf("exhausted fallback should be retryable, got %v", err)
	}
}

func TestTaggingEngine_UnknownSubject(t *testing.T) {
	eng := NewTaggingEngine(&fakeTagRepo{}, newFakeContentClient(), &fakeAIClient{}, freshness.NewGate(0), zerolog.Nop())

	_, err := eng.Analyze(context.Background(), lessonSubject(), models.TagOptions{MaxTags: 5}, false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaggingEngine_StaleTagsRegenerated(t *testing.T) {
	old := time.Now().Add(-10 * 24 * time.Hour)
	repo := &fakeTagRepo{
		latest: []models.ContentTag{{
			ID: "t1", Name: "stale", Status: models.TagStatusCompleted.String(),
			Source: models.TagSourceAI, GeneratedAt: &old,
		}},
	}
	ai := &fakeAIClient{
		tagResp: &models.TagGenerationResponse{
			Tags: []models.AITag{{Name: "fresh", Category: "topic", Confidence: 0.9}},
		},
	}
	eng := NewTaggingEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(7*24*time.Hour), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.TagOptions{MaxTags: 5, MinConfidence: 0.5}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Cached {
		t.Error("stale tags must not be served from cache")
	}
	if ai.tagCalls != 1 {
		t.Errorf("expected a fresh AI call, got %d", ai.tagCalls)
	}
}

func TestFrequentWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{
			name: "orders by frequency then alphabetically",
			text: "graph graph graph nodes nodes edges",
			n:    3,
			want: []string{"graph", "nodes", "edges"},
		},
		{
			name: "skips short words and stopwords",
			text: "the cat sat with these maps maps",
			n:    5,
			want: []string{"maps"},
		},
		{
			name: "caps at n",
			text: "alpha beta gamma delta",
			n:    2,
			want: []string{"alpha", "beta"},
		},
		{
			name: "empty text",
			text: "",
			n:    5,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrequentWords(tt.text, tt.n)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FrequentWords(%q, %d) = %v, want %v", tt.text, tt.n, got, tt.want)
			}
		})
	}
}
