package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
)

func candidateLesson(id string) *models.Content {
	return &models.Content{
		ID:    id,
		Type:  models.ContentTypeLesson,
		Title: "Candidate " + id,
		Text:  "Candidate lesson body " + id,
	}
}

func TestSimilarityEngine_CalculatesSortedResults(t *testing.T) {
	ai := &fakeAIClient{
		simResp: &models.SimilarityCalculationResponse{
			Similarities: []models.AISimilarity{
				{SimilarityScore: 42, SimilarityReasons: []string{"shared topic"}},
				{SimilarityScore: 87, SimilarityReasons: []string{"near duplicate section"}},
			},
			AlgorithmUsed: "semantic-embedding",
		},
	}
	repo := &fakeSimilarityRepo{}
	client := newFakeContentClient(testLesson(), candidateLesson("lesson-2"), candidateLesson("lesson-3"))
	client.listIDs = []string{"lesson-2", "lesson-3"}
	eng := NewSimilarityEngine(repo, client, ai, freshness.NewGate(0), 10, zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.SimilarityOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(result.Similar) != 2 {
		t.Fatalf("expected 2 similar items, got %d", len(result.Similar))
	}
	if result.Similar[0].SimilarityScore < result.Similar[1].SimilarityScore {
		t.Error("results must be sorted by score descending")
	}
	if result.Similar[0].ContentID != "lesson-3" {
		t.Errorf("highest scoring candidate should be lesson-3, got %s", result.Similar[0].ContentID)
	}
	if len(repo.created) != 2 {
		t.Errorf("expected 2 edge records, got %d", len(repo.created))
	}
	if len(repo.updated) != 2 {
		t.Errorf("expected 2 calculated edges, got %d", len(repo.updated))
	}
	if result.SimilarityType != "semantic" {
		t.Errorf("empty options should default to semantic, got %q", result.SimilarityType)
	}
}

func TestSimilarityEngine_ExplicitCandidates(t *testing.T) {
	ai := &fakeAIClient{
		simResp: &models.SimilarityCalculationResponse{
			Similarities: []models.AISimilarity{{SimilarityScore: 10}},
		},
	}
	repo := &fakeSimilarityRepo{}
	client := newFakeContentClient(testLesson(), candidateLesson("lesson-5"))
	eng := NewSimilarityEngine(repo, client, ai, freshness.NewGate(0), 10, zerolog.Nop())

	opts := models.SimilarityOptions{CandidateIDs: []string{"lesson-5", "lesson-gone"}}
	result, err := eng.Analyze(context.Background(), lessonSubject(), opts, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// lesson-gone does not resolve and is skipped, not an error.
	if len(result.Similar) != 1 {
		t.Fatalf("expected 1 similar item, got %d", len(result.Similar))
	}
	if result.Similar[0].ContentID != "lesson-5" {
		t.Errorf("unexpected candidate %s", result.Similar[0].ContentID)
	}
}

func TestSimilarityEngine_NoCandidatesSkipsAI(t *testing.T) {
	ai := &fakeAIClient{}
	eng := NewSimilarityEngine(&fakeSimilarityRepo{}, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), 10, zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.SimilarityOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Similar) != 0 {
		t.Errorf("expected empty result, got %d items", len(result.Similar))
	}
	if ai.simCalls != 0 {
		t.Errorf("no candidates must mean no AI calls, got %d", ai.simCalls)
	}
}

func TestSimilarityEngine_CachedWithinWindow(t *testing.T) {
	calculatedAt := time.Now().Add(-time.Hour)
	score := 55.0
	repo := &fakeSimilarityRepo{
		calculated: []models.SimilarityRecord{{
			ID:                "s1",
			ContentType:       models.ContentTypeLesson,
			ContentID:         "lesson-1",
			ComparedContentID: "lesson-2",
			SimilarityType:    "semantic",
			OverallSimilarity: &score,
			Status:            models.SimilarityStatusCalculated.String(),
			CalculatedAt:      &calculatedAt,
		}},
	}
	ai := &fakeAIClient{}
	eng := NewSimilarityEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), 10, zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.SimilarityOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Cached {
		t.Error("fresh calculated records must be served from cache")
	}
	if ai.simCalls != 0 {
		t.Errorf("expected no AI calls, got %d", ai.simCalls)
	}
	if result.Similar[0].SimilarityScore != 55 {
		t.Errorf("cached score %v, want 55", result.Similar[0].SimilarityScore)
	}
}

func TestSimilarityEngine_AIFailureMarksBatchFailed(t *testing.T) {
	ai := &fakeAIClient{simErr: errors.New("ai service down")}
	repo := &fakeSimilarityRepo{}
	client := newFakeContentClient(testLesson(), candidateLesson("lesson-2"))
	client.listIDs = []string{"lesson-2"}
	eng := NewSimilarityEngine(repo, client, ai, freshness.NewGate(0), 10, zerolog.Nop())

	_, err := eng.Analyze(context.Background(), lessonSubject(), models.SimilarityOptions{}, false)
	if err == nil {
		t.Fatal("expected error from failed calculation")
	}
	if !IsRetryable(err) {
		t.Errorf("AI failure should be retryable, got %v", err)
	}
	if len(repo.failedIDs) != 1 {
		t.Errorf("expected 1 failed edge record, got %d", len(repo.failedIDs))
	}
}

func TestSimilarityEngine_CandidateCap(t *testing.T) {
	ai := &fakeAIClient{
		simResp: &models.SimilarityCalculationResponse{
			Similarities: []models.AISimilarity{{SimilarityScore: 1}, {SimilarityScore: 2}},
		},
	}
	repo := &fakeSimilarityRepo{}
	client := newFakeContentClient(testLesson(), candidateLesson("c1"), candidateLesson("c2"), candidateLesson("c3"))
	client.listIDs = []string{"c1", "c2", "c3"}
	eng := NewSimilarityEngine(repo, client, ai, freshness.NewGate(0), 2, zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.SimilarityOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Similar) != 2 {
		t.Errorf("candidate cap 2 should limit comparisons, got %d", len(result.Similar))
	}
}
