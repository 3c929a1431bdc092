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

func TestPlagiarismEngine_ScansAndBuckets(t *testing.T) {
	ai := &fakeAIClient{
		scanResp: &models.PlagiarismScanResponse{
			OverallSimilarity: 65,
			SourcesChecked:    120,
			Matches: []models.PlagiarismMatch{
				{SourceURL: "https://example.com/article", Similarity: 65, SourceType: "web"},
			},
			Analysis: "Substantial overlap with one source.",
		},
	}
	repo := &fakePlagiarismRepo{}
	eng := NewPlagiarismEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.PlagiarismOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Scan.SeverityLevel != string(models.SeverityHigh) {
		t.Errorf("similarity 65 should bucket to high, got %q", result.Scan.SeverityLevel)
	}
	if result.Scan.Status != models.ScanStatusCompleted.String() {
		t.Errorf("expected completed scan, got %q", result.Scan.Status)
	}
	if result.Scan.ContentHash != freshness.Fingerprint(testLesson().Text) {
		t.Error("scan must carry the fingerprint of the analyzed text")
	}
}

func TestPlagiarismEngine_CachedWhenHashUnchanged(t *testing.T) {
	completedAt := time.Now().Add(-time.Hour)
	similarity := 12.0
	repo := &fakePlagiarismRepo{
		latest: &models.PlagiarismScan{
			ID:                "p1",
			ContentType:       models.ContentTypeLesson,
			ContentID:         "lesson-1",
			ContentHash:       freshness.Fingerprint(testLesson().Text),
			OverallSimilarity: &similarity,
			Status:            models.ScanStatusCompleted.String(),
			CompletedAt:       &completedAt,
		},
	}
	ai := &fakeAIClient{}
	eng := NewPlagiarismEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.PlagiarismOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Cached {
		t.Error("unchanged content within window must be served from cache")
	}
	if ai.scanCalls != 0 {
		t.Errorf("expected no AI calls, got %d", ai.scanCalls)
	}
}

func TestPlagiarismEngine_RescansEditedContent(t *testing.T) {
	completedAt := time.Now().Add(-time.Hour)
	similarity := 12.0
	repo := &fakePlagiarismRepo{
		latest: &models.PlagiarismScan{
			ID:                "p1",
			ContentType:       models.ContentTypeLesson,
			ContentID:         "lesson-1",
			ContentHash:       freshness.Fingerprint("the old text before the edit"),
			OverallSimilarity: &similarity,
			Status:            models.ScanStatusCompleted.String(),
			CompletedAt:       &completedAt,
		},
	}
	ai := &fakeAIClient{
		scanResp: &models.PlagiarismScanResponse{OverallSimilarity: 5, SourcesChecked: 10},
	}
	eng := NewPlagiarismEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.PlagiarismOptions{}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Cached {
		t.Error("edited content must be rescanned even within the window")
	}
	if ai.scanCalls != 1 {
		t.Errorf("expected 1 AI call, got %d", ai.scanCalls)
	}
}

func TestPlagiarismEngine_AIFailurePropagates(t *testing.T) {
	ai := &fakeAIClient{scanErr: errors.New("ai service down")}
	repo := &fakePlagiarismRepo{}
	eng := NewPlagiarismEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	_, err := eng.Analyze(context.Background(), lessonSubject(), models.PlagiarismOptions{}, false)
	if err == nil {
		t.Fatal("expected error from failed scan")
	}
	if !IsRetryable(err) {
		t.Errorf("AI failure should be retryable, got %v", err)
	}
	if repo.status != models.ScanStatusFailed.String() {
		t.Errorf("scan record should be marked failed, got %q", repo.status)
	}
}

func TestSeverityForSimilarity(t *testing.T) {
	tests := []struct {
		similarity float64
		want       models.SeverityLevel
	}{
		{100, models.SeveritySevere},
		{80, models.SeveritySevere},
		{79.9, models.SeverityHigh},
		{60, models.SeverityHigh},
		{59.9, models.SeverityModerate},
		{30, models.SeverityModerate},
		{29.9, models.SeverityLow},
		{10, models.SeverityLow},
		{9.9, models.SeverityNone},
		{0, models.SeverityNone},
	}

	for _, tt := range tests {
		if got := models.SeverityForSimilarity(tt.similarity); got != tt.want {
			t.Errorf("SeverityForSimilarity(%v) = %q, want %q", tt.similarity, got, tt.want)
		}
	}
}
