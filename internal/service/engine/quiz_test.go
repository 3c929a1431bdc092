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

func sampleQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{
			Type:          "multiple_choice",
			Question:      "What does a sorting algorithm do?",
			Options:       []string{"Orders data", "Deletes data", "Encrypts data", "Compresses data"},
			CorrectAnswer: "Orders data",
			Difficulty:    "easy",
			Points:        1,
		},
		{
			Type:          "true_false",
			Question:      "Complexity analysis measures algorithm cost.",
			CorrectAnswer: "true",
			Difficulty:    "easy",
			Points:        1,
		},
	}
}

func TestQuizEngine_GeneratesForLesson(t *testing.T) {
	ai := &fakeAIClient{
		quizResp: &models.QuizGenerationResponse{
			Questions:    sampleQuestions(),
			ModelVersion: "v1",
		},
	}
	repo := &fakeQuizRepo{}
	eng := NewQuizEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.QuizOptions{QuestionCount: 2, DifficultyLevel: "easy"}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Quiz.QuestionCount != 2 {
		t.Errorf("expected 2 questions, got %d", result.Quiz.QuestionCount)
	}
	if result.Quiz.Status != models.QuizStatusCompleted.String() {
		t.Errorf("expected completed quiz, got %q", result.Quiz.Status)
	}
	if result.Quiz.ReviewStatus != models.QuizReviewPending {
		t.Errorf("new quiz should await review, got %q", result.Quiz.ReviewStatus)
	}
	if repo.created == nil {
		t.Fatal("quiz record was never persisted")
	}
}

func TestQuizEngine_RejectsCourses(t *testing.T) {
	ai := &fakeAIClient{}
	eng := NewQuizEngine(&fakeQuizRepo{}, newFakeContentClient(), ai, freshness.NewGate(0), zerolog.Nop())

	subject := models.Subject{ContentType: models.ContentTypeCourse, ContentID: "course-1"}
	_, err := eng.Analyze(context.Background(), subject, models.QuizOptions{}, false)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for course subject, got %v", err)
	}
	if ai.quizCalls != 0 {
		t.Errorf("rejected subject must not reach the AI, got %d calls", ai.quizCalls)
	}
}

func TestQuizEngine_CachedWithinWindow(t *testing.T) {
	generatedAt := time.Now().Add(-time.Hour)
	repo := &fakeQuizRepo{
		latest: &models.QuizRecord{
			ID:            "q1",
			LessonID:      "lesson-1",
			QuestionCount: 5,
			Status:        models.QuizStatusCompleted.String(),
			GeneratedAt:   &generatedAt,
		},
	}
	ai := &fakeAIClient{}
	eng := NewQuizEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	result, err := eng.Analyze(context.Background(), lessonSubject(), models.QuizOptions{QuestionCount: 5}, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Cached {
		t.Error("fresh quiz must be served from cache")
	}
	if ai.quizCalls != 0 {
		t.Errorf("expected no AI calls, got %d", ai.quizCalls)
	}
}

func TestQuizEngine_AIFailurePropagates(t *testing.T) {
	ai := &fakeAIClient{quizErr: errors.New("ai service down")}
	repo := &fakeQuizRepo{}
	eng := NewQuizEngine(repo, newFakeContentClient(testLesson()), ai, freshness.NewGate(0), zerolog.Nop())

	_, err := eng.Analyze(context.Background(), lessonSubject(), models.QuizOptions{QuestionCount: 5}, false)
	if err == nil {
		t.Fatal("expected error from failed generation")
	}
	if !IsRetryable(err) {
		t.Errorf("AI failure should be retryable, got %v", err)
	}
	if repo.status != models.QuizStatusFailed.String() {
		t.Errorf("quiz record should be marked failed, got %q", repo.status)
	}
}
