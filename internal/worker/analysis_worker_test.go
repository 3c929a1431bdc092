package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/coordinator"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker/queue"
)

type stubTagAnalyzer struct{ err error }

func (s *stubTagAnalyzer) Analyze(ctx context.Context, subject models.Subject, opts models.TagOptions, force bool) (*models.TagResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.TagResult{Subject: subject, Tags: []models.ContentTag{{Name: "algebra"}}}, nil
}

type stubQualityAnalyzer struct{ err error }

func (s *stubQualityAnalyzer) Analyze(ctx context.Context, subject models.Subject, opts models.QualityOptions, force bool) (*models.QualityResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.QualityResult{Subject: subject, Assessment: &models.QualityAssessment{ID: "qa-1"}}, nil
}

type stubPlagiarismAnalyzer struct{ err error }

func (s *stubPlagiarismAnalyzer) Analyze(ctx context.Context, subject models.Subject, opts models.PlagiarismOptions, force bool) (*models.PlagiarismResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PlagiarismResult{Subject: subject, Scan: &models.PlagiarismScan{ID: "scan-1"}}, nil
}

type stubQuizAnalyzer struct{ err error }

func (s *stubQuizAnalyzer) Analyze(ctx context.Context, subject models.Subject, opts models.QuizOptions, force bool) (*models.QuizResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.QuizResult{Subject: subject, Quiz: &models.QuizRecord{ID: "quiz-1"}}, nil
}

type stubSimilarityAnalyzer struct{ err error }

func (s *stubSimilarityAnalyzer) Analyze(ctx context.Context, subject models.Subject, opts models.SimilarityOptions, force bool) (*models.SimilarityResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.SimilarityResult{Subject: subject, Similar: []models.SimilarContent{{ContentID: "l2"}}}, nil
}

type publishedRetry struct {
	routingKey string
	msgType    string
	attempt    int
	delay      time.Duration
}

type recordingPublisher struct {
	retries []publishedRetry
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey, msgType string, body []byte) error {
	return nil
}

func (p *recordingPublisher) PublishWithDelay(ctx context.Context, exchange, routingKey, msgType string, body []byte, attempt int, delay time.Duration) error {
	p.retries = append(p.retries, publishedRetry{routingKey: routingKey, msgType: msgType, attempt: attempt, delay: delay})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testWorker(everyEngineErr error, publisher queue.RabbitMQPublisher) *analysisWorker {
	coord := coordinator.NewCoordinator(
		&stubTagAnalyzer{err: everyEngineErr},
		&stubQualityAnalyzer{err: everyEngineErr},
		&stubPlagiarismAnalyzer{err: everyEngineErr},
		&stubQuizAnalyzer{err: everyEngineErr},
		&stubSimilarityAnalyzer{err: everyEngineErr},
		50,
		zerolog.Nop(),
	)

	return &analysisWorker{
		publisher:   publisher,
		coordinator: coord,
		policies: map[string]queue.Policy{
			repository.QueueForEngine(repository.QueueComprehensive): {MaxAttempts: 3, BackoffBase: 2 * time.Second},
			repository.QueueForEngine(models.EngineQuality):          {MaxAttempts: 2, BackoffBase: time.Second},
		},
		exchange:  "content_analysis_exchange",
		logger:    zerolog.Nop(),
		startTime: time.Now(),
	}
}

func comprehensiveMessage(t *testing.T, attempt int, acked *int) queue.RabbitMQMessage {
	t.Helper()

	job := models.ComprehensiveJob{
		ContentType: models.ContentTypeLesson,
		ContentID:   "lesson-1",
		Options:     models.DefaultComprehensiveOptions(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("failed to marshal job: %v", err)
	}

	return queue.RabbitMQMessage{
		Queue:   repository.QueueForEngine(repository.QueueComprehensive),
		Type:    models.JobTypeComprehensive,
		Attempt: attempt,
		Body:    body,
		Ack:     func(multiple bool) error { *acked++; return nil },
		Nack:    func(multiple bool, requeue bool) error { return nil },
	}
}

func TestHandleMessage_ComprehensiveAIFailureRepublished(t *testing.T) {
	publisher := &recordingPublisher{}
	aiErr := &engine.AIServiceError{Engine: models.EngineTags, Err: errors.New("inference timeout")}
	w := testWorker(aiErr, publisher)

	var acked int
	msg := comprehensiveMessage(t, 1, &acked)

	w.handleMessage(context.Background(), msg)

	if acked != 1 {
		t.Fatalf("message acked %d times, want 1", acked)
	}
	if len(publisher.retries) != 1 {
		t.Fatalf("got %d republishes, want 1", len(publisher.retries))
	}

	retry := publisher.retries[0]
	if retry.attempt != 2 {
		t.Errorf("republished attempt = %d, want 2", retry.attempt)
	}
	if want := 2 * time.Second; retry.delay != want {
		t.Errorf("republished delay = %v, want %v", retry.delay, want)
	}
	if retry.msgType != models.JobTypeComprehensive {
		t.Errorf("republished type = %q, want %q", retry.msgType, models.JobTypeComprehensive)
	}
	if w.stats.RetriedJobs != 1 {
		t.Errorf("RetriedJobs = %d, want 1", w.stats.RetriedJobs)
	}
}

func TestHandleMessage_ComprehensiveNotFoundIsTerminal(t *testing.T) {
	publisher := &recordingPublisher{}
	w := testWorker(engine.ErrNotFound, publisher)

	var acked int
	msg := comprehensiveMessage(t, 1, &acked)

	w.handleMessage(context.Background(), msg)

	if acked != 1 {
		t.Fatalf("message acked %d times, want 1", acked)
	}
	if len(publisher.retries) != 0 {
		t.Fatalf("missing subject republished %d times, want 0", len(publisher.retries))
	}
	if w.stats.RetriedJobs != 0 {
		t.Errorf("RetriedJobs = %d, want 0", w.stats.RetriedJobs)
	}
}

func TestHandleMessage_PartialComprehensiveFailureNotRetried(t *testing.T) {
	publisher := &recordingPublisher{}
	w := testWorker(nil, publisher)

	// Only quality fails; the job still produced results and must not retry.
	coord := coordinator.NewCoordinator(
		&stubTagAnalyzer{},
		&stubQualityAnalyzer{err: &engine.AIServiceError{Engine: models.EngineQuality, Err: errors.New("inference timeout")}},
		&stubPlagiarismAnalyzer{},
		&stubQuizAnalyzer{},
		&stubSimilarityAnalyzer{},
		50,
		zerolog.Nop(),
	)
	w.coordinator = coord

	var acked int
	msg := comprehensiveMessage(t, 1, &acked)

	w.handleMessage(context.Background(), msg)

	if len(publisher.retries) != 0 {
		t.Fatalf("partially successful job republished %d times, want 0", len(publisher.retries))
	}
	if w.stats.TotalProcessed != 1 {
		t.Errorf("TotalProcessed = %d, want 1", w.stats.TotalProcessed)
	}
}

func TestHandleMessage_EngineRetryBudgetExhausted(t *testing.T) {
	publisher := &recordingPublisher{}
	aiErr := &engine.AIServiceError{Engine: models.EngineQuality, Err: errors.New("inference timeout")}
	w := testWorker(aiErr, publisher)

	job := models.EngineJob{
		Engine:      models.EngineQuality,
		ContentType: models.ContentTypeLesson,
		ContentID:   "lesson-1",
	}
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("failed to marshal job: %v", err)
	}

	var acked int
	msg := queue.RabbitMQMessage{
		Queue:   repository.QueueForEngine(models.EngineQuality),
		Type:    models.JobTypeEngine,
		Attempt: 2, // max_attempts for the quality queue
		Body:    body,
		Ack:     func(multiple bool) error { acked++; return nil },
	}

	w.handleMessage(context.Background(), msg)

	if acked != 1 {
		t.Fatalf("message acked %d times, want 1", acked)
	}
	if len(publisher.retries) != 0 {
		t.Fatalf("exhausted job republished %d times, want 0", len(publisher.retries))
	}
	if w.stats.FailedJobs != 1 {
		t.Errorf("FailedJobs = %d, want 1", w.stats.FailedJobs)
	}
}

func TestHandleMessage_MalformedJobIsTerminal(t *testing.T) {
	publisher := &recordingPublisher{}
	w := testWorker(nil, publisher)

	var acked int
	msg := queue.RabbitMQMessage{
		Queue:   repository.QueueForEngine(models.EngineTags),
		Type:    models.JobTypeEngine,
		Attempt: 1,
		Body:    []byte(`{not json`),
		Ack:     func(multiple bool) error { acked++; return nil },
	}

	w.handleMessage(context.Background(), msg)

	if acked != 1 {
		t.Fatalf("message acked %d times, want 1", acked)
	}
	if len(publisher.retries) != 0 {
		t.Fatalf("malformed job republished %d times, want 0", len(publisher.retries))
	}
	if w.stats.FailedJobs != 1 {
		t.Errorf("FailedJobs = %d, want 1", w.stats.FailedJobs)
	}
}
