package repository

import (
	"testing"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

// The publisher schedules retries with an x-delay header; declaring a plain
// direct exchange would silently drop the delay and redeliver immediately.
func TestExchangeDeclaredAsDelayedMessage(t *testing.T) {
	if exchangeKind != "x-delayed-message" {
		t.Errorf("exchange kind = %q, want x-delayed-message", exchangeKind)
	}

	args := delayedExchangeArgs()
	inner, ok := args["x-delayed-type"].(string)
	if !ok || inner != "direct" {
		t.Errorf("x-delayed-type argument = %v, want direct", args["x-delayed-type"])
	}
}

func TestQueueForEngine(t *testing.T) {
	tests := []struct {
		engine string
		want   string
	}{
		{models.EngineTags, "analysis.tags"},
		{models.EngineSimilarity, "analysis.similarity"},
		{models.EngineQuality, "analysis.quality"},
		{models.EngineQuiz, "analysis.quiz"},
		{models.EnginePlagiarism, "analysis.plagiarism"},
		{QueueComprehensive, "analysis.comprehensive"},
	}

	for _, tt := range tests {
		if got := QueueForEngine(tt.engine); got != tt.want {
			t.Errorf("QueueForEngine(%q) = %q, want %q", tt.engine, got, tt.want)
		}
	}

	if got := len(AllQueues()); got != 6 {
		t.Errorf("AllQueues() returned %d queues, want 6", got)
	}
}
