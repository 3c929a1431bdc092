package queue

import (
	"testing"
	"time"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3, BackoffBase: 2 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{0, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestPolicyExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 2, BackoffBase: time.Second}

	if p.Exhausted(1) {
		t.Error("attempt 1 of 2 must not be exhausted")
	}
	if !p.Exhausted(2) {
		t.Error("attempt 2 of 2 must be exhausted")
	}
	if !p.Exhausted(3) {
		t.Error("attempt beyond the budget must be exhausted")
	}
}
