package queue

import "time"

// Policy is the retry budget for one queue. Delay grows exponentially with
// the attempt number.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Delay returns the wait before the given attempt (1-based). The first retry
// waits one base, the next two, then four and so on.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BackoffBase << (attempt - 1)
}

// Exhausted reports whether another attempt is allowed.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
