// Package freshness decides whether a stored analysis result may be reused
// instead of recomputed.
package freshness

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultWindow is how long a completed record stays reusable.
const DefaultWindow = 7 * 24 * time.Hour

type Gate struct {
	window time.Duration
	now    func() time.Time
}

func NewGate(window time.Duration) Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return Gate{window: window, now: time.Now}
}

// NewGateAt pins the clock, for tests.
func NewGateAt(window time.Duration, now func() time.Time) Gate {
	g := NewGate(window)
	g.now = now
	return g
}

func (g Gate) Window() time.Duration {
	return g.window
}

// Reusable reports whether a record with the given status and completion time
// still satisfies the freshness window. force always wins.
func (g Gate) Reusable(status string, completedAt *time.Time, force bool) bool {
	if force {
		return false
	}
	if status != "completed" && status != "calculated" {
		return false
	}
	if completedAt == nil {
		return false
	}
	return g.now().Sub(*completedAt) <= g.window
}

// ReusableScan adds the plagiarism rule: content that changed is always
// rescanned, even inside the window.
func (g Gate) ReusableScan(status string, completedAt *time.Time, storedHash, currentText string, force bool) bool {
	if !g.Reusable(status, completedAt, force) {
		return false
	}
	return storedHash == Fingerprint(currentText)
}

// Fingerprint is the SHA-256 hex digest of the UTF-8 text, lowercase.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
