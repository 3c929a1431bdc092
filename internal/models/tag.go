package models

import "time"

type TagStatus string

const (
	TagStatusPending    TagStatus = "pending"
	TagStatusProcessing TagStatus = "processing"
	TagStatusCompleted  TagStatus = "completed"
	TagStatusFailed     TagStatus = "failed"
)

func (ts TagStatus) String() string {
	return string(ts)
}

const (
	TagSourceAI       = "ai"
	TagSourceFallback = "frequency_fallback"
)

type ContentTag struct {
	ID          string      `json:"id" db:"id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	ContentID   string      `json:"content_id" db:"content_id"`
	Name        string      `json:"name" db:"name"`
	Category    string      `json:"category" db:"category"`
	Confidence  float64     `json:"confidence" db:"confidence"`
	Source      string      `json:"source" db:"source"`
	Status      string      `json:"status" db:"status"`
	GeneratedAt *time.Time  `json:"generated_at,omitempty" db:"generated_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

type TagOptions struct {
	MaxTags       int      `json:"max_tags"`
	Categories    []string `json:"categories,omitempty"`
	MinConfidence float64  `json:"min_confidence"`
}

func DefaultTagOptions() TagOptions {
	return TagOptions{
		MaxTags:       10,
		MinConfidence: 0.5,
	}
}

type TagResult struct {
	Subject Subject      `json:"subject"`
	Tags    []ContentTag `json:"tags"`
	Source  string       `json:"source"`
	Cached  bool         `json:"cached"`
}
