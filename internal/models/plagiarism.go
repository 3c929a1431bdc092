package models

import (
	"encoding/json"
	"time"
)

type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusScanning  ScanStatus = "scanning"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

func (ss ScanStatus) String() string {
	return string(ss)
}

type SeverityLevel string

const (
	SeverityNone     SeverityLevel = "none"
	SeverityLow      SeverityLevel = "low"
	SeverityModerate SeverityLevel = "moderate"
	SeverityHigh     SeverityLevel = "high"
	SeveritySevere   SeverityLevel = "severe"
)

// SeverityForSimilarity buckets an overall similarity percentage into a
// severity level. Thresholds are inclusive on the upper side: 60.0 is high,
// 59.9 is moderate.
func SeverityForSimilarity(similarity float64) SeverityLevel {
	switch {
	case similarity >= 80:
		return SeveritySevere
	case similarity >= 60:
		return SeverityHigh
	case similarity >= 30:
		return SeverityModerate
	case similarity >= 10:
		return SeverityLow
	default:
		return SeverityNone
	}
}

type PlagiarismMatch struct {
	SourceURL     string  `json:"source_url,omitempty"`
	SourceTitle   string  `json:"source_title,omitempty"`
	Similarity    float64 `json:"similarity"`
	MatchedText   string  `json:"matched_text"`
	StartPosition int     `json:"start_position"`
	EndPosition   int     `json:"end_position"`
	SourceType    string  `json:"source_type"`
	Confidence    float64 `json:"confidence"`
}

// PlagiarismScan stores one scan over a subject. ContentHash is the SHA-256
// fingerprint of the text that was scanned; a cached scan is only reused if
// the current text still hashes to the same value.
type PlagiarismScan struct {
	ID                string          `json:"id" db:"id"`
	ContentType       ContentType     `json:"content_type" db:"content_type"`
	ContentID         string          `json:"content_id" db:"content_id"`
	ContentHash       string          `json:"content_hash" db:"content_hash"`
	OverallSimilarity *float64        `json:"overall_similarity,omitempty" db:"overall_similarity"`
	SeverityLevel     string          `json:"severity_level,omitempty" db:"severity_level"`
	SourcesChecked    int             `json:"sources_checked" db:"sources_checked"`
	Matches           json.RawMessage `json:"matches,omitempty" db:"matches"`
	Analysis          string          `json:"analysis,omitempty" db:"analysis"`
	Status            string          `json:"status" db:"status"`
	StartedAt         *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

type PlagiarismOptions struct {
	CheckWebSources      bool     `json:"check_web_sources"`
	CheckAcademicSources bool     `json:"check_academic_sources"`
	CheckInternalSources bool     `json:"check_internal_sources"`
	CheckStudentWork     bool     `json:"check_student_work"`
	SensitivityLevel     string   `json:"sensitivity_level"`
	ExcludedSources      []string `json:"excluded_sources,omitempty"`
}

func DefaultPlagiarismOptions() PlagiarismOptions {
	return PlagiarismOptions{
		CheckWebSources:      true,
		CheckInternalSources: true,
		SensitivityLevel:     "medium",
	}
}

type PlagiarismResult struct {
	Subject Subject         `json:"subject"`
	Scan    *PlagiarismScan `json:"scan"`
	Cached  bool            `json:"cached"`
}
