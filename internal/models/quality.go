package models

import (
	"encoding/json"
	"time"
)

type AssessmentStatus string

const (
	AssessmentStatusPending    AssessmentStatus = "pending"
	AssessmentStatusProcessing AssessmentStatus = "processing"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
	AssessmentStatusFailed     AssessmentStatus = "failed"
)

func (as AssessmentStatus) String() string {
	return string(as)
}

type QualityLevel string

const (
	QualityLevelExcellent        QualityLevel = "excellent"
	QualityLevelGood             QualityLevel = "good"
	QualityLevelSatisfactory     QualityLevel = "satisfactory"
	QualityLevelNeedsImprovement QualityLevel = "needs_improvement"
	QualityLevelPoor             QualityLevel = "poor"
)

// QualityLevelForScore buckets a 0-100 overall score into a quality level.
// Thresholds are inclusive on the upper side: 90.0 is excellent, 89.9 is good.
func QualityLevelForScore(score float64) QualityLevel {
	switch {
	case score >= 90:
		return QualityLevelExcellent
	case score >= 80:
		return QualityLevelGood
	case score >= 70:
		return QualityLevelSatisfactory
	case score >= 60:
		return QualityLevelNeedsImprovement
	default:
		return QualityLevelPoor
	}
}

// QualityAssessment is one assessment run over a subject. At most one record
// per subject carries IsLatest=true; the repository flips the previous latest
// inside the same transaction that inserts a new one.
type QualityAssessment struct {
	ID              string          `json:"id" db:"id"`
	ContentType     ContentType     `json:"content_type" db:"content_type"`
	ContentID       string          `json:"content_id" db:"content_id"`
	OverallScore    *float64        `json:"overall_score,omitempty" db:"overall_score"`
	DimensionScores json.RawMessage `json:"dimension_scores,omitempty" db:"dimension_scores"`
	QualityLevel    string          `json:"quality_level,omitempty" db:"quality_level"`
	Analysis        string          `json:"analysis,omitempty" db:"analysis"`
	Improvements    json.RawMessage `json:"improvements,omitempty" db:"improvements"`
	Source          string          `json:"source" db:"source"`
	IsLatest        bool            `json:"is_latest" db:"is_latest"`
	Status          string          `json:"status" db:"status"`
	StartedAt       *time.Time      `json:"started_at,omitempty" db:"started_at"`
	AssessedAt      *time.Time      `json:"assessed_at,omitempty" db:"assessed_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type QualityOptions struct {
	Dimensions           []string `json:"dimensions,omitempty"`
	IncludeReadability   bool     `json:"include_readability"`
	IncludeAccessibility bool     `json:"include_accessibility"`
	IncludeEngagement    bool     `json:"include_engagement"`
	DetailedAnalysis     bool     `json:"detailed_analysis"`
	GenerateImprovements bool     `json:"generate_improvements"`
}

func DefaultQualityOptions() QualityOptions {
	return QualityOptions{
		IncludeReadability:   true,
		IncludeAccessibility: true,
		IncludeEngagement:    true,
		DetailedAnalysis:     false,
		GenerateImprovements: true,
	}
}

type QualityResult struct {
	Subject    Subject            `json:"subject"`
	Assessment *QualityAssessment `json:"assessment"`
	Cached     bool               `json:"cached"`
}
