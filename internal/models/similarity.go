package models

import "time"

type SimilarityStatus string

const (
	SimilarityStatusProcessing SimilarityStatus = "processing"
	SimilarityStatusCalculated SimilarityStatus = "calculated"
	SimilarityStatusFailed     SimilarityStatus = "failed"
	SimilarityStatusOutdated   SimilarityStatus = "outdated"
)

func (ss SimilarityStatus) String() string {
	return string(ss)
}

// SimilarityRecord is one edge between the analyzed subject and a compared
// content item. OverallSimilarity is only set once the record is calculated.
type SimilarityRecord struct {
	ID                string      `json:"id" db:"id"`
	ContentType       ContentType `json:"content_type" db:"content_type"`
	ContentID         string      `json:"content_id" db:"content_id"`
	ComparedContentID string      `json:"compared_content_id" db:"compared_content_id"`
	SimilarityType    string      `json:"similarity_type" db:"similarity_type"`
	OverallSimilarity *float64    `json:"overall_similarity,omitempty" db:"overall_similarity"`
	AnalysisNotes     []string    `json:"analysis_notes,omitempty" db:"analysis_notes"`
	Status            string      `json:"status" db:"status"`
	CalculatedAt      *time.Time  `json:"calculated_at,omitempty" db:"calculated_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

type SimilarityOptions struct {
	SimilarityType string   `json:"similarity_type"`
	CandidateIDs   []string `json:"candidate_ids,omitempty"`
}

func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{SimilarityType: "semantic"}
}

type SimilarContent struct {
	ContentID       string   `json:"content_id"`
	SimilarityScore float64  `json:"similarity_score"`
	Reasons         []string `json:"reasons,omitempty"`
}

type SimilarityResult struct {
	Subject        Subject          `json:"subject"`
	SimilarityType string           `json:"similarity_type"`
	Similar        []SimilarContent `json:"similar"`
	Cached         bool             `json:"cached"`
}
