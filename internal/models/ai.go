package models

import (
	"errors"
	"fmt"
)

// AIContent is the normalized content block every inference request carries.
type AIContent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// --- Tagging ---

type TagGenerationRequest struct {
	Content     AIContent      `json:"content"`
	Preferences TagPreferences `json:"preferences"`
}

type TagPreferences struct {
	MaxTags       int      `json:"maxTags"`
	Categories    []string `json:"categories,omitempty"`
	MinConfidence float64  `json:"minConfidence"`
}

type AITag struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Description    string   `json:"description,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Context        string   `json:"context,omitempty"`
	RelevanceScore float64  `json:"relevanceScore,omitempty"`
}

type TagGenerationResponse struct {
	Tags             []AITag `json:"tags"`
	ModelVersion     string  `json:"model_version"`
	ExtractionMethod string  `json:"extraction_method"`
	AlgorithmUsed    string  `json:"algorithm_used"`
	ProcessingTime   float64 `json:"processing_time"`
}

func (r *TagGenerationResponse) Validate() error {
	if len(r.Tags) == 0 {
		return errors.New("tag response contains no tags")
	}
	for i, tag := range r.Tags {
		if tag.Name == "" {
			return fmt.Errorf("tag %d has empty name", i)
		}
		if tag.Confidence < 0 || tag.Confidence > 1 {
			return fmt.Errorf("tag %q confidence %v out of range [0,1]", tag.Name, tag.Confidence)
		}
	}
	return nil
}

// --- Similarity ---

type SimilarityCalculationRequest struct {
	TargetContent     AIContent   `json:"targetContent"`
	CandidateContents []AIContent `json:"candidateContents"`
	SimilarityType    string      `json:"similarityType"`
}

type AISimilarity struct {
	SimilarityScore   float64  `json:"similarityScore"`
	SimilarityReasons []string `json:"similarityReasons,omitempty"`
}

type SimilarityProcessingInfo struct {
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type SimilarityCalculationResponse struct {
	Similarities   []AISimilarity           `json:"similarities"`
	AlgorithmUsed  string                   `json:"algorithm_used"`
	ProcessingInfo SimilarityProcessingInfo `json:"processing_info"`
}

// Validate checks that the response carries exactly one score per candidate.
func (r *SimilarityCalculationResponse) Validate(candidates int) error {
	if len(r.Similarities) != candidates {
		return fmt.Errorf("similarity response has %d entries, expected %d", len(r.Similarities), candidates)
	}
	for i, sim := range r.Similarities {
		if sim.SimilarityScore < 0 || sim.SimilarityScore > 100 {
			return fmt.Errorf("similarity %d score %v out of range [0,100]", i, sim.SimilarityScore)
		}
	}
	return nil
}

// --- Quality assessment ---

// QualityDimensions are the eight scored dimensions, each 0-100.
var QualityDimensions = []string{
	"clarity", "accuracy", "completeness", "engagement",
	"structure", "readability", "accessibility", "relevance",
}

type QualityAssessmentRequest struct {
	Content            AIContent          `json:"content"`
	AssessmentCriteria AssessmentCriteria `json:"assessmentCriteria"`
}

type AssessmentCriteria struct {
	Dimensions           []string `json:"dimensions,omitempty"`
	IncludeReadability   bool     `json:"includeReadability"`
	IncludeAccessibility bool     `json:"includeAccessibility"`
	IncludeEngagement    bool     `json:"includeEngagement"`
	DetailedAnalysis     bool     `json:"detailedAnalysis"`
	GenerateImprovements bool     `json:"generateImprovements"`
}

type QualityAssessmentResponse struct {
	OverallScore    float64            `json:"overall_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	Analysis        string             `json:"analysis,omitempty"`
	Improvements    []string           `json:"improvements,omitempty"`
	ModelVersion    string             `json:"model_version"`
	ProcessingTime  float64            `json:"processing_time"`
	Confidence      float64            `json:"confidence"`
}

func (r *QualityAssessmentResponse) Validate() error {
	if r.OverallScore < 0 || r.OverallScore > 100 {
		return fmt.Errorf("overall score %v out of range [0,100]", r.OverallScore)
	}
	for _, dim := range QualityDimensions {
		score, ok := r.DimensionScores[dim]
		if !ok {
			return fmt.Errorf("missing dimension score %q", dim)
		}
		if score < 0 || score > 100 {
			return fmt.Errorf("dimension %q score %v out of range [0,100]", dim, score)
		}
	}
	return nil
}

// --- Quiz generation ---

type QuizGenerationRequest struct {
	Content      AIContent        `json:"content"`
	Requirements QuizRequirements `json:"requirements"`
}

type QuizRequirements struct {
	QuestionCount       int      `json:"questionCount"`
	DifficultyLevel     string   `json:"difficultyLevel"`
	QuestionTypes       []string `json:"questionTypes,omitempty"`
	TargetObjectives    []string `json:"targetObjectives,omitempty"`
	IncludeExplanations bool     `json:"includeExplanations"`
	CustomPrompt        string   `json:"customPrompt,omitempty"`
	TimeLimit           int      `json:"timeLimit,omitempty"`
}

type QuizGenerationResponse struct {
	Questions         []QuizQuestion `json:"questions"`
	QualityAssessment string         `json:"quality_assessment,omitempty"`
	ModelVersion      string         `json:"model_version"`
	GenerationPrompt  string         `json:"generation_prompt"`
	Analysis          string         `json:"analysis,omitempty"`
	ProcessingTime    float64        `json:"processing_time"`
	Confidence        float64        `json:"confidence"`
}

func (r *QuizGenerationResponse) Validate() error {
	if len(r.Questions) == 0 {
		return errors.New("quiz response contains no questions")
	}
	for i, q := range r.Questions {
		if q.Question == "" {
			return fmt.Errorf("question %d has empty text", i)
		}
		if q.CorrectAnswer == "" {
			return fmt.Errorf("question %d has no correct answer", i)
		}
	}
	return nil
}

// --- Plagiarism ---

type PlagiarismScanRequest struct {
	Content     AIContent   `json:"content"`
	ScanOptions ScanOptions `json:"scanOptions"`
}

type ScanOptions struct {
	CheckWebSources      bool     `json:"checkWebSources"`
	CheckAcademicSources bool     `json:"checkAcademicSources"`
	CheckInternalSources bool     `json:"checkInternalSources"`
	CheckStudentWork     bool     `json:"checkStudentWork"`
	SensitivityLevel     string   `json:"sensitivityLevel"`
	ExcludedSources      []string `json:"excludedSources,omitempty"`
}

type PlagiarismScanResponse struct {
	OverallSimilarity float64           `json:"overall_similarity"`
	SourcesChecked    int               `json:"sources_checked"`
	Matches           []PlagiarismMatch `json:"matches"`
	Analysis          string            `json:"analysis,omitempty"`
	ProcessingTime    float64           `json:"processing_time"`
	ScanProvider      string            `json:"scan_provider,omitempty"`
	ScanVersion       string            `json:"scan_version,omitempty"`
	Confidence        float64           `json:"confidence"`
}

func (r *PlagiarismScanResponse) Validate() error {
	if r.OverallSimilarity < 0 || r.OverallSimilarity > 100 {
		return fmt.Errorf("overall similarity %v out of range [0,100]", r.OverallSimilarity)
	}
	if r.SourcesChecked < 0 {
		return fmt.Errorf("sources checked is negative: %d", r.SourcesChecked)
	}
	for i, m := range r.Matches {
		if m.Similarity < 0 || m.Similarity > 100 {
			return fmt.Errorf("match %d similarity %v out of range [0,100]", i, m.Similarity)
		}
	}
	return nil
}
