package models

import "time"

// ProgressFunc receives monotonically increasing progress percentages while a
// comprehensive or bulk run advances. stage names the step just finished.
type ProgressFunc func(percent int, stage string)

// Engine names double as queue suffixes and error tags.
const (
	EngineTags       = "tags"
	EngineSimilarity = "similarity"
	EngineQuality    = "quality"
	EngineQuiz       = "quiz"
	EnginePlagiarism = "plagiarism"
)

func KnownEngine(name string) bool {
	switch name {
	case EngineTags, EngineSimilarity, EngineQuality, EngineQuiz, EnginePlagiarism:
		return true
	}
	return false
}

type ComprehensiveOptions struct {
	IncludeTags           bool              `json:"include_tags"`
	IncludeQuality        bool              `json:"include_quality"`
	IncludePlagiarism     bool              `json:"include_plagiarism"`
	IncludeQuizGeneration bool              `json:"include_quiz_generation"`
	IncludeSimilarity     bool              `json:"include_similarity"`
	Tags                  TagOptions        `json:"tags,omitempty"`
	Quality               QualityOptions    `json:"quality,omitempty"`
	Plagiarism            PlagiarismOptions `json:"plagiarism,omitempty"`
	Quiz                  QuizOptions       `json:"quiz,omitempty"`
	Similarity            SimilarityOptions `json:"similarity,omitempty"`
}

func DefaultComprehensiveOptions() ComprehensiveOptions {
	return ComprehensiveOptions{
		IncludeTags:           true,
		IncludeQuality:        true,
		IncludePlagiarism:     true,
		IncludeQuizGeneration: true,
		IncludeSimilarity:     true,
		Tags:                  DefaultTagOptions(),
		Quality:               DefaultQualityOptions(),
		Plagiarism:            DefaultPlagiarismOptions(),
		Quiz:                  DefaultQuizOptions(),
		Similarity:            DefaultSimilarityOptions(),
	}
}

// EngineError records one failed comprehensive stage. Retryable carries the
// worker's permanent-vs-retryable classification and never leaves the process.
type EngineError struct {
	Engine    string `json:"engine"`
	Message   string `json:"message"`
	Retryable bool   `json:"-"`
}

type ComprehensiveResults struct {
	Tags           *TagResult        `json:"tags,omitempty"`
	Quality        *QualityResult    `json:"quality,omitempty"`
	Plagiarism     *PlagiarismResult `json:"plagiarism,omitempty"`
	Quiz           *QuizResult       `json:"quiz,omitempty"`
	SimilarContent *SimilarityResult `json:"similarContent,omitempty"`
}

type ComprehensiveResult struct {
	Subject     Subject              `json:"subject"`
	Results     ComprehensiveResults `json:"results"`
	Errors      []EngineError        `json:"errors"`
	Progress    int                  `json:"progress"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
}

type BulkItemResult struct {
	ContentID string `json:"content_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Artifacts int    `json:"artifacts"`
}

type BulkSummary struct {
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	TotalArtifacts int `json:"totalArtifacts"`
}

type BulkResult struct {
	Engine         string           `json:"engine"`
	ContentType    ContentType      `json:"content_type"`
	TotalProcessed int              `json:"totalProcessed"`
	Results        []BulkItemResult `json:"results"`
	Summary        BulkSummary      `json:"summary"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at"`
}
