package models

import (
	"encoding/json"
	"time"
)

type QuizStatus string

const (
	QuizStatusPending    QuizStatus = "pending"
	QuizStatusProcessing QuizStatus = "processing"
	QuizStatusCompleted  QuizStatus = "completed"
	QuizStatusFailed     QuizStatus = "failed"
)

func (qs QuizStatus) String() string {
	return string(qs)
}

const (
	QuizReviewPending  = "pending_review"
	QuizReviewApproved = "approved"
	QuizReviewRejected = "rejected"
)

type QuizQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
	EstimatedTime int      `json:"estimated_time"`
	Keywords      []string `json:"keywords,omitempty"`
}

// QuizRecord is a generated quiz for a lesson. Quiz generation only applies
// to lessons; courses are rejected before a record is created.
type QuizRecord struct {
	ID            string          `json:"id" db:"id"`
	LessonID      string          `json:"lesson_id" db:"lesson_id"`
	Title         string          `json:"title" db:"title"`
	Questions     json.RawMessage `json:"questions,omitempty" db:"questions"`
	QuestionCount int             `json:"question_count" db:"question_count"`
	Difficulty    string          `json:"difficulty" db:"difficulty"`
	ModelVersion  string          `json:"model_version,omitempty" db:"model_version"`
	Status        string          `json:"status" db:"status"`
	ReviewStatus  string          `json:"review_status" db:"review_status"`
	GeneratedAt   *time.Time      `json:"generated_at,omitempty" db:"generated_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

type QuizOptions struct {
	QuestionCount       int      `json:"question_count"`
	DifficultyLevel     string   `json:"difficulty_level"`
	QuestionTypes       []string `json:"question_types,omitempty"`
	TargetObjectives    []string `json:"target_objectives,omitempty"`
	IncludeExplanations bool     `json:"include_explanations"`
	CustomPrompt        string   `json:"custom_prompt,omitempty"`
	TimeLimit           int      `json:"time_limit,omitempty"`
}

func DefaultQuizOptions() QuizOptions {
	return QuizOptions{
		QuestionCount:       10,
		DifficultyLevel:     "medium",
		QuestionTypes:       []string{"multiple_choice", "true_false"},
		IncludeExplanations: true,
	}
}

type QuizResult struct {
	Subject Subject     `json:"subject"`
	Quiz    *QuizRecord `json:"quiz"`
	Cached  bool        `json:"cached"`
}
