package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.QuizRecord) error
	UpdateCompleted(ctx context.Context, id string, questions json.RawMessage, questionCount int, modelVersion string, generatedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateReviewStatus(ctx context.Context, id, reviewStatus string) error
	GetLatestCompleted(ctx context.Context, lessonID string) (*models.QuizRecord, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.QuizRecord, error)
	SoftDelete(ctx context.Context, id string) error
}

type quizRepository struct {
	*PostgresRepository
}

func NewQuizRepository(db *sql.DB, logger zerolog.Logger) QuizRepository {
	return &quizRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.QuizRecord) error {
	query := `
		INSERT INTO quiz_records (
			id, lesson_id, title, questions, question_count, difficulty,
			model_version, status, review_status, generated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		quiz.ID,
		quiz.LessonID,
		quiz.Title,
		nullableJSON(quiz.Questions),
		quiz.QuestionCount,
		quiz.Difficulty,
		quiz.ModelVersion,
		quiz.Status,
		quiz.ReviewStatus,
		quiz.GeneratedAt,
		quiz.CreatedAt,
	)
	return err
}

func (r *quizRepository) UpdateCompleted(ctx context.Context, id string, questions json.RawMessage, questionCount int, modelVersion string, generatedAt time.Time) error {
	query := `
		UPDATE quiz_records
		SET questions = $1,
			question_count = $2,
			model_version = $3,
			status = $4,
			generated_at = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(ctx, query,
		nullableJSON(questions),
		questionCount,
		modelVersion,
		models.QuizStatusCompleted.String(),
		generatedAt,
		id,
	)
	return err
}

func (r *quizRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE quiz_records SET status = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *quizRepository) UpdateReviewStatus(ctx context.Context, id, reviewStatus string) error {
	query := `UPDATE quiz_records SET review_status = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, reviewStatus, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *quizRepository) GetLatestCompleted(ctx context.Context, lessonID string) (*models.QuizRecord, error) {
	query := quizColumns + `
		FROM quiz_records
		WHERE lesson_id = $1
			AND status = 'completed'
			AND deleted_at IS NULL
		ORDER BY generated_at DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, lessonID)

	quiz, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return quiz, nil
}

func (r *quizRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.QuizRecord, error) {
	query := quizColumns + `
		FROM quiz_records
		WHERE lesson_id = $1
			AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []models.QuizRecord
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *quiz)
	}

	return quizzes, rows.Err()
}

func (r *quizRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE quiz_records
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

const quizColumns = `
		SELECT
			id, lesson_id, title, questions, question_count, difficulty,
			model_version, status, review_status, generated_at, created_at,
			deleted_at
`

func scanQuiz(row rowScanner) (*models.QuizRecord, error) {
	quiz := &models.QuizRecord{}
	var questions []byte
	var modelVersion sql.NullString

	err := row.Scan(
		&quiz.ID,
		&quiz.LessonID,
		&quiz.Title,
		&questions,
		&quiz.QuestionCount,
		&quiz.Difficulty,
		&modelVersion,
		&quiz.Status,
		&quiz.ReviewStatus,
		&quiz.GeneratedAt,
		&quiz.CreatedAt,
		&quiz.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	quiz.Questions = questions
	quiz.ModelVersion = modelVersion.String

	return quiz, nil
}
