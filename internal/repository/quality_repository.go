package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type QualityRepository interface {
	Create(ctx context.Context, assessment *models.QualityAssessment) error
	UpdateCompleted(ctx context.Context, id string, score float64, dimensionScores json.RawMessage, level, analysis, source string, improvements json.RawMessage, assessedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
	GetLatest(ctx context.Context, subject models.Subject) (*models.QualityAssessment, error)
	Search(ctx context.Context, filters AssessmentFilters, limit, offset int) ([]models.QualityAssessment, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]models.QualityAssessment, error)
}

type AssessmentFilters struct {
	ContentType  string
	ContentID    string
	QualityLevel string
	Status       string
	LatestOnly   bool
}

type qualityRepository struct {
	*PostgresRepository
}

func NewQualityRepository(db *sql.DB, logger zerolog.Logger) QualityRepository {
	return &qualityRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// Create inserts a new assessment and flips the previous latest record for
// the subject in the same transaction, so is_latest stays exclusive even
// under concurrent callers.
func (r *qualityRepository) Create(ctx context.Context, assessment *models.QualityAssessment) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	flipQuery := `
		UPDATE quality_assessments
		SET is_latest = FALSE, updated_at = NOW()
		WHERE content_type = $1
			AND content_id = $2
			AND is_latest = TRUE
	`

	if _, err := tx.ExecContext(ctx, flipQuery, assessment.ContentType.String(), assessment.ContentID); err != nil {
		return fmt.Errorf("failed to flip previous latest assessment: %w", err)
	}

	insertQuery := `
		INSERT INTO quality_assessments (
			id, content_type, content_id, overall_score, dimension_scores,
			quality_level, analysis, improvements, source, is_latest, status,
			started_at, assessed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		assessment.ID,
		assessment.ContentType.String(),
		assessment.ContentID,
		assessment.OverallScore,
		nullableJSON(assessment.DimensionScores),
		assessment.QualityLevel,
		assessment.Analysis,
		nullableJSON(assessment.Improvements),
		assessment.Source,
		assessment.IsLatest,
		assessment.Status,
		assessment.StartedAt,
		assessment.AssessedAt,
		assessment.CreatedAt,
		assessment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	return tx.Commit()
}

func (r *qualityRepository) UpdateCompleted(ctx context.Context, id string, score float64, dimensionScores json.RawMessage, level, analysis, source string, improvements json.RawMessage, assessedAt time.Time) error {
	query := `
		UPDATE quality_assessments
		SET overall_score = $1,
			dimension_scores = $2,
			quality_level = $3,
			analysis = $4,
			source = $5,
			improvements = $6,
			status = $7,
			assessed_at = $8,
			updated_at = NOW()
		WHERE id = $9
	`

	_, err := r.db.ExecContext(ctx, query,
		score,
		nullableJSON(dimensionScores),
		level,
		analysis,
		source,
		nullableJSON(improvements),
		models.AssessmentStatusCompleted.String(),
		assessedAt,
		id,
	)
	return err
}

func (r *qualityRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE quality_assessments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *qualityRepository) GetLatest(ctx context.Context, subject models.Subject) (*models.QualityAssessment, error) {
	query := assessmentColumns + `
		FROM quality_assessments
		WHERE content_type = $1
			AND content_id = $2
			AND is_latest = TRUE
	`

	row := r.db.QueryRowContext(ctx, query, subject.ContentType.String(), subject.ContentID)

	assessment, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return assessment, nil
}

func (r *qualityRepository) Search(ctx context.Context, filters AssessmentFilters, limit, offset int) ([]models.QualityAssessment, error) {
	builder := sq.Select(
		"id", "content_type", "content_id", "overall_score", "dimension_scores",
		"quality_level", "analysis", "improvements", "source", "is_latest",
		"status", "started_at", "assessed_at", "created_at", "updated_at",
	).
		From("quality_assessments").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar)

	if filters.ContentType != "" {
		builder = builder.Where(sq.Eq{"content_type": filters.ContentType})
	}
	if filters.ContentID != "" {
		builder = builder.Where(sq.Eq{"content_id": filters.ContentID})
	}
	if filters.QualityLevel != "" {
		builder = builder.Where(sq.Eq{"quality_level": filters.QualityLevel})
	}
	if filters.Status != "" {
		builder = builder.Where(sq.Eq{"status": filters.Status})
	}
	if filters.LatestOnly {
		builder = builder.Where(sq.Eq{"is_latest": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAssessments(rows)
}

func (r *qualityRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.QualityAssessment, error) {
	query := assessmentColumns + `
		FROM quality_assessments
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAssessments(rows)
}

const assessmentColumns = `
		SELECT
			id, content_type, content_id, overall_score, dimension_scores,
			quality_level, analysis, improvements, source, is_latest,
			status, started_at, assessed_at, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*models.QualityAssessment, error) {
	assessment := &models.QualityAssessment{}
	var contentType string
	var qualityLevel, analysis sql.NullString
	var dimensionScores, improvements []byte

	err := row.Scan(
		&assessment.ID,
		&contentType,
		&assessment.ContentID,
		&assessment.OverallScore,
		&dimensionScores,
		&qualityLevel,
		&analysis,
		&improvements,
		&assessment.Source,
		&assessment.IsLatest,
		&assessment.Status,
		&assessment.StartedAt,
		&assessment.AssessedAt,
		&assessment.CreatedAt,
		&assessment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	assessment.ContentType = models.ContentType(contentType)
	assessment.QualityLevel = qualityLevel.String
	assessment.Analysis = analysis.String
	assessment.DimensionScores = dimensionScores
	assessment.Improvements = improvements

	return assessment, nil
}

func scanAssessments(rows *sql.Rows) ([]models.QualityAssessment, error) {
	var assessments []models.QualityAssessment
	for rows.Next() {
		assessment, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *assessment)
	}

	return assessments, rows.Err()
}

// nullableJSON keeps empty payloads as SQL NULL instead of invalid jsonb.
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
