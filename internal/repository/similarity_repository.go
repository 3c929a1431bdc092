package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type SimilarityRepository interface {
	CreateBatch(ctx context.Context, records []models.SimilarityRecord) error
	UpdateCalculated(ctx context.Context, id string, score float64, notes []string, calculatedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
	MarkBatchFailed(ctx context.Context, ids []string) error
	GetCalculated(ctx context.Context, subject models.Subject, similarityType string) ([]models.SimilarityRecord, error)
	MarkOutdated(ctx context.Context, olderThan time.Time) (int64, error)
}

type similarityRepository struct {
	*PostgresRepository
}

func NewSimilarityRepository(db *sql.DB, logger zerolog.Logger) SimilarityRepository {
	return &similarityRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *similarityRepository) CreateBatch(ctx context.Context, records []models.SimilarityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO similarity_records (
			id, content_type, content_id, compared_content_id, similarity_type,
			overall_similarity, analysis_notes, status, calculated_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, query,
			rec.ID,
			rec.ContentType.String(),
			rec.ContentID,
			rec.ComparedContentID,
			rec.SimilarityType,
			rec.OverallSimilarity,
			pq.Array(rec.AnalysisNotes),
			rec.Status,
			rec.CalculatedAt,
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *similarityRepository) UpdateCalculated(ctx context.Context, id string, score float64, notes []string, calculatedAt time.Time) error {
	query := `
		UPDATE similarity_records
		SET overall_similarity = $1,
			analysis_notes = $2,
			status = $3,
			calculated_at = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		score,
		pq.Array(notes),
		models.SimilarityStatusCalculated.String(),
		calculatedAt,
		id,
	)
	return err
}

func (r *similarityRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE similarity_records
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *similarityRepository) MarkBatchFailed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE similarity_records
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`

	_, err := r.db.ExecContext(ctx, query, models.SimilarityStatusFailed.String(), pq.Array(ids))
	return err
}

// GetCalculated returns the calculated edges of the most recent run for the
// subject and similarity type, best match first.
func (r *similarityRepository) GetCalculated(ctx context.Context, subject models.Subject, similarityType string) ([]models.SimilarityRecord, error) {
	query := `
		SELECT
			id, content_type, content_id, compared_content_id, similarity_type,
			overall_similarity, analysis_notes, status, calculated_at,
			created_at, updated_at
		FROM similarity_records
		WHERE content_type = $1
			AND content_id = $2
			AND similarity_type = $3
			AND status = 'calculated'
		ORDER BY overall_similarity DESC NULLS LAST, calculated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subject.ContentType.String(), subject.ContentID, similarityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SimilarityRecord
	for rows.Next() {
		var rec models.SimilarityRecord
		var contentType string
		var notes pq.StringArray

		err := rows.Scan(
			&rec.ID,
			&contentType,
			&rec.ContentID,
			&rec.ComparedContentID,
			&rec.SimilarityType,
			&rec.OverallSimilarity,
			&notes,
			&rec.Status,
			&rec.CalculatedAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		rec.ContentType = models.ContentType(contentType)
		rec.AnalysisNotes = notes
		records = append(records, rec)
	}

	return records, rows.Err()
}

// MarkOutdated flips calculated records older than the cutoff so that the
// next analysis recomputes them instead of reusing stale edges.
func (r *similarityRepository) MarkOutdated(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE similarity_records
		SET status = $1, updated_at = NOW()
		WHERE status = 'calculated'
			AND calculated_at < $2
	`

	result, err := r.db.ExecContext(ctx, query, models.SimilarityStatusOutdated.String(), olderThan)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
