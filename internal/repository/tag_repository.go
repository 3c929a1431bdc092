package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type TagRepository interface {
	CreateBatch(ctx context.Context, tags []models.ContentTag) error
	GetLatestGeneration(ctx context.Context, subject models.Subject) ([]models.ContentTag, error)
	ListBySubject(ctx context.Context, subject models.Subject) ([]models.ContentTag, error)
	SoftDelete(ctx context.Context, id string) error
}

type tagRepository struct {
	*PostgresRepository
}

func NewTagRepository(db *sql.DB, logger zerolog.Logger) TagRepository {
	return &tagRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *tagRepository) CreateBatch(ctx context.Context, tags []models.ContentTag) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO content_tags (
			id, content_type, content_id, name, category, confidence,
			source, status, generated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, tag := range tags {
		_, err := tx.ExecContext(ctx, query,
			tag.ID,
			tag.ContentType.String(),
			tag.ContentID,
			tag.Name,
			tag.Category,
			tag.Confidence,
			tag.Source,
			tag.Status,
			tag.GeneratedAt,
			tag.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetLatestGeneration returns the non-deleted completed tags from the most
// recent generation run for the subject.
func (r *tagRepository) GetLatestGeneration(ctx context.Context, subject models.Subject) ([]models.ContentTag, error) {
	query := `
		SELECT
			id, content_type, content_id, name, category, confidence,
			source, status, generated_at, created_at, deleted_at
		FROM content_tags
		WHERE content_type = $1
			AND content_id = $2
			AND status = 'completed'
			AND deleted_at IS NULL
			AND generated_at = (
				SELECT MAX(generated_at)
				FROM content_tags
				WHERE content_type = $1
					AND content_id = $2
					AND status = 'completed'
					AND deleted_at IS NULL
			)
		ORDER BY confidence DESC, name
	`

	return r.queryTags(ctx, query, subject.ContentType.String(), subject.ContentID)
}

func (r *tagRepository) ListBySubject(ctx context.Context, subject models.Subject) ([]models.ContentTag, error) {
	query := `
		SELECT
			id, content_type, content_id, name, category, confidence,
			source, status, generated_at, created_at, deleted_at
		FROM content_tags
		WHERE content_type = $1
			AND content_id = $2
			AND deleted_at IS NULL
		ORDER BY generated_at DESC, confidence DESC
	`

	return r.queryTags(ctx, query, subject.ContentType.String(), subject.ContentID)
}

func (r *tagRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE content_tags
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

func (r *tagRepository) queryTags(ctx context.Context, query string, args ...interface{}) ([]models.ContentTag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.ContentTag
	for rows.Next() {
		var tag models.ContentTag
		var contentType string
		var category sql.NullString

		err := rows.Scan(
			&tag.ID,
			&contentType,
			&tag.ContentID,
			&tag.Name,
			&category,
			&tag.Confidence,
			&tag.Source,
			&tag.Status,
			&tag.GeneratedAt,
			&tag.CreatedAt,
			&tag.DeletedAt,
		)
		if err != nil {
			return nil, err
		}

		tag.ContentType = models.ContentType(contentType)
		tag.Category = category.String
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}
