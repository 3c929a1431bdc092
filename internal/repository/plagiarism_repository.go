package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type PlagiarismRepository interface {
	Create(ctx context.Context, scan *models.PlagiarismScan) error
	UpdateCompleted(ctx context.Context, id string, similarity float64, severity string, sourcesChecked int, matches json.RawMessage, analysis string, completedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
	GetLatestCompleted(ctx context.Context, subject models.Subject) (*models.PlagiarismScan, error)
	ListBySubject(ctx context.Context, subject models.Subject) ([]models.PlagiarismScan, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]models.PlagiarismScan, error)
}

type plagiarismRepository struct {
	*PostgresRepository
}

func NewPlagiarismRepository(db *sql.DB, logger zerolog.Logger) PlagiarismRepository {
	return &plagiarismRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *plagiarismRepository) Create(ctx context.Context, scan *models.PlagiarismScan) error {
	query := `
		INSERT INTO plagiarism_scans (
			id, content_type, content_id, content_hash, overall_similarity,
			severity_level, sources_checked, matches, analysis, status,
			started_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		scan.ID,
		scan.ContentType.String(),
		scan.ContentID,
		scan.ContentHash,
		scan.OverallSimilarity,
		scan.SeverityLevel,
		scan.SourcesChecked,
		nullableJSON(scan.Matches),
		scan.Analysis,
		scan.Status,
		scan.StartedAt,
		scan.CompletedAt,
		scan.CreatedAt,
		scan.UpdatedAt,
	)
	return err
}

func (r *plagiarismRepository) UpdateCompleted(ctx context.Context, id string, similarity float64, severity string, sourcesChecked int, matches json.RawMessage, analysis string, completedAt time.Time) error {
	query := `
		UPDATE plagiarism_scans
		SET overall_similarity = $1,
			severity_level = $2,
			sources_checked = $3,
			matches = $4,
			analysis = $5,
			status = $6,
			completed_at = $7,
			updated_at = NOW()
		WHERE id = $8
	`

	_, err := r.db.ExecContext(ctx, query,
		similarity,
		severity,
		sourcesChecked,
		nullableJSON(matches),
		analysis,
		models.ScanStatusCompleted.String(),
		completedAt,
		id,
	)
	return err
}

func (r *plagiarismRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE plagiarism_scans
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *plagiarismRepository) GetLatestCompleted(ctx context.Context, subject models.Subject) (*models.PlagiarismScan, error) {
	query := scanColumns + `
		FROM plagiarism_scans
		WHERE content_type = $1
			AND content_id = $2
			AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, subject.ContentType.String(), subject.ContentID)

	scan, err := scanPlagiarismScan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return scan, nil
}

func (r *plagiarismRepository) ListBySubject(ctx context.Context, subject models.Subject) ([]models.PlagiarismScan, error) {
	query := scanColumns + `
		FROM plagiarism_scans
		WHERE content_type = $1
			AND content_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subject.ContentType.String(), subject.ContentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScans(rows)
}

func (r *plagiarismRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.PlagiarismScan, error) {
	query := scanColumns + `
		FROM plagiarism_scans
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScans(rows)
}

const scanColumns = `
		SELECT
			id, content_type, content_id, content_hash, overall_similarity,
			severity_level, sources_checked, matches, analysis, status,
			started_at, completed_at, created_at, updated_at
`

func scanPlagiarismScan(row rowScanner) (*models.PlagiarismScan, error) {
	scan := &models.PlagiarismScan{}
	var contentType string
	var severity, analysis sql.NullString
	var matches []byte

	err := row.Scan(
		&scan.ID,
		&contentType,
		&scan.ContentID,
		&scan.ContentHash,
		&scan.OverallSimilarity,
		&severity,
		&scan.SourcesChecked,
		&matches,
		&analysis,
		&scan.Status,
		&scan.StartedAt,
		&scan.CompletedAt,
		&scan.CreatedAt,
		&scan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	scan.ContentType = models.ContentType(contentType)
	scan.SeverityLevel = severity.String
	scan.Analysis = analysis.String
	scan.Matches = matches

	return scan, nil
}

func collectScans(rows *sql.Rows) ([]models.PlagiarismScan, error) {
	var scans []models.PlagiarismScan
	for rows.Next() {
		scan, err := scanPlagiarismScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *scan)
	}

	return scans, rows.Err()
}
