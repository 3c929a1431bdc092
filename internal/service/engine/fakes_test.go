package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
)

// fakeAIClient returns canned responses and counts calls per method.
type fakeAIClient struct {
	tagResp  *models.TagGenerationResponse
	tagErr   error
	tagCalls int

	simResp  *models.SimilarityCalculationResponse
	simErr   error
	simCalls int

	qualityResp  *models.QualityAssessmentResponse
	qualityErr   error
	qualityCalls int

	quizResp  *models.QuizGenerationResponse
	quizErr   error
	quizCalls int

	scanResp  *models.PlagiarismScanResponse
	scanErr   error
	scanCalls int
}

func (f *fakeAIClient) GenerateTags(ctx context.Context, req models.TagGenerationRequest) (*models.TagGenerationResponse, error) {
	f.tagCalls++
	return f.tagResp, f.tagErr
}

func (f *fakeAIClient) CalculateSimilarity(ctx context.Context, req models.SimilarityCalculationRequest) (*models.SimilarityCalculationResponse, error) {
	f.simCalls++
	return f.simResp, f.simErr
}

func (f *fakeAIClient) AssessQuality(ctx context.Context, req models.QualityAssessmentRequest) (*models.QualityAssessmentResponse, error) {
	f.qualityCalls++
	return f.qualityResp, f.qualityErr
}

func (f *fakeAIClient) GenerateQuiz(ctx context.Context, req models.QuizGenerationRequest) (*models.QuizGenerationResponse, error) {
	f.quizCalls++
	return f.quizResp, f.quizErr
}

func (f *fakeAIClient) ScanPlagiarism(ctx context.Context, req models.PlagiarismScanRequest) (*models.PlagiarismScanResponse, error) {
	f.scanCalls++
	return f.scanResp, f.scanErr
}

type fakeContentClient struct {
	contents map[string]*models.Content
	listIDs  []string
	listErr  error
}

func newFakeContentClient(contents ...*models.Content) *fakeContentClient {
	f := &fakeContentClient{contents: make(map[string]*models.Content)}
	for _, c := range contents {
		f.contents[string(c.Type)+"/"+c.ID] = c
	}
	return f
}

func (f *fakeContentClient) GetContent(ctx context.Context, contentType models.ContentType, contentID string) (*models.Content, error) {
	return f.contents[string(contentType)+"/"+contentID], nil
}

func (f *fakeContentClient) ListContentIDs(ctx context.Context, contentType models.ContentType, excludeID string, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.listIDs))
	for _, id := range f.listIDs {
		if id == excludeID {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type fakeTagRepo struct {
	latest  []models.ContentTag
	batches [][]models.ContentTag
}

func (f *fakeTagRepo) CreateBatch(ctx context.Context, tags []models.ContentTag) error {
	f.batches = append(f.batches, tags)
	f.latest = tags
	return nil
}

func (f *fakeTagRepo) GetLatestGeneration(ctx context.Context, subject models.Subject) ([]models.ContentTag, error) {
	return f.latest, nil
}

func (f *fakeTagRepo) ListBySubject(ctx context.Context, subject models.Subject) ([]models.ContentTag, error) {
	return f.latest, nil
}

func (f *fakeTagRepo) SoftDelete(ctx context.Context, id string) error {
	return nil
}

type fakeSimilarityRepo struct {
	calculated []models.SimilarityRecord
	created    []models.SimilarityRecord
	updated    map[string]float64
	failedIDs  []string
}

func (f *fakeSimilarityRepo) CreateBatch(ctx context.Context, records []models.SimilarityRecord) error {
	f.created = append(f.created, records...)
	return nil
}

func (f *fakeSimilarityRepo) UpdateCalculated(ctx context.Context, id string, score float64, notes []string, calculatedAt time.Time) error {
	if f.updated == nil {
		f.updated = make(map[string]float64)
	}
	f.updated[id] = score
	return nil
}

func (f *fakeSimilarityRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}

func (f *fakeSimilarityRepo) MarkBatchFailed(ctx context.Context, ids []string) error {
	f.failedIDs = append(f.failedIDs, ids...)
	return nil
}

func (f *fakeSimilarityRepo) GetCalculated(ctx context.Context, subject models.Subject, similarityType string) ([]models.SimilarityRecord, error) {
	return f.calculated, nil
}

func (f *fakeSimilarityRepo) MarkOutdated(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakeQualityRepo struct {
	latest  *models.QualityAssessment
	created *models.QualityAssessment

	completedScore  float64
	completedLevel  string
	completedSource string
}

func (f *fakeQualityRepo) Create(ctx context.Context, assessment *models.QualityAssessment) error {
	if f.latest != nil {
		f.latest.IsLatest = false
	}
	f.created = assessment
	return nil
}

func (f *fakeQualityRepo) UpdateCompleted(ctx context.Context, id string, score float64, dimensionScores json.RawMessage, level, analysis, source string, improvements json.RawMessage, assessedAt time.Time) error {
	if f.created == nil || f.created.ID != id {
		return errors.New("unknown assessment id")
	}
	f.completedScore = score
	f.completedLevel = level
	f.completedSource = source
	return nil
}

func (f *fakeQualityRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}

func (f *fakeQualityRepo) GetLatest(ctx context.Context, subject models.Subject) (*models.QualityAssessment, error) {
	return f.latest, nil
}

func (f *fakeQualityRepo) Search(ctx context.Context, filters repository.AssessmentFilters, limit, offset int) ([]models.QualityAssessment, error) {
	return nil, nil
}

func (f *fakeQualityRepo) ListByStatus(ctx context.Context, status string, limit int) ([]models.QualityAssessment, error) {
	return nil, nil
}

type fakeQuizRepo struct {
	latest  *models.QuizRecord
	created *models.QuizRecord
	status  string
}

func (f *fakeQuizRepo) Create(ctx context.Context, quiz *models.QuizRecord) error {
	f.created = quiz
	return nil
}

func (f *fakeQuizRepo) UpdateCompleted(ctx context.Context, id string, questions json.RawMessage, questionCount int, modelVersion string, generatedAt time.Time) error {
	f.status = models.QuizStatusCompleted.String()
	return nil
}

func (f *fakeQuizRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.status = status
	return nil
}

func (f *fakeQuizRepo) UpdateReviewStatus(ctx context.Context, id, reviewStatus string) error {
	return nil
}

func (f *fakeQuizRepo) GetLatestCompleted(ctx context.Context, lessonID string) (*models.QuizRecord, error) {
	return f.latest, nil
}

func (f *fakeQuizRepo) ListByLesson(ctx context.Context, lessonID string) ([]models.QuizRecord, error) {
	return nil, nil
}

func (f *fakeQuizRepo) SoftDelete(ctx context.Context, id string) error {
	return nil
}

type fakePlagiarismRepo struct {
	latest  *models.PlagiarismScan
	created *models.PlagiarismScan
	status  string

	completedSimilarity float64
	completedSeverity   string
}

func (f *fakePlagiarismRepo) Create(ctx context.Context, scan *models.PlagiarismScan) error {
	f.created = scan
	return nil
}

func (f *fakePlagiarismRepo) UpdateCompleted(ctx context.Context, id string, similarity float64, severity string, sourcesChecked int, matches json.RawMessage, analysis string, completedAt time.Time) error {
	f.status = models.ScanStatusCompleted.String()
	f.completedSimilarity = similarity
	f.completedSeverity = severity
	return nil
}

func (f *fakePlagiarismRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.status = status
	return nil
}

func (f *fakePlagiarismRepo) GetLatestCompleted(ctx context.Context, subject models.Subject) (*models.PlagiarismScan, error) {
	return f.latest, nil
}

func (f *fakePlagiarismRepo) ListBySubject(ctx context.Context, subject models.Subject) ([]models.PlagiarismScan, error) {
	return nil, nil
}

func (f *fakePlagiarismRepo) ListByStatus(ctx context.Context, status string, limit int) ([]models.PlagiarismScan, error) {
	return nil, nil
}
