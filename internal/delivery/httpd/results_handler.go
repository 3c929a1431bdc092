package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
)

// subjectFromQuery reads content_type/content_id query params shared by the
// read endpoints.
func subjectFromQuery(w http.ResponseWriter, r *http.Request) (models.Subject, bool) {
	contentID := r.URL.Query().Get("content_id")
	if contentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return models.Subject{}, false
	}

	contentType, err := models.ParseContentType(r.URL.Query().Get("content_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.Subject{}, false
	}

	return models.Subject{ContentType: contentType, ContentID: contentID}, true
}

func (h *Handler) GetTags(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromQuery(w, r)
	if !ok {
		return
	}

	tags, err := h.results.GetTags(r.Context(), subject)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, tags)
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tag_id")
	if tagID == "" {
		writeError(w, http.StatusBadRequest, "Tag ID is required")
		return
	}

	if err := h.results.DeleteTag(r.Context(), tagID); err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"deleted": tagID})
}

func (h *Handler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromQuery(w, r)
	if !ok {
		return
	}

	records, err := h.results.GetSimilar(r.Context(), subject, r.URL.Query().Get("similarity_type"))
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, records)
}

func (h *Handler) GetLatestAssessment(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromQuery(w, r)
	if !ok {
		return
	}

	assessment, err := h.results.GetLatestAssessment(r.Context(), subject)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) SearchAssessments(w http.ResponseWriter, r *http.Request) {
	filters := repository.AssessmentFilters{
		ContentType:  r.URL.Query().Get("content_type"),
		ContentID:    r.URL.Query().Get("content_id"),
		QualityLevel: r.URL.Query().Get("quality_level"),
		Status:       r.URL.Query().Get("status"),
		LatestOnly:   getBoolQueryParam(r, "latest_only"),
	}
	limit := getIntQueryParam(r, "limit", 20)
	offset := getIntQueryParam(r, "offset", 0)

	assessments, err := h.results.SearchAssessments(r.Context(), filters, limit, offset)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, assessments)
}

func (h *Handler) GetQuizzes(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lesson_id")
	if lessonID == "" {
		writeError(w, http.StatusBadRequest, "Lesson ID is required")
		return
	}

	quizzes, err := h.results.GetQuizzes(r.Context(), lessonID)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, quizzes)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quiz_id")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "Quiz ID is required")
		return
	}

	if err := h.results.DeleteQuiz(r.Context(), quizID); err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"deleted": quizID})
}

func (h *Handler) UpdateQuizReview(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quiz_id")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "Quiz ID is required")
		return
	}

	var req struct {
		ReviewStatus string `json:"review_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.results.UpdateQuizReview(r.Context(), quizID, req.ReviewStatus); err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, map[string]string{
		"quiz_id":       quizID,
		"review_status": req.ReviewStatus,
	})
}

func (h *Handler) GetScans(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromQuery(w, r)
	if !ok {
		return
	}

	scans, err := h.results.GetScans(r.Context(), subject)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, scans)
}
