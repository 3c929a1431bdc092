package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

type analyzeRequest struct {
	ContentType string          `json:"content_type"`
	ContentID   string          `json:"content_id"`
	Force       bool            `json:"force"`
	Options     json.RawMessage `json:"options,omitempty"`
}

// parseAnalyzeRequest decodes the shared request body for the per-engine
// endpoints and validates the subject.
func parseAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, models.Subject, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, models.Subject{}, false
	}

	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return req, models.Subject{}, false
	}

	contentType, err := models.ParseContentType(req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, models.Subject{}, false
	}

	return req, models.Subject{ContentType: contentType, ContentID: req.ContentID}, true
}

func decodeInto(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}

func (h *Handler) AnalyzeTags(w http.ResponseWriter, r *http.Request) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	opts := models.DefaultTagOptions()
	if err := decodeInto(req.Options, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tag options")
		return
	}

	result, err := h.tags.Analyze(r.Context(), subject, opts, req.Force)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeQuality(w http.ResponseWriter, r *http.Request) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	opts := models.DefaultQualityOptions()
	if err := decodeInto(req.Options, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quality options")
		return
	}

	result, err := h.quality.Analyze(r.Context(), subject, opts, req.Force)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzePlagiarism(w http.ResponseWriter, r *http.Request) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	opts := models.DefaultPlagiarismOptions()
	if err := decodeInto(req.Options, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plagiarism options")
		return
	}

	result, err := h.plagiarism.Analyze(r.Context(), subject, opts, req.Force)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeQuiz(w http.ResponseWriter, r *http.Request) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	opts := models.DefaultQuizOptions()
	if err := decodeInto(req.Options, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quiz options")
		return
	}

	result, err := h.quiz.Analyze(r.Context(), subject, opts, req.Force)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeSimilarity(w http.ResponseWriter, r *http.Request) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	opts := models.DefaultSimilarityOptions()
	if err := decodeInto(req.Options, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid similarity options")
		return
	}

	result, err := h.similarity.Analyze(r.Context(), subject, opts, req.Force)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeTagsAsync(w http.ResponseWriter, r *http.Request) {
	h.enqueueEngine(w, r, models.EngineTags)
}

func (h *Handler) AnalyzeQualityAsync(w http.ResponseWriter, r *http.Request) {
	h.enqueueEngine(w, r, models.EngineQuality)
}

func (h *Handler) AnalyzePlagiarismAsync(w http.ResponseWriter, r *http.Request) {
	h.enqueueEngine(w, r, models.EnginePlagiarism)
}

func (h *Handler) AnalyzeQuizAsync(w http.ResponseWriter, r *http.Request) {
	h.enqueueEngine(w, r, models.EngineQuiz)
}

func (h *Handler) AnalyzeSimilarityAsync(w http.ResponseWriter, r *http.Request) {
	h.enqueueEngine(w, r, models.EngineSimilarity)
}

func (h *Handler) enqueueEngine(w http.ResponseWriter, r *http.Request, engineName string) {
	req, subject, ok := parseAnalyzeRequest(w, r)
	if !ok {
		return
	}

	// Quiz jobs for courses would only fail in the worker; reject them here.
	if engineName == models.EngineQuiz && subject.ContentType != models.ContentTypeLesson {
		writeError(w, http.StatusBadRequest, "quiz generation is only supported for lessons")
		return
	}

	job := models.EngineJob{
		Engine:      engineName,
		ContentType: subject.ContentType,
		ContentID:   subject.ContentID,
		Force:       req.Force,
		Options:     req.Options,
	}

	if err := h.jobs.EnqueueEngine(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("engine", engineName).Msg("Failed to enqueue engine job")
		writeError(w, http.StatusInternalServerError, "Failed to enqueue analysis")
		return
	}

	writeAccepted(w, map[string]interface{}{
		"engine":  engineName,
		"subject": subject,
		"message": "Analysis enqueued",
	})
}

func (h *Handler) AnalyzeComprehensive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType string                      `json:"content_type"`
		ContentID   string                      `json:"content_id"`
		Force       bool                        `json:"force"`
		Options     *models.ComprehensiveOptions `json:"options,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return
	}

	contentType, err := models.ParseContentType(req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := models.DefaultComprehensiveOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	subject := models.Subject{ContentType: contentType, ContentID: req.ContentID}

	// Engine failures are embedded in the result, so the response is 200
	// even when individual engines failed.
	result, err := h.coordinator.Comprehensive(r.Context(), subject, opts, req.Force, nil)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeComprehensiveAsync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType string                      `json:"content_type"`
		ContentID   string                      `json:"content_id"`
		Force       bool                        `json:"force"`
		Options     *models.ComprehensiveOptions `json:"options,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return
	}

	contentType, err := models.ParseContentType(req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := models.DefaultComprehensiveOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	job := models.ComprehensiveJob{
		ContentType: contentType,
		ContentID:   req.ContentID,
		Force:       req.Force,
		Options:     opts,
	}

	if err := h.jobs.EnqueueComprehensive(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to enqueue comprehensive job")
		writeError(w, http.StatusInternalServerError, "Failed to enqueue analysis")
		return
	}

	writeAccepted(w, map[string]interface{}{
		"subject": models.Subject{ContentType: contentType, ContentID: req.ContentID},
		"message": "Comprehensive analysis enqueued",
	})
}

type bulkRequest struct {
	Engine      string          `json:"engine"`
	ContentType string          `json:"content_type"`
	ContentIDs  []string        `json:"content_ids"`
	Force       bool            `json:"force"`
	Options     json.RawMessage `json:"options,omitempty"`
}

func parseBulkRequest(w http.ResponseWriter, r *http.Request) (bulkRequest, models.ContentType, bool) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, "", false
	}

	if !models.KnownEngine(req.Engine) {
		writeError(w, http.StatusBadRequest, "Unknown engine")
		return req, "", false
	}
	if len(req.ContentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one content ID is required")
		return req, "", false
	}

	contentType, err := models.ParseContentType(req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, "", false
	}

	return req, contentType, true
}

func (h *Handler) AnalyzeBulk(w http.ResponseWriter, r *http.Request) {
	req, contentType, ok := parseBulkRequest(w, r)
	if !ok {
		return
	}

	// Per-item failures live in the result; the response is 200 as long as
	// the batch itself was valid.
	result, err := h.coordinator.Bulk(r.Context(), req.Engine, contentType, req.ContentIDs, req.Options, req.Force, nil)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AnalyzeBulkAsync(w http.ResponseWriter, r *http.Request) {
	req, contentType, ok := parseBulkRequest(w, r)
	if !ok {
		return
	}

	job := models.BulkJob{
		Engine:      req.Engine,
		ContentType: contentType,
		ContentIDs:  req.ContentIDs,
		Force:       req.Force,
		Options:     req.Options,
	}

	if err := h.jobs.EnqueueBulk(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to enqueue bulk job")
		writeError(w, http.StatusInternalServerError, "Failed to enqueue analysis")
		return
	}

	writeAccepted(w, map[string]interface{}{
		"engine":  req.Engine,
		"total":   len(req.ContentIDs),
		"message": "Bulk analysis enqueued",
	})
}
