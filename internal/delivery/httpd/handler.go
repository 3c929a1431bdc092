package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/service"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/coordinator"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker"
)

type Handler struct {
	tags        coordinator.TagAnalyzer
	quality     coordinator.QualityAnalyzer
	plagiarism  coordinator.PlagiarismAnalyzer
	quiz        coordinator.QuizAnalyzer
	similarity  coordinator.SimilarityAnalyzer
	coordinator *coordinator.Coordinator
	results     service.ResultsService
	jobs        *JobEnqueuer
	stats       StatsProvider
	db          Pinger
	logger      zerolog.Logger
}

// StatsProvider exposes worker runtime counters on the status endpoint.
type StatsProvider interface {
	GetStats() worker.WorkerStats
}

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewHandler(
	tags coordinator.TagAnalyzer,
	quality coordinator.QualityAnalyzer,
	plagiarism coordinator.PlagiarismAnalyzer,
	quiz coordinator.QuizAnalyzer,
	similarity coordinator.SimilarityAnalyzer,
	coord *coordinator.Coordinator,
	results service.ResultsService,
	jobs *JobEnqueuer,
	stats StatsProvider,
	db Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		tags:        tags,
		quality:     quality,
		plagiarism:  plagiarism,
		quiz:        quiz,
		similarity:  similarity,
		coordinator: coord,
		results:     results,
		jobs:        jobs,
		stats:       stats,
		db:          db,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	// Health check
	router.Get("/health", h.HealthCheck)
	router.Get("/status", h.GetServiceStatus)

	// Versioned API
	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/analysis", func(r chi.Router) {
			r.Post("/tags", h.AnalyzeTags)
			r.Post("/tags/async", h.AnalyzeTagsAsync)
			r.Post("/quality", h.AnalyzeQuality)
			r.Post("/quality/async", h.AnalyzeQualityAsync)
			r.Post("/plagiarism", h.AnalyzePlagiarism)
			r.Post("/plagiarism/async", h.AnalyzePlagiarismAsync)
			r.Post("/quiz", h.AnalyzeQuiz)
			r.Post("/quiz/async", h.AnalyzeQuizAsync)
			r.Post("/similarity", h.AnalyzeSimilarity)
			r.Post("/similarity/async", h.AnalyzeSimilarityAsync)

			r.Post("/comprehensive", h.AnalyzeComprehensive)
			r.Post("/comprehensive/async", h.AnalyzeComprehensiveAsync)
			r.Post("/bulk", h.AnalyzeBulk)
			r.Post("/bulk/async", h.AnalyzeBulkAsync)
		})

		api.Route("/results", func(r chi.Router) {
			r.Get("/tags", h.GetTags)
			r.Delete("/tags/{tag_id}", h.DeleteTag)
			r.Get("/similar", h.GetSimilar)
			r.Get("/quality/latest", h.GetLatestAssessment)
			r.Get("/quality", h.SearchAssessments)
			r.Get("/quizzes/{lesson_id}", h.GetQuizzes)
			r.Delete("/quizzes/{quiz_id}", h.DeleteQuiz)
			r.Put("/quizzes/{quiz_id}/review", h.UpdateQuizReview)
			r.Get("/plagiarism", h.GetScans)
		})
	})
}

// Вспомогательные функции
func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolQueryParam(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return false
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

func writeAccepted(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusAccepted, response)
}

// handleEngineError maps service errors to HTTP statuses.
func (h *Handler) handleEngineError(w http.ResponseWriter, err error) {
	var vErr *engine.ValidationError
	var aiErr *engine.AIServiceError

	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &aiErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Unhandled analysis error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
