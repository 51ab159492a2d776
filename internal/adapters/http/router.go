// Package httpadapter exposes the engine's in-process operations behind a
// JSON request/response boundary.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
	"github.com/chartsense/rule-engine/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	searcher      ports.RuleSearcher
	calibrator    ports.ConfidenceCalibrator
	feedback      ports.FeedbackSubmitter
	feedbackStore ports.FeedbackStore
	training      ports.TrainingService
	rebuilder     ports.IndexRebuilder
	httpMetrics   *metrics.HTTPServerMetrics
	logger        *slog.Logger

	feedbackLimiter *rateLimiter
}

func NewRouter(
	searcher ports.RuleSearcher,
	calibrator ports.ConfidenceCalibrator,
	feedback ports.FeedbackSubmitter,
	feedbackStore ports.FeedbackStore,
	training ports.TrainingService,
	rebuilder ports.IndexRebuilder,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	feedbackLimit float64,
	feedbackBurst int,
) *Router {
	return &Router{
		searcher:        searcher,
		calibrator:      calibrator,
		feedback:        feedback,
		feedbackStore:   feedbackStore,
		training:        training,
		rebuilder:       rebuilder,
		httpMetrics:     httpMetrics,
		logger:          logger,
		feedbackLimiter: newRateLimiter(feedbackLimit, feedbackBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/rules/search", rt.searchRules)
	mux.HandleFunc("/v1/rules/reload", rt.reloadRules)
	mux.HandleFunc("/v1/confidence/calibrate", rt.calibrateConfidence)
	mux.HandleFunc("/v1/feedback", rt.feedbackLimiter.middleware(rt.submitFeedback))
	mux.HandleFunc("/v1/feedback/stats", rt.feedbackStats)
	mux.HandleFunc("/v1/calibration/health", rt.calibrationHealth)
	mux.HandleFunc("/v1/training/run", rt.runTraining)
	mux.Handle("/metrics", rt.httpMetrics.Handler())

	handler := rt.httpMetrics.Middleware(serviceName, mux)
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	result, err := rt.searcher.ExpandAndRetrieve(r.Context(), req)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	rt.httpMetrics.RecordRetrieval(serviceName, len(result.Rules), len(result.Expansion.Terms), time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) reloadRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := rt.rebuilder.RebuildIndexes(r.Context()); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

func (rt *Router) calibrateConfidence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		RawConfidence *float64 `json:"raw_confidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RawConfidence == nil || math.IsNaN(*req.RawConfidence) {
		writeError(w, http.StatusBadRequest, "raw_confidence is required")
		return
	}

	calibrated := rt.calibrator.Calibrate(*req.RawConfidence)
	rt.httpMetrics.RecordCalibration(serviceName)

	writeJSON(w, http.StatusOK, map[string]any{
		"raw_confidence":        *req.RawConfidence,
		"calibrated_confidence": calibrated,
	})
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		FindingID     string  `json:"finding_id"`
		RawConfidence float64 `json:"raw_confidence"`
		Correct       *bool   `json:"correct"`
		Discipline    string  `json:"discipline"`
		DocumentType  string  `json:"document_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Correct == nil {
		writeError(w, http.StatusBadRequest, "correct is required")
		return
	}

	err := rt.feedback.Submit(r.Context(), domain.FeedbackSample{
		FindingID:     req.FindingID,
		RawConfidence: req.RawConfidence,
		Correct:       *req.Correct,
		Discipline:    req.Discipline,
		DocumentType:  req.DocumentType,
	})
	rt.httpMetrics.RecordFeedbackSubmission(serviceName, err)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (rt *Router) feedbackStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := rt.feedbackStore.Stats(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) calibrationHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	health, err := rt.training.Health(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	rt.httpMetrics.SetActiveModel(health.ECE, health.BrierScore, health.ModelAgeDays)

	writeJSON(w, http.StatusOK, health)
}

func (rt *Router) runTraining(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	job, err := rt.training.MaybeTrain(r.Context(), true)
	if err != nil && !domain.IsKind(err, domain.ErrTrainingBusy) {
		rt.writeDomainError(w, r, err)
		return
	}
	rt.httpMetrics.RecordTrainingJob(serviceName, string(job.Status), time.Since(start), job.Deployed)

	status := http.StatusOK
	if domain.IsKind(err, domain.ErrTrainingBusy) {
		status = http.StatusConflict
	}
	writeJSON(w, status, job)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
