package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics covers the api process: request-level metrics plus the
// retrieval, calibration and training observations.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal      *prometheus.CounterVec
	retrievalEmptyTotal *prometheus.CounterVec
	retrievalRules      *prometheus.HistogramVec
	retrievalDuration   *prometheus.HistogramVec
	expansionTerms      *prometheus.HistogramVec

	calibrationsTotal   *prometheus.CounterVec
	activeModelECE      prometheus.Gauge
	activeModelBrier    prometheus.Gauge
	activeModelAgeDays  prometheus.Gauge
	trainingJobsTotal   *prometheus.CounterVec
	trainingDuration    *prometheus.HistogramVec
	modelDeploys        prometheus.Counter
	feedbackSubmissions *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruleng",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ruleng",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total successful retrieval requests.",
		},
		[]string{"service"},
	)
	retrievalEmptyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "retrieval",
			Name:      "empty_total",
			Help:      "Total retrieval requests without matching rules.",
		},
		[]string{"service"},
	)
	retrievalRules := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruleng",
			Subsystem: "retrieval",
			Name:      "returned_rules",
			Help:      "Distribution of rules returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruleng",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	expansionTerms := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruleng",
			Subsystem: "expansion",
			Name:      "terms",
			Help:      "Distribution of expansion terms per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	calibrationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "calibration",
			Name:      "requests_total",
			Help:      "Total confidence calibration requests.",
		},
		[]string{"service"},
	)
	activeModelECE := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ruleng",
			Subsystem:   "calibration",
			Name:        "active_model_ece",
			Help:        "Expected calibration error of the active model.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	activeModelBrier := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ruleng",
			Subsystem:   "calibration",
			Name:        "active_model_brier_score",
			Help:        "Brier score of the active model.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	activeModelAgeDays := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ruleng",
			Subsystem:   "calibration",
			Name:        "active_model_age_days",
			Help:        "Age of the active model in days.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	trainingJobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "training",
			Name:      "jobs_total",
			Help:      "Total training jobs by status.",
		},
		[]string{"service", "status"},
	)
	trainingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruleng",
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Training job duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)
	modelDeploys := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "ruleng",
			Subsystem:   "training",
			Name:        "model_deploys_total",
			Help:        "Total calibration model deployments.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	feedbackSubmissions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruleng",
			Subsystem: "feedback",
			Name:      "submissions_total",
			Help:      "Total feedback submissions by outcome.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalEmptyTotal,
		retrievalRules,
		retrievalDuration,
		expansionTerms,
		calibrationsTotal,
		activeModelECE,
		activeModelBrier,
		activeModelAgeDays,
		trainingJobsTotal,
		trainingDuration,
		modelDeploys,
		feedbackSubmissions,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		retrievalTotal:      retrievalTotal,
		retrievalEmptyTotal: retrievalEmptyTotal,
		retrievalRules:      retrievalRules,
		retrievalDuration:   retrievalDuration,
		expansionTerms:      expansionTerms,
		calibrationsTotal:   calibrationsTotal,
		activeModelECE:      activeModelECE,
		activeModelBrier:    activeModelBrier,
		activeModelAgeDays:  activeModelAgeDays,
		trainingJobsTotal:   trainingJobsTotal,
		trainingDuration:    trainingDuration,
		modelDeploys:        modelDeploys,
		feedbackSubmissions: feedbackSubmissions,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRetrieval(service string, ruleCount, termCount int, duration time.Duration) {
	m.retrievalTotal.WithLabelValues(service).Inc()
	m.retrievalRules.WithLabelValues(service).Observe(float64(ruleCount))
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.expansionTerms.WithLabelValues(service).Observe(float64(termCount))
	if ruleCount == 0 {
		m.retrievalEmptyTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordCalibration(service string) {
	m.calibrationsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordFeedbackSubmission(service string, err error) {
	status := "accepted"
	if err != nil {
		status = "rejected"
	}
	m.feedbackSubmissions.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordTrainingJob(service, status string, duration time.Duration, deployed bool) {
	if status == "" {
		status = "unknown"
	}
	m.trainingJobsTotal.WithLabelValues(service, status).Inc()
	m.trainingDuration.WithLabelValues(service).Observe(duration.Seconds())
	if deployed {
		m.modelDeploys.Inc()
	}
}

func (m *HTTPServerMetrics) SetActiveModel(ece, brier, ageDays float64) {
	m.activeModelECE.Set(ece)
	m.activeModelBrier.Set(brier)
	m.activeModelAgeDays.Set(ageDays)
}
