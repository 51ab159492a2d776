package ports

import (
	"context"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// RuleSearcher is the inbound contract for the composed expand-and-retrieve
// entry point.
type RuleSearcher interface {
	ExpandAndRetrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

// ConfidenceCalibrator applies the currently active calibration model.
type ConfidenceCalibrator interface {
	Calibrate(raw float64) float64
	Metrics() domain.CalibrationMetrics
}

// FeedbackSubmitter accepts user verdicts on shown findings.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, sample domain.FeedbackSample) error
}

// TrainingService owns the retraining lifecycle and calibration health.
type TrainingService interface {
	MaybeTrain(ctx context.Context, force bool) (domain.TrainingJob, error)
	Health(ctx context.Context) (domain.CalibrationHealth, error)
}

// IndexRebuilder swaps in freshly built retrieval indexes.
type IndexRebuilder interface {
	RebuildIndexes(ctx context.Context) error
}
