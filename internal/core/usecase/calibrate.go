package usecase

import (
	"math"
	"sync/atomic"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

const logitEpsilon = 1e-6

// CalibrationService holds the single process-wide active calibration model.
// Reads go through one atomic pointer; the training orchestrator is the only
// writer and replaces the model with a single swap.
type CalibrationService struct {
	active atomic.Pointer[domain.CalibrationModel]
}

func NewCalibrationService(initial domain.CalibrationModel) *CalibrationService {
	s := &CalibrationService{}
	s.active.Store(&initial)
	return s
}

// Calibrate applies the active model's transform. Input and output are
// clamped to [0,1], including out-of-range raw scores.
func (s *CalibrationService) Calibrate(raw float64) float64 {
	model := s.active.Load()
	return applyModel(model, clamp01(raw))
}

func (s *CalibrationService) Active() domain.CalibrationModel {
	return *s.active.Load()
}

// Deploy atomically replaces the active model. In-flight Calibrate calls
// observe either the old model or the new one, never a mix.
func (s *CalibrationService) Deploy(model domain.CalibrationModel) {
	s.active.Store(&model)
}

func (s *CalibrationService) Metrics() domain.CalibrationMetrics {
	model := s.active.Load()
	return domain.CalibrationMetrics{
		Method:      model.Method,
		ECE:         model.ECE,
		BrierScore:  model.BrierScore,
		TrainedAt:   model.TrainedAt,
		SampleCount: model.SampleCount,
	}
}

func applyModel(model *domain.CalibrationModel, raw float64) float64 {
	switch model.Method {
	case domain.MethodTemperature:
		return clamp01(applyTemperature(model.Params.Temperature, raw))
	case domain.MethodPlatt:
		return clamp01(sigmoid(model.Params.PlattA*raw + model.Params.PlattB))
	case domain.MethodIsotonic:
		return clamp01(applyIsotonic(model.Params.IsotonicX, model.Params.IsotonicY, raw))
	default:
		return clamp01(raw)
	}
}

func applyTemperature(temperature, raw float64) float64 {
	if temperature <= 0 {
		return raw
	}
	return sigmoid(logit(raw) / temperature)
}

// applyIsotonic interpolates linearly between fitted breakpoints. Both
// coordinate sequences are non-decreasing, so the transform is monotone and
// never inverts the ordering of two raw scores.
func applyIsotonic(xs, ys []float64, raw float64) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return raw
	}
	if raw <= xs[0] {
		return ys[0]
	}
	if raw >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	for i := 1; i < len(xs); i++ {
		if raw > xs[i] {
			continue
		}
		span := xs[i] - xs[i-1]
		if span <= 0 {
			return ys[i]
		}
		fraction := (raw - xs[i-1]) / span
		return ys[i-1] + fraction*(ys[i]-ys[i-1])
	}
	return ys[len(ys)-1]
}

func logit(p float64) float64 {
	p = math.Min(math.Max(p, logitEpsilon), 1-logitEpsilon)
	return math.Log(p / (1 - p))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
