package usecase

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// FitConfig controls calibration fitting and method selection.
type FitConfig struct {
	MinSamples         int
	ValidationFraction float64
	Bins               int
	SplitSeed          int64
}

func DefaultFitConfig() FitConfig {
	return FitConfig{
		MinSamples:         50,
		ValidationFraction: 0.2,
		Bins:               10,
		SplitSeed:          1,
	}
}

type fitResult struct {
	Model      domain.CalibrationModel
	Validation []domain.FeedbackSample
}

type methodFitter struct {
	method domain.CalibrationMethod
	fit    func(confidences []float64, labels []bool) (domain.CalibrationParams, error)
}

// fitCalibration fits every candidate method on the training split,
// evaluates each on the held-out validation split, and selects the method
// with the lowest expected calibration error. Individual method failures are
// tolerated as long as at least one method fits.
func fitCalibration(samples []domain.FeedbackSample, cfg FitConfig) (fitResult, error) {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 50
	}
	if cfg.ValidationFraction <= 0 || cfg.ValidationFraction >= 1 {
		cfg.ValidationFraction = 0.2
	}
	if cfg.Bins <= 0 {
		cfg.Bins = 10
	}
	if len(samples) < cfg.MinSamples {
		return fitResult{}, domain.WrapError(domain.ErrInsufficientData, "fit calibration",
			fmt.Errorf("%d samples, need at least %d", len(samples), cfg.MinSamples))
	}

	train, validation := splitSamples(samples, cfg.ValidationFraction, cfg.SplitSeed)
	trainConfidences, trainLabels := samplePairs(train)
	validationLabels := make([]bool, len(validation))
	for i, s := range validation {
		validationLabels[i] = s.Correct
	}

	fitters := []methodFitter{
		{method: domain.MethodTemperature, fit: fitTemperature},
		{method: domain.MethodPlatt, fit: fitPlatt},
		{method: domain.MethodIsotonic, fit: fitIsotonic},
	}

	var best *domain.CalibrationModel
	var fitErrs []error
	for _, fitter := range fitters {
		params, err := fitter.fit(trainConfidences, trainLabels)
		if err != nil {
			fitErrs = append(fitErrs, fmt.Errorf("%s: %w", fitter.method, err))
			continue
		}
		candidate := domain.CalibrationModel{
			Method: fitter.method,
			Params: params,
		}
		predictions := make([]float64, len(validation))
		for i, s := range validation {
			predictions[i] = applyModel(&candidate, clamp01(s.RawConfidence))
		}
		candidate.ECE = expectedCalibrationError(predictions, validationLabels, cfg.Bins)
		candidate.BrierScore = brierScore(predictions, validationLabels)

		if best == nil || candidate.ECE < best.ECE {
			model := candidate
			best = &model
		}
	}

	if best == nil {
		return fitResult{}, fmt.Errorf("all calibration methods failed: %w", errors.Join(fitErrs...))
	}

	best.SampleCount = len(samples)
	best.TrainedAt = time.Now().UTC()
	return fitResult{Model: *best, Validation: validation}, nil
}

// evaluateModelECE scores an existing model on a validation split, used to
// compare a freshly trained model against the active one on identical data.
func evaluateModelECE(model domain.CalibrationModel, validation []domain.FeedbackSample, bins int) float64 {
	predictions := make([]float64, len(validation))
	labels := make([]bool, len(validation))
	for i, s := range validation {
		predictions[i] = applyModel(&model, clamp01(s.RawConfidence))
		labels[i] = s.Correct
	}
	return expectedCalibrationError(predictions, labels, bins)
}

// splitSamples shuffles deterministically and carves off the validation
// fraction, so the same sample set always produces the same split.
func splitSamples(samples []domain.FeedbackSample, validationFraction float64, seed int64) (train, validation []domain.FeedbackSample) {
	shuffled := make([]domain.FeedbackSample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	validationCount := int(float64(len(shuffled)) * validationFraction)
	if validationCount < 1 {
		validationCount = 1
	}
	if validationCount >= len(shuffled) {
		validationCount = len(shuffled) - 1
	}
	return shuffled[validationCount:], shuffled[:validationCount]
}

func samplePairs(samples []domain.FeedbackSample) ([]float64, []bool) {
	confidences := make([]float64, len(samples))
	labels := make([]bool, len(samples))
	for i, s := range samples {
		confidences[i] = clamp01(s.RawConfidence)
		labels[i] = s.Correct
	}
	return confidences, labels
}
