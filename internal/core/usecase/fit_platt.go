package usecase

import (
	"errors"
	"math"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

const (
	plattIterations   = 2000
	plattLearningRate = 0.5
)

// fitPlatt fits sigmoid(a*x+b) on the raw score by gradient descent over
// logistic loss. The raw score is the single feature, so this stays a 1-D
// logistic regression with an intercept.
func fitPlatt(confidences []float64, labels []bool) (domain.CalibrationParams, error) {
	if len(confidences) == 0 || len(confidences) != len(labels) {
		return domain.CalibrationParams{}, errors.New("empty or mismatched training pairs")
	}

	n := float64(len(confidences))
	a, b := 1.0, 0.0
	for iter := 0; iter < plattIterations; iter++ {
		gradA, gradB := 0.0, 0.0
		for i, x := range confidences {
			p := sigmoid(a*x + b)
			y := 0.0
			if labels[i] {
				y = 1.0
			}
			diff := p - y
			gradA += diff * x
			gradB += diff
		}
		a -= plattLearningRate * gradA / n
		b -= plattLearningRate * gradB / n
	}

	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return domain.CalibrationParams{}, errors.New("platt fit diverged")
	}
	return domain.CalibrationParams{PlattA: a, PlattB: b}, nil
}
