package usecase

import (
	"errors"
	"math"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

const (
	temperatureMin = 0.05
	temperatureMax = 10.0
)

// fitTemperature finds the scalar divisor T minimizing negative
// log-likelihood of sigmoid(logit(p)/T) via golden-section search. T > 1
// softens overconfident scores, T < 1 sharpens underconfident ones.
func fitTemperature(confidences []float64, labels []bool) (domain.CalibrationParams, error) {
	if len(confidences) == 0 || len(confidences) != len(labels) {
		return domain.CalibrationParams{}, errors.New("empty or mismatched training pairs")
	}

	loss := func(t float64) float64 {
		return temperatureNLL(confidences, labels, t)
	}

	golden := (math.Sqrt(5) - 1) / 2
	lo, hi := temperatureMin, temperatureMax
	x1 := hi - golden*(hi-lo)
	x2 := lo + golden*(hi-lo)
	f1, f2 := loss(x1), loss(x2)

	for i := 0; i < 80 && hi-lo > 1e-5; i++ {
		if f1 < f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - golden*(hi-lo)
			f1 = loss(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + golden*(hi-lo)
			f2 = loss(x2)
		}
	}

	t := (lo + hi) / 2
	if math.IsNaN(t) || t <= 0 {
		return domain.CalibrationParams{}, errors.New("temperature search diverged")
	}
	return domain.CalibrationParams{Temperature: t}, nil
}

func temperatureNLL(confidences []float64, labels []bool, t float64) float64 {
	sum := 0.0
	for i, c := range confidences {
		p := sigmoid(logit(c) / t)
		p = math.Min(math.Max(p, logitEpsilon), 1-logitEpsilon)
		if labels[i] {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(confidences))
}
