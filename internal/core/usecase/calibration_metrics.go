package usecase

import "math"

// expectedCalibrationError partitions predictions into equal-width
// confidence bins and returns the sample-weighted average absolute gap
// between mean predicted confidence and empirical accuracy per bin.
func expectedCalibrationError(predictions []float64, labels []bool, bins int) float64 {
	if len(predictions) == 0 || len(predictions) != len(labels) {
		return 0
	}
	if bins <= 0 {
		bins = 10
	}

	binConfidence := make([]float64, bins)
	binCorrect := make([]float64, bins)
	binCount := make([]float64, bins)

	for i, p := range predictions {
		b := int(clamp01(p) * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		binConfidence[b] += clamp01(p)
		binCount[b]++
		if labels[i] {
			binCorrect[b]++
		}
	}

	total := float64(len(predictions))
	ece := 0.0
	for b := 0; b < bins; b++ {
		if binCount[b] == 0 {
			continue
		}
		meanConfidence := binConfidence[b] / binCount[b]
		accuracy := binCorrect[b] / binCount[b]
		ece += (binCount[b] / total) * math.Abs(meanConfidence-accuracy)
	}
	return ece
}

// brierScore is the mean squared error between predicted probability and the
// binary outcome.
func brierScore(predictions []float64, labels []bool) float64 {
	if len(predictions) == 0 || len(predictions) != len(labels) {
		return 0
	}
	sum := 0.0
	for i, p := range predictions {
		outcome := 0.0
		if labels[i] {
			outcome = 1.0
		}
		diff := clamp01(p) - outcome
		sum += diff * diff
	}
	return sum / float64(len(predictions))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
