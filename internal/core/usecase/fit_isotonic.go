package usecase

import (
	"errors"
	"sort"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// fitIsotonic fits a monotone non-decreasing step function via
// pool-adjacent-violators and stores it as interpolation breakpoints. Each
// breakpoint x is the weighted mean raw score of its pooled block, y its
// pooled empirical accuracy.
func fitIsotonic(confidences []float64, labels []bool) (domain.CalibrationParams, error) {
	if len(confidences) == 0 || len(confidences) != len(labels) {
		return domain.CalibrationParams{}, errors.New("empty or mismatched training pairs")
	}

	type pair struct {
		x float64
		y float64
	}
	pairs := make([]pair, len(confidences))
	for i, c := range confidences {
		y := 0.0
		if labels[i] {
			y = 1.0
		}
		pairs[i] = pair{x: c, y: y}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	type block struct {
		sumX   float64
		sumY   float64
		weight float64
	}
	blocks := make([]block, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, block{sumX: p.x, sumY: p.y, weight: 1})
		// Merge backwards while the monotonicity constraint is violated.
		for len(blocks) >= 2 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sumY/prev.weight <= last.sumY/last.weight {
				break
			}
			merged := block{
				sumX:   prev.sumX + last.sumX,
				sumY:   prev.sumY + last.sumY,
				weight: prev.weight + last.weight,
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, merged)
		}
	}

	xs := make([]float64, 0, len(blocks))
	ys := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		x := b.sumX / b.weight
		y := b.sumY / b.weight
		if len(xs) > 0 && x <= xs[len(xs)-1] {
			// Collapse duplicate breakpoints, keeping the later (higher) value.
			ys[len(ys)-1] = y
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return domain.CalibrationParams{}, errors.New("isotonic fit produced no blocks")
	}
	return domain.CalibrationParams{IsotonicX: xs, IsotonicY: ys}, nil
}
