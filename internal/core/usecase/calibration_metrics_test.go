package usecase

import (
	"math"
	"testing"
)

func TestExpectedCalibrationErrorPerfectlyCalibratedBin(t *testing.T) {
	// Four predictions at 0.75 with three correct: bin confidence equals
	// bin accuracy, so the gap is zero.
	predictions := []float64{0.75, 0.75, 0.75, 0.75}
	labels := []bool{true, true, true, false}

	if got := expectedCalibrationError(predictions, labels, 10); math.Abs(got) > 1e-9 {
		t.Fatalf("expected zero ECE, got %v", got)
	}
}

func TestExpectedCalibrationErrorOverconfidentPredictions(t *testing.T) {
	// Everything predicted at 0.95 but only half correct: gap of 0.45.
	predictions := []float64{0.95, 0.95, 0.95, 0.95}
	labels := []bool{true, false, true, false}

	got := expectedCalibrationError(predictions, labels, 10)
	if math.Abs(got-0.45) > 1e-9 {
		t.Fatalf("expected ECE 0.45, got %v", got)
	}
}

func TestExpectedCalibrationErrorWeightsBinsBySampleCount(t *testing.T) {
	// Three samples at 0.95 all wrong (gap 0.95), one at 0.05 wrong
	// (gap 0.05): ECE = 0.75*0.95 + 0.25*0.05.
	predictions := []float64{0.95, 0.95, 0.95, 0.05}
	labels := []bool{false, false, false, false}

	got := expectedCalibrationError(predictions, labels, 10)
	want := 0.75*0.95 + 0.25*0.05
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected ECE %v, got %v", want, got)
	}
}

func TestExpectedCalibrationErrorEmptyInput(t *testing.T) {
	if got := expectedCalibrationError(nil, nil, 10); got != 0 {
		t.Fatalf("expected zero ECE for empty input, got %v", got)
	}
}

func TestBrierScoreKnownValues(t *testing.T) {
	predictions := []float64{1, 0, 0.5}
	labels := []bool{true, false, true}

	// (0 + 0 + 0.25) / 3
	got := brierScore(predictions, labels)
	if math.Abs(got-0.25/3) > 1e-9 {
		t.Fatalf("expected brier %v, got %v", 0.25/3, got)
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-1) != 0 || clamp01(2) != 1 || clamp01(0.3) != 0.3 {
		t.Fatal("clamp01 bounds broken")
	}
	if clamp01(math.NaN()) != 0 {
		t.Fatal("NaN must clamp to 0")
	}
}
