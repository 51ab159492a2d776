package domain

import "time"

// CalibrationMethod names one fitted transform family. Methods are tagged
// variants over a single model value rather than a type hierarchy, so the
// active model can be swapped as one pointer and serialized as one row.
type CalibrationMethod string

const (
	MethodIdentity    CalibrationMethod = "identity"
	MethodTemperature CalibrationMethod = "temperature-scaling"
	MethodPlatt       CalibrationMethod = "platt-scaling"
	MethodIsotonic    CalibrationMethod = "isotonic-regression"
)

// CalibrationParams holds the method-specific fitted parameters. Only the
// fields for the tagged method are meaningful.
type CalibrationParams struct {
	Temperature float64   `json:"temperature,omitempty"`
	PlattA      float64   `json:"platt_a,omitempty"`
	PlattB      float64   `json:"platt_b,omitempty"`
	IsotonicX   []float64 `json:"isotonic_x,omitempty"`
	IsotonicY   []float64 `json:"isotonic_y,omitempty"`
}

// CalibrationModel is one fitted calibrator plus its fit-time quality
// metrics. Exactly one model is active at a time; it is replaced only by an
// atomic swap after a gated training run.
type CalibrationModel struct {
	Method      CalibrationMethod `json:"method"`
	Params      CalibrationParams `json:"params"`
	ECE         float64           `json:"ece"`
	BrierScore  float64           `json:"brier_score"`
	SampleCount int               `json:"sample_count"`
	TrainedAt   time.Time         `json:"trained_at"`
}

// IdentityModel is the pass-through bootstrap model used until a fitted
// model has been deployed.
func IdentityModel() CalibrationModel {
	return CalibrationModel{Method: MethodIdentity}
}

// CalibrationMetrics is the read-only introspection view of the active model.
type CalibrationMetrics struct {
	Method      CalibrationMethod `json:"method"`
	ECE         float64           `json:"ece"`
	BrierScore  float64           `json:"brier_score"`
	TrainedAt   time.Time         `json:"trained_at"`
	SampleCount int               `json:"sample_count"`
}

// CalibrationHealth is the monitoring snapshot exposed to collaborators.
type CalibrationHealth struct {
	ActiveMethod        CalibrationMethod `json:"active_method"`
	ECE                 float64           `json:"ece"`
	BrierScore          float64           `json:"brier_score"`
	SampleBacklog       int               `json:"sample_backlog"`
	ModelAgeDays        float64           `json:"model_age_days"`
	LastTrainingOutcome string            `json:"last_training_outcome,omitempty"`
}
