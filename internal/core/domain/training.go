package domain

import "time"

type TrainingStatus string

const (
	TrainingQueued    TrainingStatus = "queued"
	TrainingRunning   TrainingStatus = "running"
	TrainingSucceeded TrainingStatus = "succeeded"
	TrainingSkipped   TrainingStatus = "skipped"
	TrainingFailed    TrainingStatus = "failed"
)

// TrainingJob records one retraining attempt. At most one job runs at a
// time; overlapping triggers are rejected as skipped, not queued.
type TrainingJob struct {
	ID          string            `json:"id"`
	Status      TrainingStatus    `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	SampleCount int               `json:"sample_count"`
	Method      CalibrationMethod `json:"method,omitempty"`
	NewECE      float64           `json:"new_ece"`
	BaselineECE float64           `json:"baseline_ece"`
	Deployed    bool              `json:"deployed"`
	Reason      string            `json:"reason,omitempty"`
}
