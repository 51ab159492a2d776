package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// CalibrationRepository persists fitted models and training job records so
// the engine can restore the active model across restarts.
type CalibrationRepository struct {
	db *sql.DB
}

func NewCalibrationRepository(db *sql.DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

func (r *CalibrationRepository) SaveModel(ctx context.Context, model domain.CalibrationModel, deployed bool) error {
	params, err := json.Marshal(model.Params)
	if err != nil {
		return fmt.Errorf("marshal calibration params: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO calibration_models (method, params, ece, brier_score, sample_count, trained_at, deployed)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, string(model.Method), params, model.ECE, model.BrierScore, model.SampleCount, model.TrainedAt, deployed)
	if err != nil {
		return fmt.Errorf("save calibration model: %w", err)
	}
	return nil
}

// LatestDeployedModel returns nil when no model has ever been deployed; the
// caller falls back to the identity model.
func (r *CalibrationRepository) LatestDeployedModel(ctx context.Context) (*domain.CalibrationModel, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT method, params, ece, brier_score, sample_count, trained_at
FROM calibration_models
WHERE deployed
ORDER BY trained_at DESC, id DESC
LIMIT 1
`)

	var model domain.CalibrationModel
	var method string
	var params []byte
	err := row.Scan(&method, &params, &model.ECE, &model.BrierScore, &model.SampleCount, &model.TrainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load deployed model: %w", err)
	}

	model.Method = domain.CalibrationMethod(method)
	if err := json.Unmarshal(params, &model.Params); err != nil {
		return nil, fmt.Errorf("unmarshal calibration params: %w", err)
	}
	return &model, nil
}

func (r *CalibrationRepository) SaveJob(ctx context.Context, job domain.TrainingJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO training_jobs (id, status, started_at, finished_at, sample_count, method, new_ece, baseline_ece, deployed, reason)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, job.ID, string(job.Status), job.StartedAt, job.FinishedAt, job.SampleCount,
		string(job.Method), job.NewECE, job.BaselineECE, job.Deployed, job.Reason)
	if err != nil {
		return fmt.Errorf("save training job: %w", err)
	}
	return nil
}

func (r *CalibrationRepository) LatestJob(ctx context.Context) (*domain.TrainingJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, started_at, finished_at, sample_count, method, new_ece, baseline_ece, deployed, reason
FROM training_jobs
ORDER BY started_at DESC
LIMIT 1
`)

	var job domain.TrainingJob
	var status, method string
	err := row.Scan(&job.ID, &status, &job.StartedAt, &job.FinishedAt, &job.SampleCount,
		&method, &job.NewECE, &job.BaselineECE, &job.Deployed, &job.Reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest training job: %w", err)
	}

	job.Status = domain.TrainingStatus(status)
	job.Method = domain.CalibrationMethod(method)
	return &job, nil
}
