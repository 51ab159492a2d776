package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
)

// TrainingConfig controls the retraining cadence and the deployment gate.
type TrainingConfig struct {
	Fit FitConfig

	Interval             time.Duration
	FeedbackDelta        int
	ImprovementThreshold float64
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Fit:                  DefaultFitConfig(),
		Interval:             7 * 24 * time.Hour,
		FeedbackDelta:        100,
		ImprovementThreshold: 0.05,
	}
}

// TrainingOrchestrator periodically retrains the calibrator from feedback
// and deploys the result only when it clears the quality gate. It is the
// sole writer of the active model.
type TrainingOrchestrator struct {
	calibration *CalibrationService
	feedback    ports.FeedbackStore
	models      ports.ModelStore
	jobs        ports.TrainingJobStore
	cfg         TrainingConfig
	logger      *slog.Logger

	running          atomic.Bool
	lastAttemptCount atomic.Int64
}

func NewTrainingOrchestrator(
	calibration *CalibrationService,
	feedback ports.FeedbackStore,
	models ports.ModelStore,
	jobs ports.TrainingJobStore,
	cfg TrainingConfig,
	logger *slog.Logger,
) *TrainingOrchestrator {
	return &TrainingOrchestrator{
		calibration: calibration,
		feedback:    feedback,
		models:      models,
		jobs:        jobs,
		cfg:         cfg,
		logger:      logger,
	}
}

// MaybeTrain runs at most one training job at a time. A trigger arriving
// while a job is running is rejected as skipped, not queued, so a stalled
// data source cannot stack retraining work.
func (o *TrainingOrchestrator) MaybeTrain(ctx context.Context, force bool) (domain.TrainingJob, error) {
	if !o.running.CompareAndSwap(false, true) {
		job := o.newJob(domain.TrainingSkipped, "training already running")
		return job, domain.WrapError(domain.ErrTrainingBusy, "maybe train", errors.New("concurrent trigger rejected"))
	}
	defer o.running.Store(false)

	if !force {
		due, reason, err := o.isDue(ctx)
		if err != nil {
			return o.finishJob(ctx, o.newJob(domain.TrainingFailed, err.Error())), err
		}
		if !due {
			return o.finishJob(ctx, o.newJob(domain.TrainingSkipped, reason)), nil
		}
	}

	job := o.newJob(domain.TrainingRunning, "")
	samples, err := o.feedback.All(ctx)
	if err != nil {
		job.Status = domain.TrainingFailed
		job.Reason = fmt.Sprintf("load feedback: %v", err)
		return o.finishJob(ctx, job), fmt.Errorf("load feedback: %w", err)
	}
	job.SampleCount = len(samples)
	o.lastAttemptCount.Store(int64(len(samples)))

	result, err := fitCalibration(samples, o.cfg.Fit)
	if err != nil {
		if domain.IsKind(err, domain.ErrInsufficientData) {
			job.Status = domain.TrainingSkipped
			job.Reason = "insufficient data"
			o.logger.Info("training_skipped", "reason", job.Reason, "samples", len(samples))
			return o.finishJob(ctx, job), nil
		}
		job.Status = domain.TrainingFailed
		job.Reason = err.Error()
		o.logger.Error("training_failed", "error", err)
		return o.finishJob(ctx, job), err
	}

	// Gate: compare against the active model on the identical validation
	// split, deploy only on a clear relative improvement.
	active := o.calibration.Active()
	job.Method = result.Model.Method
	job.NewECE = result.Model.ECE
	job.BaselineECE = evaluateModelECE(active, result.Validation, o.cfg.Fit.Bins)
	job.Status = domain.TrainingSucceeded

	if job.NewECE < job.BaselineECE*(1-o.cfg.ImprovementThreshold) {
		o.calibration.Deploy(result.Model)
		job.Deployed = true
		if err := o.models.SaveModel(ctx, result.Model, true); err != nil {
			o.logger.Error("save_model_failed", "error", err)
		}
	} else {
		job.Reason = fmt.Sprintf("gate not cleared: new ece %.4f vs baseline %.4f", job.NewECE, job.BaselineECE)
		if err := o.models.SaveModel(ctx, result.Model, false); err != nil {
			o.logger.Error("save_model_failed", "error", err)
		}
	}

	o.logger.Info("training_finished",
		"job_id", job.ID,
		"method", string(job.Method),
		"samples", job.SampleCount,
		"new_ece", job.NewECE,
		"baseline_ece", job.BaselineECE,
		"deployed", job.Deployed,
	)
	return o.finishJob(ctx, job), nil
}

// Health reports the calibration state without triggering training.
func (o *TrainingOrchestrator) Health(ctx context.Context) (domain.CalibrationHealth, error) {
	active := o.calibration.Active()
	health := domain.CalibrationHealth{
		ActiveMethod: active.Method,
		ECE:          active.ECE,
		BrierScore:   active.BrierScore,
	}
	if !active.TrainedAt.IsZero() {
		health.ModelAgeDays = time.Since(active.TrainedAt).Hours() / 24
	}

	backlog, err := o.feedback.CountSince(ctx, active.TrainedAt)
	if err != nil {
		return health, fmt.Errorf("count feedback backlog: %w", err)
	}
	health.SampleBacklog = backlog

	last, err := o.jobs.LatestJob(ctx)
	if err != nil {
		return health, fmt.Errorf("load last training job: %w", err)
	}
	if last != nil {
		health.LastTrainingOutcome = string(last.Status)
	}
	return health, nil
}

func (o *TrainingOrchestrator) isDue(ctx context.Context) (bool, string, error) {
	active := o.calibration.Active()
	if active.TrainedAt.IsZero() || time.Since(active.TrainedAt) >= o.cfg.Interval {
		count, err := o.feedback.CountSince(ctx, time.Time{})
		if err != nil {
			return false, "", fmt.Errorf("count feedback: %w", err)
		}
		if count >= o.cfg.Fit.MinSamples {
			return true, "", nil
		}
		return false, fmt.Sprintf("only %d feedback samples, need %d", count, o.cfg.Fit.MinSamples), nil
	}

	count, err := o.feedback.CountSince(ctx, time.Time{})
	if err != nil {
		return false, "", fmt.Errorf("count feedback: %w", err)
	}
	if grown := count - int(o.lastAttemptCount.Load()); grown >= o.cfg.FeedbackDelta {
		return true, "", nil
	}
	return false, "active model is fresh and feedback growth is below delta", nil
}

func (o *TrainingOrchestrator) newJob(status domain.TrainingStatus, reason string) domain.TrainingJob {
	return domain.TrainingJob{
		ID:        uuid.NewString(),
		Status:    status,
		StartedAt: time.Now().UTC(),
		Reason:    reason,
	}
}

func (o *TrainingOrchestrator) finishJob(ctx context.Context, job domain.TrainingJob) domain.TrainingJob {
	job.FinishedAt = time.Now().UTC()
	if err := o.jobs.SaveJob(ctx, job); err != nil {
		o.logger.Error("save_training_job_failed", "job_id", job.ID, "error", err)
	}
	return job
}
