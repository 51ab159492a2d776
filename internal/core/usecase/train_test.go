package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

type fakeFeedbackStore struct {
	samples []domain.FeedbackSample
}

func (f *fakeFeedbackStore) Append(_ context.Context, sample domain.FeedbackSample) error {
	f.samples = append(f.samples, sample)
	return nil
}

func (f *fakeFeedbackStore) All(_ context.Context) ([]domain.FeedbackSample, error) {
	return f.samples, nil
}

func (f *fakeFeedbackStore) CountSince(_ context.Context, since time.Time) (int, error) {
	count := 0
	for _, s := range f.samples {
		if s.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeFeedbackStore) Stats(_ context.Context) (domain.FeedbackStats, error) {
	return domain.FeedbackStats{TotalSamples: len(f.samples)}, nil
}

type fakeModelStore struct {
	saved    []domain.CalibrationModel
	deployed []bool
}

func (f *fakeModelStore) SaveModel(_ context.Context, model domain.CalibrationModel, deployed bool) error {
	f.saved = append(f.saved, model)
	f.deployed = append(f.deployed, deployed)
	return nil
}

func (f *fakeModelStore) LatestDeployedModel(_ context.Context) (*domain.CalibrationModel, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.deployed[i] {
			model := f.saved[i]
			return &model, nil
		}
	}
	return nil, nil
}

type fakeJobStore struct {
	jobs []domain.TrainingJob
}

func (f *fakeJobStore) SaveJob(_ context.Context, job domain.TrainingJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobStore) LatestJob(_ context.Context) (*domain.TrainingJob, error) {
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[len(f.jobs)-1]
	return &job, nil
}

func newTestOrchestrator(samples []domain.FeedbackSample) (*TrainingOrchestrator, *CalibrationService, *fakeModelStore, *fakeJobStore) {
	calibration := NewCalibrationService(domain.IdentityModel())
	models := &fakeModelStore{}
	jobs := &fakeJobStore{}
	orchestrator := NewTrainingOrchestrator(
		calibration,
		&fakeFeedbackStore{samples: samples},
		models,
		jobs,
		DefaultTrainingConfig(),
		slog.Default(),
	)
	return orchestrator, calibration, models, jobs
}

func TestMaybeTrainSkipsOnInsufficientData(t *testing.T) {
	orchestrator, calibration, models, jobs := newTestOrchestrator(overconfidentSamples(10))

	job, err := orchestrator.MaybeTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("maybe train: %v", err)
	}
	if job.Status != domain.TrainingSkipped {
		t.Fatalf("expected skipped, got %s", job.Status)
	}
	if job.Reason != "insufficient data" {
		t.Fatalf("unexpected reason %q", job.Reason)
	}
	if calibration.Active().Method != domain.MethodIdentity {
		t.Fatal("active model must stay identity")
	}
	if len(models.saved) != 0 {
		t.Fatalf("no model must be persisted, got %d", len(models.saved))
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("expected the skipped job to be recorded, got %d", len(jobs.jobs))
	}
}

func TestMaybeTrainDeploysWhenGateCleared(t *testing.T) {
	orchestrator, calibration, models, _ := newTestOrchestrator(overconfidentSamples(200))

	job, err := orchestrator.MaybeTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("maybe train: %v", err)
	}
	if job.Status != domain.TrainingSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", job.Status, job.Reason)
	}
	if !job.Deployed {
		t.Fatalf("expected deployment, reason=%q new=%v baseline=%v", job.Reason, job.NewECE, job.BaselineECE)
	}
	if job.NewECE >= job.BaselineECE {
		t.Fatalf("deployed without improvement: %v >= %v", job.NewECE, job.BaselineECE)
	}

	if calibration.Active().Method == domain.MethodIdentity {
		t.Fatal("active model not swapped")
	}
	if len(models.saved) != 1 || !models.deployed[0] {
		t.Fatalf("deployed model not persisted: %+v", models.deployed)
	}
}

func TestMaybeTrainSecondRunDoesNotRedeploy(t *testing.T) {
	orchestrator, _, models, _ := newTestOrchestrator(overconfidentSamples(200))

	first, err := orchestrator.MaybeTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.Deployed {
		t.Fatal("first run must deploy")
	}

	// Same data, same deterministic fit: the candidate cannot beat the
	// model it is identical to.
	second, err := orchestrator.MaybeTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Deployed {
		t.Fatal("second run must not redeploy")
	}
	if second.Reason == "" {
		t.Fatal("expected a gate reason")
	}
	if len(models.saved) != 2 || models.deployed[1] {
		t.Fatalf("second model must be persisted undeployed: %+v", models.deployed)
	}
}

func TestMaybeTrainRejectsConcurrentTrigger(t *testing.T) {
	orchestrator, _, _, _ := newTestOrchestrator(overconfidentSamples(200))
	orchestrator.running.Store(true)

	job, err := orchestrator.MaybeTrain(context.Background(), true)
	if !domain.IsKind(err, domain.ErrTrainingBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
	if job.Status != domain.TrainingSkipped {
		t.Fatalf("expected skipped job, got %s", job.Status)
	}
}

func TestMaybeTrainUnforcedSkipsFreshModelWithFewSamples(t *testing.T) {
	orchestrator, _, _, _ := newTestOrchestrator(overconfidentSamples(10))

	job, err := orchestrator.MaybeTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("maybe train: %v", err)
	}
	if job.Status != domain.TrainingSkipped {
		t.Fatalf("expected skipped, got %s", job.Status)
	}
	if job.Reason == "" {
		t.Fatal("expected a due-check reason")
	}
}

func TestHealthReportsActiveModelAndBacklog(t *testing.T) {
	samples := overconfidentSamples(200)
	now := time.Now().UTC()
	for i := range samples {
		samples[i].CreatedAt = now
	}
	orchestrator, _, _, _ := newTestOrchestrator(samples)

	if _, err := orchestrator.MaybeTrain(context.Background(), true); err != nil {
		t.Fatalf("maybe train: %v", err)
	}

	health, err := orchestrator.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.ActiveMethod == domain.MethodIdentity {
		t.Fatal("expected a fitted active method")
	}
	if health.LastTrainingOutcome != string(domain.TrainingSucceeded) {
		t.Fatalf("unexpected last outcome %q", health.LastTrainingOutcome)
	}
	if health.ModelAgeDays < 0 {
		t.Fatalf("negative model age: %v", health.ModelAgeDays)
	}
}
