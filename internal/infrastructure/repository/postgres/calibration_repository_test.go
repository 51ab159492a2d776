package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

func newCalibrationRepoWithMock(t *testing.T) (*CalibrationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CalibrationRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSaveModelSerializesParams(t *testing.T) {
	repo, mock, done := newCalibrationRepoWithMock(t)
	defer done()

	trainedAt := time.Now().UTC()
	mock.ExpectExec("INSERT INTO calibration_models").
		WithArgs("temperature-scaling", []byte(`{"temperature":1.8}`), 0.03, 0.17, 220, trainedAt, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveModel(context.Background(), domain.CalibrationModel{
		Method:      domain.MethodTemperature,
		Params:      domain.CalibrationParams{Temperature: 1.8},
		ECE:         0.03,
		BrierScore:  0.17,
		SampleCount: 220,
		TrainedAt:   trainedAt,
	}, true)
	if err != nil {
		t.Fatalf("save model: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestDeployedModelRestoresParams(t *testing.T) {
	repo, mock, done := newCalibrationRepoWithMock(t)
	defer done()

	trainedAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"method", "params", "ece", "brier_score", "sample_count", "trained_at"}).
		AddRow("isotonic-regression", []byte(`{"isotonic_x":[0.1,0.9],"isotonic_y":[0.2,0.8]}`), 0.02, 0.15, 300, trainedAt)
	mock.ExpectQuery("SELECT method, params").
		WillReturnRows(rows)

	model, err := repo.LatestDeployedModel(context.Background())
	if err != nil {
		t.Fatalf("latest deployed model: %v", err)
	}
	if model == nil {
		t.Fatal("expected a model")
	}
	if model.Method != domain.MethodIsotonic {
		t.Fatalf("unexpected method %s", model.Method)
	}
	if len(model.Params.IsotonicX) != 2 || model.Params.IsotonicY[1] != 0.8 {
		t.Fatalf("params not restored: %+v", model.Params)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestDeployedModelReturnsNilWithoutRows(t *testing.T) {
	repo, mock, done := newCalibrationRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT method, params").
		WillReturnRows(sqlmock.NewRows([]string{"method", "params", "ece", "brier_score", "sample_count", "trained_at"}))

	model, err := repo.LatestDeployedModel(context.Background())
	if err != nil {
		t.Fatalf("latest deployed model: %v", err)
	}
	if model != nil {
		t.Fatalf("expected nil model, got %+v", model)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveJobPersistsOutcome(t *testing.T) {
	repo, mock, done := newCalibrationRepoWithMock(t)
	defer done()

	started := time.Now().UTC()
	finished := started.Add(2 * time.Second)
	mock.ExpectExec("INSERT INTO training_jobs").
		WithArgs("job-1", "succeeded", started, finished, 220, "platt-scaling", 0.03, 0.41, true, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveJob(context.Background(), domain.TrainingJob{
		ID:          "job-1",
		Status:      domain.TrainingSucceeded,
		StartedAt:   started,
		FinishedAt:  finished,
		SampleCount: 220,
		Method:      domain.MethodPlatt,
		NewECE:      0.03,
		BaselineECE: 0.41,
		Deployed:    true,
	})
	if err != nil {
		t.Fatalf("save job: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestJobReturnsNilWithoutRows(t *testing.T) {
	repo, mock, done := newCalibrationRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, status").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "started_at", "finished_at", "sample_count", "method", "new_ece", "baseline_ece", "deployed", "reason"}))

	job, err := repo.LatestJob(context.Background())
	if err != nil {
		t.Fatalf("latest job: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
