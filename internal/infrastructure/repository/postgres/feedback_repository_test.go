package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

func newFeedbackRepoWithMock(t *testing.T) (*FeedbackRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FeedbackRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestAppendInsertsSample(t *testing.T) {
	repo, mock, done := newFeedbackRepoWithMock(t)
	defer done()

	createdAt := time.Now().UTC()
	mock.ExpectExec("INSERT INTO feedback_samples").
		WithArgs("f-1", 0.82, true, "cardiology", "discharge summary", createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), domain.FeedbackSample{
		FindingID:     "f-1",
		RawConfidence: 0.82,
		Correct:       true,
		Discipline:    "cardiology",
		DocumentType:  "discharge summary",
		CreatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAllScansSamplesInOrder(t *testing.T) {
	repo, mock, done := newFeedbackRepoWithMock(t)
	defer done()

	createdAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"finding_id", "raw_confidence", "correct", "discipline", "document_type", "created_at"}).
		AddRow("f-1", 0.9, false, "cardiology", "", createdAt).
		AddRow("f-2", 0.4, true, "", "progress note", createdAt)
	mock.ExpectQuery("SELECT finding_id, raw_confidence, correct").
		WillReturnRows(rows)

	samples, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].FindingID != "f-1" || samples[0].Correct {
		t.Fatalf("first sample mangled: %+v", samples[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountSincePassesBoundary(t *testing.T) {
	repo, mock, done := newFeedbackRepoWithMock(t)
	defer done()

	since := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountSince(context.Background(), since)
	if err != nil {
		t.Fatalf("count since: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatsAggregatesTotalsAndDisciplines(t *testing.T) {
	repo, mock, done := newFeedbackRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "correct", "incorrect"}).AddRow(10, 7, 3))
	mock.ExpectQuery("SELECT discipline, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"discipline", "count"}).
			AddRow("cardiology", 6).
			AddRow("nephrology", 4))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSamples != 10 || stats.CorrectCount != 7 || stats.IncorrectCount != 3 {
		t.Fatalf("totals wrong: %+v", stats)
	}
	if stats.ByDiscipline["cardiology"] != 6 {
		t.Fatalf("discipline breakdown wrong: %+v", stats.ByDiscipline)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
