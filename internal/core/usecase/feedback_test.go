package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

type fakeFeedbackQueue struct {
	published []domain.FeedbackSample
	err       error
}

func (f *fakeFeedbackQueue) PublishFeedback(_ context.Context, sample domain.FeedbackSample) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, sample)
	return nil
}

func (f *fakeFeedbackQueue) SubscribeFeedback(context.Context, func(context.Context, domain.FeedbackSample) error) error {
	return nil
}

func TestSubmitRequiresFindingID(t *testing.T) {
	service := NewFeedbackSubmitService(&fakeFeedbackQueue{})

	err := service.Submit(context.Background(), domain.FeedbackSample{
		FindingID:     "   ",
		RawConfidence: 0.5,
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitRejectsOutOfRangeConfidence(t *testing.T) {
	service := NewFeedbackSubmitService(&fakeFeedbackQueue{})

	for _, raw := range []float64{-0.1, 1.1} {
		err := service.Submit(context.Background(), domain.FeedbackSample{
			FindingID:     "f-1",
			RawConfidence: raw,
		})
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("raw=%v: expected invalid input, got %v", raw, err)
		}
	}
}

func TestSubmitPublishesWithTimestamp(t *testing.T) {
	queue := &fakeFeedbackQueue{}
	service := NewFeedbackSubmitService(queue)

	err := service.Submit(context.Background(), domain.FeedbackSample{
		FindingID:     " f-1 ",
		RawConfidence: 0.73,
		Correct:       true,
		Discipline:    "cardiology",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected 1 published sample, got %d", len(queue.published))
	}

	sample := queue.published[0]
	if sample.FindingID != "f-1" {
		t.Fatalf("finding id not trimmed: %q", sample.FindingID)
	}
	if sample.CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}
}

func TestIngestClampsAndAppends(t *testing.T) {
	store := &fakeFeedbackStore{}
	service := NewFeedbackIngestService(store)

	err := service.Ingest(context.Background(), domain.FeedbackSample{
		FindingID:     "f-1",
		RawConfidence: 1.4,
		Correct:       false,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(store.samples) != 1 {
		t.Fatalf("expected 1 appended sample, got %d", len(store.samples))
	}
	if store.samples[0].RawConfidence != 1 {
		t.Fatalf("confidence not clamped: %v", store.samples[0].RawConfidence)
	}
}
