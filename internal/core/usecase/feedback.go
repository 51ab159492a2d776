package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
)

// FeedbackSubmitService validates user verdicts and hands them to the
// feedback queue. Persistence happens asynchronously in the worker, so
// submission stays cheap on the request path.
type FeedbackSubmitService struct {
	queue ports.FeedbackQueue
}

func NewFeedbackSubmitService(queue ports.FeedbackQueue) *FeedbackSubmitService {
	return &FeedbackSubmitService{queue: queue}
}

func (s *FeedbackSubmitService) Submit(ctx context.Context, sample domain.FeedbackSample) error {
	sample.FindingID = strings.TrimSpace(sample.FindingID)
	if sample.FindingID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit feedback", errors.New("finding id is required"))
	}
	if math.IsNaN(sample.RawConfidence) || sample.RawConfidence < 0 || sample.RawConfidence > 1 {
		return domain.WrapError(domain.ErrInvalidInput, "submit feedback",
			fmt.Errorf("raw confidence %v outside [0,1]", sample.RawConfidence))
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}

	if err := s.queue.PublishFeedback(ctx, sample); err != nil {
		return fmt.Errorf("publish feedback: %w", err)
	}
	return nil
}

// FeedbackIngestService appends queued samples to the store. Consumption is
// at-least-once; an occasional duplicate append is acceptable training noise.
type FeedbackIngestService struct {
	store ports.FeedbackStore
}

func NewFeedbackIngestService(store ports.FeedbackStore) *FeedbackIngestService {
	return &FeedbackIngestService{store: store}
}

func (s *FeedbackIngestService) Ingest(ctx context.Context, sample domain.FeedbackSample) error {
	sample.RawConfidence = clamp01(sample.RawConfidence)
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}
	if err := s.store.Append(ctx, sample); err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	return nil
}
