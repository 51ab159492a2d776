package ports

import (
	"context"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// VocabularyStore serves domain synonyms, abbreviation expansions and
// specialty terms. Lookups are case-normalized and return empty slices for
// unknown terms; they never fail. Implementations must be safe for many
// concurrent readers.
type VocabularyStore interface {
	Synonyms(term string) []string
	Abbreviations(term string) []string
	SpecialtyTerms(discipline string) []string
}

// Embedder builds vectors for catalog rules and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LexicalIndex ranks rules by term overlap. Implementations are immutable
// after construction and lock-free to read.
type LexicalIndex interface {
	Search(query string, limit int, filter domain.RetrievalFilter) []domain.ScoredRule
}

// DenseIndex ranks rules by embedding similarity against a query vector.
type DenseIndex interface {
	Search(vector []float32, limit int, filter domain.RetrievalFilter) []domain.ScoredRule
}

// IndexBuilder constructs a fresh lexical/dense index pair from a catalog.
// Rebuilds produce a whole new pair off to the side; the retriever swaps a
// single pointer.
type IndexBuilder interface {
	Build(ctx context.Context, rules []domain.Rule) (LexicalIndex, DenseIndex, error)
}

// RuleCatalog supplies the ordered rule collection used to build indexes.
type RuleCatalog interface {
	Load(ctx context.Context) ([]domain.Rule, error)
}

// FeedbackStore is the append-only persistence for feedback samples.
type FeedbackStore interface {
	Append(ctx context.Context, sample domain.FeedbackSample) error
	All(ctx context.Context) ([]domain.FeedbackSample, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	Stats(ctx context.Context) (domain.FeedbackStats, error)
}

// ModelStore persists fitted calibration models.
type ModelStore interface {
	SaveModel(ctx context.Context, model domain.CalibrationModel, deployed bool) error
	LatestDeployedModel(ctx context.Context) (*domain.CalibrationModel, error)
}

// TrainingJobStore persists training job records.
type TrainingJobStore interface {
	SaveJob(ctx context.Context, job domain.TrainingJob) error
	LatestJob(ctx context.Context) (*domain.TrainingJob, error)
}

// FeedbackQueue decouples feedback submission from persistence.
type FeedbackQueue interface {
	PublishFeedback(ctx context.Context, sample domain.FeedbackSample) error
	SubscribeFeedback(ctx context.Context, handler func(context.Context, domain.FeedbackSample) error) error
}
