package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
)

// RetrievalConfig controls candidate depth, fusion and reranking.
type RetrievalConfig struct {
	TopK          int
	Candidates    int
	RRFK          int
	LexicalWeight float64
	DenseWeight   float64
	RerankEnabled bool
	RerankTopN    int
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:          10,
		Candidates:    50,
		RRFK:          60,
		LexicalWeight: 1.0,
		DenseWeight:   1.0,
		RerankEnabled: true,
		RerankTopN:    20,
	}
}

// indexArena is the immutable pair of backing indexes. Rebuilds construct a
// new arena off to the side and swap one pointer, so in-flight retrievals
// never observe a partially built index.
type indexArena struct {
	lexical ports.LexicalIndex
	dense   ports.DenseIndex
}

// HybridRetriever runs an expanded query against both indexes, fuses the
// ranked lists and optionally reranks the head. It is stateless per call;
// unlimited concurrent readers share one instance.
type HybridRetriever struct {
	expander *QueryExpander
	embedder ports.Embedder
	catalog  ports.RuleCatalog
	builder  ports.IndexBuilder
	cfg      RetrievalConfig

	arena atomic.Pointer[indexArena]
}

func NewHybridRetriever(
	expander *QueryExpander,
	embedder ports.Embedder,
	catalog ports.RuleCatalog,
	builder ports.IndexBuilder,
	cfg RetrievalConfig,
) *HybridRetriever {
	return &HybridRetriever{
		expander: expander,
		embedder: embedder,
		catalog:  catalog,
		builder:  builder,
		cfg:      cfg,
	}
}

// RebuildIndexes loads the catalog and builds a fresh index pair. The first
// call at startup must succeed or the service cannot start.
func (r *HybridRetriever) RebuildIndexes(ctx context.Context) error {
	rules, err := r.catalog.Load(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrIndexUnavailable, "load rule catalog", err)
	}
	lexical, dense, err := r.builder.Build(ctx, rules)
	if err != nil {
		return domain.WrapError(domain.ErrIndexUnavailable, "build indexes", err)
	}
	r.arena.Store(&indexArena{lexical: lexical, dense: dense})
	return nil
}

// ExpandAndRetrieve is the composed entry point: query expansion followed by
// hybrid retrieval.
func (r *HybridRetriever) ExpandAndRetrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	expansion := r.expander.Expand(req.Query, ExpandOptions{
		Discipline:      req.Discipline,
		DocumentType:    req.DocumentType,
		ContextEntities: req.ContextEntities,
	})

	rules, err := r.Retrieve(ctx, expansion.ExpandedQuery, req.Discipline, req.TopK)
	if err != nil {
		return nil, err
	}
	return &domain.SearchResult{Expansion: expansion, Rules: rules}, nil
}

// Retrieve fails closed when an index is unavailable rather than silently
// degrading to single-source ranking. A query that matches nothing returns
// an empty list, not an error.
func (r *HybridRetriever) Retrieve(ctx context.Context, expandedQuery, discipline string, topK int) ([]domain.RetrievedRule, error) {
	arena := r.arena.Load()
	if arena == nil || arena.lexical == nil || arena.dense == nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "retrieve", errors.New("indexes not built"))
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	if expandedQuery == "" {
		return []domain.RetrievedRule{}, nil
	}

	filter := domain.RetrievalFilter{Discipline: discipline}
	lexicalHits := arena.lexical.Search(expandedQuery, r.cfg.Candidates, filter)

	queryVector, err := r.embedder.EmbedQuery(ctx, expandedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	denseHits := arena.dense.Search(queryVector, r.cfg.Candidates, filter)

	fused := fuseRulesRRF(lexicalHits, denseHits, r.cfg.RRFK, r.cfg.LexicalWeight, r.cfg.DenseWeight)
	if r.cfg.RerankEnabled {
		fused = rerankRuleCandidates(expandedQuery, fused, r.cfg.RerankTopN)
	}
	return trimRetrieved(fused, topK), nil
}
