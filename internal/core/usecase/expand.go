package usecase

import (
	"sort"
	"strings"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
)

// ExpansionConfig holds the per-source weights and the expansion cap.
// Validation happens at startup; Expand itself never fails.
type ExpansionConfig struct {
	MaxTerms           int
	SynonymWeight      float64
	AbbreviationWeight float64
	SpecialtyWeight    float64
	ContextWeight      float64
	DocumentTypeWeight float64
}

func DefaultExpansionConfig() ExpansionConfig {
	return ExpansionConfig{
		MaxTerms:           10,
		SynonymWeight:      0.9,
		AbbreviationWeight: 0.8,
		SpecialtyWeight:    0.7,
		ContextWeight:      0.6,
		DocumentTypeWeight: 0.6,
	}
}

// QueryExpander turns a raw analysis query into a weighted set of additional
// search terms drawn from the domain vocabulary plus caller context.
type QueryExpander struct {
	vocabulary ports.VocabularyStore
	cfg        ExpansionConfig
}

func NewQueryExpander(vocabulary ports.VocabularyStore, cfg ExpansionConfig) *QueryExpander {
	return &QueryExpander{vocabulary: vocabulary, cfg: cfg}
}

type ExpandOptions struct {
	Discipline      string
	DocumentType    string
	ContextEntities []string
}

// Expand is pure: an empty query passes through unchanged and unknown terms
// simply contribute nothing.
func (e *QueryExpander) Expand(query string, opts ExpandOptions) domain.Expansion {
	original := strings.TrimSpace(query)
	result := domain.Expansion{
		OriginalQuery: original,
		ExpandedQuery: original,
	}
	if original == "" {
		return result
	}

	queryTokens := toTokenSet(original)
	candidates := make([]domain.ExpansionTerm, 0, 16)
	add := func(term string, source domain.ExpansionSource, weight float64) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		if _, ok := queryTokens[strings.ToLower(term)]; ok {
			return
		}
		candidates = append(candidates, domain.ExpansionTerm{
			Term:   term,
			Source: source,
			Weight: weight,
		})
	}

	for _, term := range keyTerms(original) {
		for _, synonym := range e.vocabulary.Synonyms(term) {
			add(synonym, domain.SourceSynonym, e.cfg.SynonymWeight)
		}
		for _, expansion := range e.vocabulary.Abbreviations(term) {
			add(expansion, domain.SourceAbbreviation, e.cfg.AbbreviationWeight)
		}
	}
	if opts.Discipline != "" {
		for _, term := range e.vocabulary.SpecialtyTerms(opts.Discipline) {
			add(term, domain.SourceSpecialty, e.cfg.SpecialtyWeight)
		}
	}
	for _, entity := range opts.ContextEntities {
		add(entity, domain.SourceContext, e.cfg.ContextWeight)
	}
	if opts.DocumentType != "" {
		add(opts.DocumentType, domain.SourceDocumentType, e.cfg.DocumentTypeWeight)
	}

	result.Terms = dedupeByMaxWeight(candidates)
	sort.SliceStable(result.Terms, func(i, j int) bool {
		if result.Terms[i].Weight != result.Terms[j].Weight {
			return result.Terms[i].Weight > result.Terms[j].Weight
		}
		return result.Terms[i].Term < result.Terms[j].Term
	})
	if e.cfg.MaxTerms > 0 && len(result.Terms) > e.cfg.MaxTerms {
		result.Terms = result.Terms[:e.cfg.MaxTerms]
	}

	if len(result.Terms) > 0 {
		var b strings.Builder
		b.WriteString(original)
		for _, term := range result.Terms {
			b.WriteString(" ")
			b.WriteString(term.Term)
		}
		result.ExpandedQuery = b.String()
	}
	return result
}

// dedupeByMaxWeight collapses case-insensitive duplicates, keeping the
// highest weight seen per term.
func dedupeByMaxWeight(candidates []domain.ExpansionTerm) []domain.ExpansionTerm {
	best := make(map[string]int, len(candidates))
	out := make([]domain.ExpansionTerm, 0, len(candidates))
	for _, candidate := range candidates {
		key := strings.ToLower(candidate.Term)
		if at, ok := best[key]; ok {
			if candidate.Weight > out[at].Weight {
				out[at] = candidate
			}
			continue
		}
		best[key] = len(out)
		out = append(out, candidate)
	}
	return out
}
