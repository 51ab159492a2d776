// Package dense implements an in-process exact nearest-neighbor index over
// rule embeddings. Vectors are L2-normalized at build time so similarity is
// a single dot product. The index is immutable after Build.
package dense

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
)

type entry struct {
	rule   domain.Rule
	vector []float32
}

type Index struct {
	entries      []entry
	dimension    int
	byDiscipline map[string][]int
}

// Build embeds every rule and constructs the index. Any embedding failure is
// fatal: the service must not start with a partial dense signal.
func Build(ctx context.Context, rules []domain.Rule, embedder ports.Embedder) (*Index, error) {
	if len(rules) == 0 {
		return nil, errors.New("empty rule catalog")
	}

	texts := make([]string, len(rules))
	for i, rule := range rules {
		texts[i] = rule.Title + ". " + rule.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed rule catalog: %w", err)
	}
	if len(vectors) != len(rules) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d rules", len(vectors), len(rules))
	}

	ix := &Index{
		entries:      make([]entry, 0, len(rules)),
		byDiscipline: make(map[string][]int),
	}
	for i, rule := range rules {
		vector := normalize(vectors[i])
		if len(vector) == 0 {
			return nil, fmt.Errorf("empty embedding for rule %s", rule.ID)
		}
		if ix.dimension == 0 {
			ix.dimension = len(vector)
		} else if len(vector) != ix.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch for rule %s: %d != %d", rule.ID, len(vector), ix.dimension)
		}

		docIndex := len(ix.entries)
		ix.entries = append(ix.entries, entry{rule: rule, vector: vector})
		if discipline := strings.ToLower(strings.TrimSpace(rule.Discipline)); discipline != "" {
			ix.byDiscipline[discipline] = append(ix.byDiscipline[discipline], docIndex)
		}
	}
	return ix, nil
}

// Search returns the top limit rules by cosine similarity to the query
// vector, with discipline applied as a hard pre-filter.
func (ix *Index) Search(vector []float32, limit int, filter domain.RetrievalFilter) []domain.ScoredRule {
	query := normalize(vector)
	if len(query) != ix.dimension {
		return []domain.ScoredRule{}
	}

	candidates := ix.candidateDocs(filter)
	hits := make([]domain.ScoredRule, 0, len(candidates))
	for _, docIndex := range candidates {
		e := &ix.entries[docIndex]
		score := dot(query, e.vector)
		if score > 0 {
			hits = append(hits, domain.ScoredRule{Rule: e.rule, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Rule.ID < hits[j].Rule.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (ix *Index) candidateDocs(filter domain.RetrievalFilter) []int {
	discipline := strings.ToLower(strings.TrimSpace(filter.Discipline))
	if discipline == "" {
		all := make([]int, len(ix.entries))
		for i := range ix.entries {
			all[i] = i
		}
		return all
	}
	return ix.byDiscipline[discipline]
}

func normalize(vector []float32) []float32 {
	sum := 0.0
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
