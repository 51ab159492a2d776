// Package lexical implements an in-process Okapi BM25 index over the rule
// catalog. The index is immutable after Build and safe for concurrent use
// without locking.
package lexical

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// Title terms count more than body terms, mirroring how rule titles
	// summarize the requirement.
	titleBoost = 1.5
)

type indexedRule struct {
	rule   domain.Rule
	tf     map[string]float64
	length float64
}

type Index struct {
	docs         []indexedRule
	idf          map[string]float64
	avgLength    float64
	byDiscipline map[string][]int
}

// Build constructs the index from the catalog. An empty catalog is an error:
// the retriever must fail at startup rather than serve an empty signal.
func Build(rules []domain.Rule) (*Index, error) {
	if len(rules) == 0 {
		return nil, errors.New("empty rule catalog")
	}

	ix := &Index{
		docs:         make([]indexedRule, 0, len(rules)),
		idf:          make(map[string]float64),
		byDiscipline: make(map[string][]int),
	}

	df := make(map[string]int)
	totalLength := 0.0
	for _, rule := range rules {
		tf := make(map[string]float64)
		length := 0.0
		for _, token := range tokenize(rule.Title) {
			tf[token] += titleBoost
			length += titleBoost
		}
		for _, token := range tokenize(rule.Text) {
			tf[token]++
			length++
		}
		for term := range tf {
			df[term]++
		}

		docIndex := len(ix.docs)
		ix.docs = append(ix.docs, indexedRule{rule: rule, tf: tf, length: length})
		totalLength += length
		if discipline := strings.ToLower(strings.TrimSpace(rule.Discipline)); discipline != "" {
			ix.byDiscipline[discipline] = append(ix.byDiscipline[discipline], docIndex)
		}
	}

	ix.avgLength = totalLength / float64(len(ix.docs))
	n := float64(len(ix.docs))
	for term, freq := range df {
		// Lucene-style smoothing keeps IDF positive for ubiquitous terms.
		ix.idf[term] = math.Log((n+1)/(float64(freq)+1)) + 1
	}
	return ix, nil
}

// Search scores eligible rules against the query and returns the top limit
// hits, ordered by BM25 score descending with rule id tie-break. Discipline
// filtering is a hard pre-filter: ranks are computed only over eligible
// candidates.
func (ix *Index) Search(query string, limit int, filter domain.RetrievalFilter) []domain.ScoredRule {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []domain.ScoredRule{}
	}

	candidates := ix.candidateDocs(filter)
	hits := make([]domain.ScoredRule, 0, len(candidates))
	for _, docIndex := range candidates {
		doc := &ix.docs[docIndex]
		score := 0.0
		for _, term := range terms {
			tf := doc.tf[term]
			if tf == 0 {
				continue
			}
			idf := ix.idf[term]
			norm := tf + bm25K1*(1-bm25B+bm25B*doc.length/ix.avgLength)
			score += idf * tf * (bm25K1 + 1) / norm
		}
		if score > 0 {
			hits = append(hits, domain.ScoredRule{Rule: doc.rule, Score: score})
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
		all := make([]int, len(ix.docs))
		for i := range ix.docs {
			all[i] = i
		}
		return all
	}
	return ix.byDiscipline[discipline]
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
