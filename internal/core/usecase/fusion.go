package usecase

import (
	"sort"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// fuseRulesRRF combines the lexical and dense ranked lists with reciprocal
// rank fusion: a rule at 1-based rank r in a list contributes
// weight/(k+r); rules missing from a list contribute nothing from it.
func fuseRulesRRF(lexical, dense []domain.ScoredRule, rrfK int, lexicalWeight, denseWeight float64) []domain.RetrievedRule {
	if rrfK <= 0 {
		rrfK = 60
	}
	if lexicalWeight <= 0 {
		lexicalWeight = 1.0
	}
	if denseWeight <= 0 {
		denseWeight = 1.0
	}

	acc := make(map[string]*domain.RetrievedRule, len(lexical)+len(dense))
	order := make([]string, 0, len(lexical)+len(dense))
	candidate := func(rule domain.Rule) *domain.RetrievedRule {
		if existing, ok := acc[rule.ID]; ok {
			return existing
		}
		fused := &domain.RetrievedRule{
			RuleID:     rule.ID,
			Title:      rule.Title,
			Text:       rule.Text,
			Discipline: rule.Discipline,
		}
		acc[rule.ID] = fused
		order = append(order, rule.ID)
		return fused
	}

	for rank, hit := range lexical {
		fused := candidate(hit.Rule)
		fused.LexicalScore = hit.Score
		fused.FusedScore += lexicalWeight / float64(rrfK+rank+1)
	}
	for rank, hit := range dense {
		fused := candidate(hit.Rule)
		fused.DenseScore = hit.Score
		fused.FusedScore += denseWeight / float64(rrfK+rank+1)
	}

	out := make([]domain.RetrievedRule, 0, len(order))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	sortRetrieved(out)
	return out
}

// sortRetrieved orders by fused score descending, breaking ties by lexical
// score then rule id so results are deterministic.
func sortRetrieved(rules []domain.RetrievedRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].FusedScore != rules[j].FusedScore {
			return rules[i].FusedScore > rules[j].FusedScore
		}
		if rules[i].LexicalScore != rules[j].LexicalScore {
			return rules[i].LexicalScore > rules[j].LexicalScore
		}
		return rules[i].RuleID < rules[j].RuleID
	})
}

func trimRetrieved(rules []domain.RetrievedRule, limit int) []domain.RetrievedRule {
	if limit <= 0 || len(rules) <= limit {
		return rules
	}
	return rules[:limit]
}
