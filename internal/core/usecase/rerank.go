package usecase

import (
	"sort"
	"strings"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// rerankRuleCandidates reorders the top topN fused candidates with a
// pairwise query-rule relevance score: the normalized fused score blended
// with query-token overlap against the rule text and a title hit boost.
// Candidates past topN keep their fused order.
func rerankRuleCandidates(query string, fused []domain.RetrievedRule, topN int) []domain.RetrievedRule {
	if len(fused) == 0 {
		return fused
	}
	if topN <= 0 || topN > len(fused) {
		topN = len(fused)
	}

	head := make([]domain.RetrievedRule, topN)
	copy(head, fused[:topN])
	queryTokens := toTokenSet(query)

	minScore := head[0].FusedScore
	maxScore := head[0].FusedScore
	for _, rule := range head[1:] {
		if rule.FusedScore < minScore {
			minScore = rule.FusedScore
		}
		if rule.FusedScore > maxScore {
			maxScore = rule.FusedScore
		}
	}

	scoreRange := maxScore - minScore
	normalize := func(v float64) float64 {
		if scoreRange <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / scoreRange
	}

	for i := range head {
		normalizedFused := normalize(head[i].FusedScore)
		overlap := tokenOverlap(queryTokens, toTokenSet(head[i].Text))
		titleBoost := titleTokenHit(queryTokens, head[i].Title)
		head[i].RerankScore = 0.60*normalizedFused + 0.30*overlap + 0.10*titleBoost
	}

	sort.SliceStable(head, func(i, j int) bool {
		if head[i].RerankScore != head[j].RerankScore {
			return head[i].RerankScore > head[j].RerankScore
		}
		if head[i].LexicalScore != head[j].LexicalScore {
			return head[i].LexicalScore > head[j].LexicalScore
		}
		return head[i].RuleID < head[j].RuleID
	})

	if topN == len(fused) {
		return head
	}

	out := make([]domain.RetrievedRule, 0, len(fused))
	out = append(out, head...)
	out = append(out, fused[topN:]...)
	return out
}

func titleTokenHit(query map[string]struct{}, title string) float64 {
	if len(query) == 0 || title == "" {
		return 0
	}
	title = strings.ToLower(title)
	for token := range query {
		if token == "" {
			continue
		}
		if strings.Contains(title, token) {
			return 1
		}
	}
	return 0
}
