package usecase

import (
	"testing"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

func scored(id string, score float64) domain.ScoredRule {
	return domain.ScoredRule{Rule: domain.Rule{ID: id, Title: id}, Score: score}
}

func TestFuseRulesRRFDeduplicatesAndRanksDualHitsFirst(t *testing.T) {
	lexical := []domain.ScoredRule{scored("R-1", 4.2), scored("R-2", 3.1)}
	dense := []domain.ScoredRule{scored("R-2", 0.88), scored("R-3", 0.71)}

	fused := fuseRulesRRF(lexical, dense, 60, 1.0, 1.0)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused rules, got %d", len(fused))
	}
	if fused[0].RuleID != "R-2" {
		t.Fatalf("expected dual-signal rule first, got %s", fused[0].RuleID)
	}
	if fused[0].LexicalScore != 3.1 || fused[0].DenseScore != 0.88 {
		t.Fatalf("provenance scores lost: %+v", fused[0])
	}

	// rank 2 lexical + rank 1 dense
	wantFused := 1.0/62.0 + 1.0/61.0
	if diff := fused[0].FusedScore - wantFused; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("fused score %v, want %v", fused[0].FusedScore, wantFused)
	}
}

func TestFuseRulesRRFSingleListRuleKeepsZeroOtherScore(t *testing.T) {
	fused := fuseRulesRRF([]domain.ScoredRule{scored("R-1", 2.0)}, nil, 60, 1.0, 1.0)
	if len(fused) != 1 {
		t.Fatalf("expected 1 fused rule, got %d", len(fused))
	}
	if fused[0].DenseScore != 0 {
		t.Fatalf("expected zero dense score for lexical-only hit, got %v", fused[0].DenseScore)
	}
	if fused[0].FusedScore != 1.0/61.0 {
		t.Fatalf("fused score %v, want %v", fused[0].FusedScore, 1.0/61.0)
	}
}

func TestFuseRulesRRFTieBreaksByRuleID(t *testing.T) {
	lexical := []domain.ScoredRule{scored("R-b", 1.0)}
	dense := []domain.ScoredRule{scored("R-a", 1.0)}

	fused := fuseRulesRRF(lexical, dense, 1000, 1.0, 1.0)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused rules, got %d", len(fused))
	}
	// Equal fused contribution; lexical score breaks the tie.
	if fused[0].RuleID != "R-b" {
		t.Fatalf("expected lexical-score tie-break, got first=%s", fused[0].RuleID)
	}
}

func TestFuseRulesRRFWeightsShiftRanking(t *testing.T) {
	lexical := []domain.ScoredRule{scored("R-lex", 5.0)}
	dense := []domain.ScoredRule{scored("R-dense", 0.9)}

	fused := fuseRulesRRF(lexical, dense, 60, 0.5, 2.0)
	if fused[0].RuleID != "R-dense" {
		t.Fatalf("expected dense weight to dominate, got %s", fused[0].RuleID)
	}
}

func TestTrimRetrieved(t *testing.T) {
	rules := []domain.RetrievedRule{{RuleID: "a"}, {RuleID: "b"}, {RuleID: "c"}}
	if got := trimRetrieved(rules, 2); len(got) != 2 {
		t.Fatalf("expected trim to 2, got %d", len(got))
	}
	if got := trimRetrieved(rules, 0); len(got) != 3 {
		t.Fatalf("expected no trim for zero limit, got %d", len(got))
	}
}
