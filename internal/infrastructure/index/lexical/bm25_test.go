package lexical

import (
	"testing"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

func indexRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:         "CARD-001",
			Title:      "Troponin documentation for infarction",
			Text:       "Troponin values must be documented for every infarction diagnosis.",
			Discipline: "cardiology",
		},
		{
			ID:         "CARD-002",
			Title:      "Blood pressure staging",
			Text:       "Hypertension stage must match recorded blood pressure readings.",
			Discipline: "cardiology",
		},
		{
			ID:    "DOC-001",
			Title: "Discharge medication list",
			Text:  "Discharge summaries must include reconciled medications.",
		},
	}
}

func TestBuildRejectsEmptyCatalog(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestSearchRanksByTermRelevance(t *testing.T) {
	ix, err := Build(indexRules())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits := ix.Search("troponin infarction", 10, domain.RetrievalFilter{})
	if len(hits) != 1 {
		t.Fatalf("expected only the matching rule, got %d", len(hits))
	}
	if hits[0].Rule.ID != "CARD-001" || hits[0].Score <= 0 {
		t.Fatalf("unexpected top hit %+v", hits[0])
	}
}

func TestSearchTitleTermsOutweighBodyTerms(t *testing.T) {
	rules := []domain.Rule{
		{ID: "R-title", Title: "troponin", Text: "unrelated body text here"},
		{ID: "R-body", Title: "unrelated heading words", Text: "troponin"},
	}
	ix, err := Build(rules)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits := ix.Search("troponin", 10, domain.RetrievalFilter{})
	if len(hits) != 2 {
		t.Fatalf("expected both rules, got %d", len(hits))
	}
	if hits[0].Rule.ID != "R-title" {
		t.Fatalf("expected title match ranked first, got %s", hits[0].Rule.ID)
	}
}

func TestSearchDisciplineFilterExcludesOtherRules(t *testing.T) {
	ix, err := Build(indexRules())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits := ix.Search("discharge medications", 10, domain.RetrievalFilter{Discipline: "cardiology"})
	for _, hit := range hits {
		if hit.Rule.ID == "DOC-001" {
			t.Fatal("filter leaked a rule from outside the discipline")
		}
	}

	hits = ix.Search("troponin", 10, domain.RetrievalFilter{Discipline: "Cardiology"})
	if len(hits) != 1 || hits[0].Rule.ID != "CARD-001" {
		t.Fatalf("case-insensitive filter broken: %+v", hits)
	}
}

func TestSearchEmptyQueryAndLimit(t *testing.T) {
	ix, err := Build(indexRules())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if hits := ix.Search("", 10, domain.RetrievalFilter{}); len(hits) != 0 {
		t.Fatalf("expected no hits for empty query, got %d", len(hits))
	}
	hits := ix.Search("must", 1, domain.RetrievalFilter{})
	if len(hits) > 1 {
		t.Fatalf("limit not applied, got %d", len(hits))
	}
}
