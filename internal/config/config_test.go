package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected default api port %q", cfg.APIPort)
	}
	if cfg.RetrievalTopK != 10 || cfg.FusionRRFK != 60 || cfg.RerankTopN != 20 {
		t.Fatalf("unexpected retrieval defaults: %+v", cfg)
	}
	if cfg.CalibrationMinSamples != 50 || cfg.TrainingFeedbackDelta != 100 {
		t.Fatalf("unexpected training defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "25")
	t.Setenv("EXPANSION_SYNONYM_WEIGHT", "0.75")
	t.Setenv("RERANK_ENABLED", "false")
	t.Setenv("EMBEDDING_PROVIDER", "hashing")

	cfg := Load()
	if cfg.RetrievalTopK != 25 {
		t.Fatalf("int override ignored: %d", cfg.RetrievalTopK)
	}
	if cfg.ExpansionSynonymWeight != 0.75 {
		t.Fatalf("float override ignored: %v", cfg.ExpansionSynonymWeight)
	}
	if cfg.RerankEnabled {
		t.Fatal("bool override ignored")
	}
	if cfg.EmbeddingProvider != "hashing" {
		t.Fatalf("string override ignored: %q", cfg.EmbeddingProvider)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg := Load()
	if cfg.RetrievalTopK != 10 {
		t.Fatalf("expected fallback 10, got %d", cfg.RetrievalTopK)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Load()
	cfg.RetrievalTopK = 0
	cfg.CalibrationBins = 1
	cfg.EmbeddingProvider = "quantum"
	cfg.TrainingImprovement = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, fragment := range []string{"top k", "bins", "provider", "improvement"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("missing %q in %v", fragment, err)
		}
	}
}
