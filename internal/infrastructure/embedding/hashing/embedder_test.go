package hashing

import (
	"context"
	"math"
	"testing"
)

func TestEmbedQueryIsDeterministicAndNormalized(t *testing.T) {
	embedder := New(64)

	first, err := embedder.EmbedQuery(context.Background(), "troponin documentation required")
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	second, _ := embedder.EmbedQuery(context.Background(), "troponin documentation required")
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("embedding not deterministic")
		}
	}

	sum := 0.0
	for _, v := range first {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("vector not unit length: %v", sum)
	}
}

func TestSimilarTextsScoreHigherThanDisjointTexts(t *testing.T) {
	embedder := New(256)
	ctx := context.Background()

	base, _ := embedder.EmbedQuery(ctx, "troponin values must be documented")
	near, _ := embedder.EmbedQuery(ctx, "documented troponin values")
	far, _ := embedder.EmbedQuery(ctx, "discharge medication reconciliation")

	if dotProduct(base, near) <= dotProduct(base, far) {
		t.Fatal("token overlap must drive similarity")
	}
}

func TestEmptyTextYieldsZeroVector(t *testing.T) {
	embedder := New(16)
	vector, _ := embedder.EmbedQuery(context.Background(), "")
	for _, v := range vector {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vector)
		}
	}
}

func dotProduct(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
