// Package index builds the lexical/dense index pair consumed by the hybrid
// retriever.
package index

import (
	"context"

	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
	"github.com/chartsense/rule-engine/internal/infrastructure/index/dense"
	"github.com/chartsense/rule-engine/internal/infrastructure/index/lexical"
)

type Builder struct {
	embedder ports.Embedder
}

func NewBuilder(embedder ports.Embedder) *Builder {
	return &Builder{embedder: embedder}
}

// Build constructs both indexes from one catalog snapshot. Either index
// failing to build fails the whole pair; the retriever never runs on a
// single signal.
func (b *Builder) Build(ctx context.Context, rules []domain.Rule) (ports.LexicalIndex, ports.DenseIndex, error) {
	lexicalIndex, err := lexical.Build(rules)
	if err != nil {
		return nil, nil, err
	}
	denseIndex, err := dense.Build(ctx, rules, b.embedder)
	if err != nil {
		return nil, nil, err
	}
	return lexicalIndex, denseIndex, nil
}
