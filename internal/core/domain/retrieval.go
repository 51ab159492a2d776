package domain

// Rule is one reference rule from the catalog. The catalog owns rule text
// and metadata; retrieval results reference rules by id.
type Rule struct {
	ID         string            `yaml:"id" json:"id"`
	Title      string            `yaml:"title" json:"title"`
	Text       string            `yaml:"text" json:"text"`
	Discipline string            `yaml:"discipline,omitempty" json:"discipline,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ScoredRule is a single ranked hit from one backing index.
type ScoredRule struct {
	Rule  Rule
	Score float64
}

// RetrievedRule carries per-rule provenance across both retrieval signals.
// LexicalScore and DenseScore are zero when the rule was absent from that
// list; FusedScore is the reciprocal-rank-fusion sum.
type RetrievedRule struct {
	RuleID       string  `json:"rule_id"`
	Title        string  `json:"title"`
	Text         string  `json:"text,omitempty"`
	Discipline   string  `json:"discipline,omitempty"`
	LexicalScore float64 `json:"lexical_score"`
	DenseScore   float64 `json:"dense_score"`
	FusedScore   float64 `json:"fused_score"`
	RerankScore  float64 `json:"rerank_score,omitempty"`
}

type RetrievalFilter struct {
	Discipline string
}

type SearchRequest struct {
	Query           string   `json:"query"`
	Discipline      string   `json:"discipline,omitempty"`
	DocumentType    string   `json:"document_type,omitempty"`
	ContextEntities []string `json:"context_entities,omitempty"`
	TopK            int      `json:"top_k,omitempty"`
}

type SearchResult struct {
	Expansion Expansion       `json:"expansion"`
	Rules     []RetrievedRule `json:"rules"`
}
