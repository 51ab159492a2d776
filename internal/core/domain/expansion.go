package domain

// ExpansionSource identifies where an expansion term came from.
type ExpansionSource string

const (
	SourceSynonym      ExpansionSource = "synonym"
	SourceAbbreviation ExpansionSource = "abbreviation"
	SourceSpecialty    ExpansionSource = "specialty"
	SourceContext      ExpansionSource = "context"
	SourceDocumentType ExpansionSource = "document_type"
)

type ExpansionTerm struct {
	Term   string          `json:"term"`
	Source ExpansionSource `json:"source"`
	Weight float64         `json:"weight"`
}

// Expansion is the result of expanding one raw query. It is created per
// query and never persisted.
type Expansion struct {
	OriginalQuery string          `json:"original_query"`
	Terms         []ExpansionTerm `json:"terms"`
	ExpandedQuery string          `json:"expanded_query"`
}
