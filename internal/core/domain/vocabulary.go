package domain

// TermEntry is one canonical vocabulary term with its known synonyms and
// abbreviation expansions. Entries are immutable once loaded; the vocabulary
// store replaces the whole table on load rather than mutating it in place.
type TermEntry struct {
	Canonical     string   `yaml:"term" json:"term"`
	Synonyms      []string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
	Abbreviations []string `yaml:"abbreviations,omitempty" json:"abbreviations,omitempty"`
	Specialty     string   `yaml:"specialty,omitempty" json:"specialty,omitempty"`
}
