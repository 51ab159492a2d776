package vocabulary

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// table is an immutable snapshot of the vocabulary. Load builds a new table
// and swaps it in whole, so concurrent readers never see a partial state.
type table struct {
	entries       []domain.TermEntry
	synonyms      map[string][]string
	abbreviations map[string][]string
	specialty     map[string][]string
}

// Store is the in-memory vocabulary of domain synonyms, abbreviation
// expansions and specialty terms. Safe for unlimited concurrent readers.
type Store struct {
	current atomic.Pointer[table]
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(buildTable(nil))
	return s
}

type vocabularyFile struct {
	Terms []domain.TermEntry `yaml:"terms"`
}

// Load replaces the entire term table from a YAML file.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read vocabulary file: %w", err)
	}
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse vocabulary file: %w", err)
	}
	s.LoadEntries(file.Terms)
	return nil
}

// LoadEntries replaces the table from an in-memory entry list.
func (s *Store) LoadEntries(entries []domain.TermEntry) {
	s.current.Store(buildTable(entries))
}

// Save serializes the current table.
func (s *Store) Save(path string) error {
	t := s.current.Load()
	data, err := yaml.Marshal(vocabularyFile{Terms: t.entries})
	if err != nil {
		return fmt.Errorf("marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vocabulary file: %w", err)
	}
	return nil
}

// Synonyms returns the synonyms of a canonical term, or an empty slice for
// unknown terms.
func (s *Store) Synonyms(term string) []string {
	return s.current.Load().synonyms[normalizeTerm(term)]
}

func (s *Store) Abbreviations(term string) []string {
	return s.current.Load().abbreviations[normalizeTerm(term)]
}

func (s *Store) SpecialtyTerms(discipline string) []string {
	return s.current.Load().specialty[normalizeTerm(discipline)]
}

func buildTable(entries []domain.TermEntry) *table {
	t := &table{
		entries:       entries,
		synonyms:      make(map[string][]string, len(entries)),
		abbreviations: make(map[string][]string, len(entries)),
		specialty:     make(map[string][]string),
	}
	for _, entry := range entries {
		key := normalizeTerm(entry.Canonical)
		if key == "" {
			continue
		}

		// Synonym lookup is symmetric: each member of the group maps to
		// every other member.
		group := append([]string{entry.Canonical}, entry.Synonyms...)
		for i, member := range group {
			memberKey := normalizeTerm(member)
			if memberKey == "" {
				continue
			}
			others := make([]string, 0, len(group)-1)
			others = append(others, group[:i]...)
			others = append(others, group[i+1:]...)
			t.synonyms[memberKey] = appendUnique(t.synonyms[memberKey], others)
		}

		// Abbreviations expand toward the whole group, not the other way
		// around: "pt" yields both "physical therapy" and "physiotherapy".
		for _, abbreviation := range entry.Abbreviations {
			abbrKey := normalizeTerm(abbreviation)
			if abbrKey == "" {
				continue
			}
			t.abbreviations[abbrKey] = appendUnique(t.abbreviations[abbrKey], group)
		}

		if specialty := normalizeTerm(entry.Specialty); specialty != "" {
			t.specialty[specialty] = appendUnique(t.specialty[specialty], group)
		}
	}
	for _, m := range []map[string][]string{t.synonyms, t.abbreviations, t.specialty} {
		for key := range m {
			sort.Strings(m[key])
		}
	}
	return t
}

func appendUnique(dst []string, values []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(v)]; ok {
			continue
		}
		seen[strings.ToLower(v)] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
