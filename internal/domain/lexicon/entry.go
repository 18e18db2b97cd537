// Package lexicon implements the merged multi-source dictionary: entries with
// per-source provenance and confidence, the priority-based conflict policy,
// and the repository contract the postgres layer fulfils.
package lexicon

import (
	"strings"
	"time"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Source identifies where a lexicon entry came from.  Resolution always
// prefers the highest-priority source; confidence only breaks ties.
type Source string

const (
	SourceRegional    Source = "regional"    // dialectal dictionaries, hand-curated
	SourceFormal      Source = "formal"      // formal/general dictionaries
	SourceRuleDerived Source = "rule_derived" // produced by the morphology engine
	SourceStatistical Source = "statistical" // corpus-derived frequency lists
)

// sourcePriority orders provenance; larger wins.
var sourcePriority = map[Source]int{
	SourceRegional:    4,
	SourceFormal:      3,
	SourceRuleDerived: 2,
	SourceStatistical: 1,
}

// Priority returns the source's rank, or 0 for an unknown source.
func (s Source) Priority() int { return sourcePriority[s] }

// Valid reports whether s is a known provenance source.
func (s Source) Valid() bool { return sourcePriority[s] > 0 }

// Entry is one lexicon record.  Multiple entries for the same headword
// coexist (one per source); Lookup resolves among them.
type Entry struct {
	Headword       string    `json:"headword"`
	NormalizedForm string    `json:"normalized_form"`
	POSClass       string    `json:"pos_class,omitempty"`
	DomainCodes    []string  `json:"domain_codes,omitempty"`
	Confidence     float64   `json:"confidence"`
	Source         Source    `json:"source"`
	Frequency      int64     `json:"frequency,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Normalize fills NormalizedForm from Headword if unset.
func (e *Entry) Normalize() {
	if e.NormalizedForm == "" {
		e.NormalizedForm = morphology.Normalize(e.Headword)
	}
}

// normalizeForm is the canonical form shared with the morphology engine so
// lookups, cache keys, and rule matching agree.
func normalizeForm(word string) string { return morphology.Normalize(word) }

// Validate enforces the ingestion rules: a malformed entry is rejected,
// never coerced.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Headword) == "" {
		return errors.New(errors.ErrCodeLexiconEntryMalformed, "lexicon entry has empty headword")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return errors.Newf(errors.ErrCodeLexiconEntryMalformed,
			"lexicon entry %q has confidence %v outside [0, 1]", e.Headword, e.Confidence)
	}
	if !e.Source.Valid() {
		return errors.Newf(errors.ErrCodeLexiconSourceUnknown,
			"lexicon entry %q has unknown source %q", e.Headword, e.Source)
	}
	return nil
}

// Better reports whether e should win over other when both describe the same
// normalized headword: higher source priority first, then higher confidence.
func (e *Entry) Better(other *Entry) bool {
	if other == nil {
		return true
	}
	if p, q := e.Source.Priority(), other.Source.Priority(); p != q {
		return p > q
	}
	return e.Confidence > other.Confidence
}

// PrimaryDomain returns the first domain code, or "" when the entry carries
// none.
func (e *Entry) PrimaryDomain() string {
	if len(e.DomainCodes) == 0 {
		return ""
	}
	return e.DomainCodes[0]
}
