// Package classification defines the semantic classification record, its
// provenance sources, and the cache keying scheme (word-only vs
// word+context) used by the domain classifier and the propagation engine.
package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Source identifies the classifier level that produced a record.  Exactly
// one source per record.
type Source string

const (
	SourceStopword           Source = "stopword"
	SourceCache              Source = "cache"
	SourceSemanticLexicon    Source = "semantic_lexicon"
	SourceMorphologicalRule  Source = "morphological_rule"
	SourceDialectalLexicon   Source = "dialectal_lexicon"
	SourceLLM                Source = "llm"
	SourceSynonymPropagation Source = "synonym_propagation"
)

var validSources = map[Source]bool{
	SourceStopword:           true,
	SourceCache:              true,
	SourceSemanticLexicon:    true,
	SourceMorphologicalRule:  true,
	SourceDialectalLexicon:   true,
	SourceLLM:                true,
	SourceSynonymPropagation: true,
}

// Valid reports whether s is a known classification source.
func (s Source) Valid() bool { return validSources[s] }

// Record is one semantic classification.  A record with an empty ContextHash
// is context-independent and reusable across all occurrences of the word; a
// non-empty ContextHash marks a disambiguated, context-specific record.
type Record struct {
	Word          string    `json:"word"`
	ContextHash   string    `json:"context_hash,omitempty"`
	DomainCode    string    `json:"domain_code"`
	Confidence    float64   `json:"confidence"`
	Source        Source    `json:"source"`
	Justification string    `json:"justification,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// NewNotClassified builds the explicit NC record for a word no level could
// resolve.  Downstream consumers can thereby distinguish "known: no domain"
// from "never seen".
func NewNotClassified(word string, source Source, justification string) *Record {
	return &Record{
		Word:          morphology.Normalize(word),
		DomainCode:    tagset.NotClassifiedCode,
		Confidence:    0,
		Source:        source,
		Justification: justification,
	}
}

// IsNotClassified reports whether the record is the NC sentinel.
func (r *Record) IsNotClassified() bool { return r.DomainCode == tagset.NotClassifiedCode }

// Validate enforces the record invariants.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Word) == "" {
		return errors.New(errors.ErrCodeValidation, "classification record has empty word")
	}
	if strings.TrimSpace(r.DomainCode) == "" {
		return errors.Newf(errors.ErrCodeValidation,
			"classification record for %q has empty domain code", r.Word)
	}
	if !r.Source.Valid() {
		return errors.Newf(errors.ErrCodeValidation,
			"classification record for %q has invalid source %q", r.Word, r.Source)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.Newf(errors.ErrCodeValidation,
			"classification record for %q has confidence %v outside [0, 1]", r.Word, r.Confidence)
	}
	return nil
}

// ContextHash derives the word+context cache key component from the
// surrounding text.  The context is normalized so trivially different
// renderings of the same sentence hash identically.
func ContextHash(context string) string {
	fields := strings.Fields(strings.ToLower(context))
	if len(fields) == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, " ")))
	return hex.EncodeToString(sum[:8])
}

// CacheKey returns the record's cache key: the normalized word alone, or
// word#hash for context-specific records.
func (r *Record) CacheKey() string {
	w := morphology.Normalize(r.Word)
	if r.ContextHash == "" {
		return w
	}
	return w + "#" + r.ContextHash
}
