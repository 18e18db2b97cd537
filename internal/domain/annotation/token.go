// Package annotation defines the token types flowing through the POS
// resolver and the multi-word-expression matcher that groups tokens before
// per-token resolution.  Tokens are immutable inputs; annotated tokens are
// append-only, created once by exactly one resolver layer.
package annotation

import (
	"github.com/tupiana/lexipipe/pkg/errors"
)

// POS is the canonical part-of-speech tagset.
type POS string

const (
	POSNoun         POS = "NOUN"
	POSVerb         POS = "VERB"
	POSAdjective    POS = "ADJ"
	POSAdverb       POS = "ADV"
	POSPronoun      POS = "PRON"
	POSPreposition  POS = "ADP"
	POSConjunction  POS = "CONJ"
	POSDeterminer   POS = "DET"
	POSNumeral      POS = "NUM"
	POSInterjection POS = "INTERJ"
	POSMWE          POS = "MWE"

	// POSUnclassified is the sentinel for tokens no layer resolved, the
	// retry included.  Distinct from absence: downstream consumers can count
	// unresolved tokens without guessing.
	POSUnclassified POS = "X"
)

// Source identifies which resolver layer produced an annotation.  Exactly
// one source per annotated token.
type Source string

const (
	SourceGrammar     Source = "grammar"
	SourceDictionary  Source = "dictionary"
	SourceStatistical Source = "statistical_model"
	SourceLLM         Source = "llm"
)

// Token is the immutable input unit from corpus ingestion.
type Token struct {
	SurfaceForm      string `json:"surface_form"`
	LeftContext      string `json:"left_context,omitempty"`
	RightContext     string `json:"right_context,omitempty"`
	SentencePosition int    `json:"sentence_position"`
}

// AnnotatedToken is a Token plus the POS resolver's output.  For a
// multi-word expression SurfaceForm holds the full expression and Span the
// number of input tokens it covers (1 for ordinary tokens).
type AnnotatedToken struct {
	Token

	POS           POS     `json:"pos"`
	POSDetail     string  `json:"pos_detail,omitempty"`
	Lemma         string  `json:"lemma,omitempty"`
	POSConfidence float64 `json:"pos_confidence"`
	POSSource     Source  `json:"pos_source"`
	Span          int     `json:"span,omitempty"`
}

// Validate enforces the annotation invariants.
func (a *AnnotatedToken) Validate() error {
	if a.POS == "" {
		return errors.New(errors.ErrCodeValidation, "annotated token missing pos")
	}
	switch a.POSSource {
	case SourceGrammar, SourceDictionary, SourceStatistical, SourceLLM:
	default:
		return errors.Newf(errors.ErrCodeValidation,
			"annotated token %q has invalid pos_source %q", a.SurfaceForm, a.POSSource)
	}
	if a.POSConfidence < 0 || a.POSConfidence > 1 {
		return errors.Newf(errors.ErrCodeValidation,
			"annotated token %q has pos_confidence %v outside [0, 1]", a.SurfaceForm, a.POSConfidence)
	}
	return nil
}

// IsUnclassified reports whether the token carries the sentinel POS.
func (a *AnnotatedToken) IsUnclassified() bool { return a.POS == POSUnclassified }
