// Package morphology implements the suffix/prefix rule engine: a pure,
// zero-I/O classifier that assigns a semantic domain or POS class from word
// shape alone.  It sits on the cheap end of both fallback chains and must be
// safe to call for every miss in the classifier hot path.
package morphology

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// RuleKind distinguishes what a rule asserts about a matching word.
type RuleKind string

const (
	// KindDomain rules assign a semantic domain code.
	KindDomain RuleKind = "domain"
	// KindPOS rules assign a part-of-speech class.
	KindPOS RuleKind = "pos"
)

// DefaultConfidence is the documented baseline accuracy of the Portuguese
// rule table.
const DefaultConfidence = 0.92

// Rule is a single suffix or prefix pattern.
type Rule struct {
	// Affix is the pattern, lowercase NFC.  Suffix rules match word endings,
	// prefix rules match word beginnings.
	Affix string

	// Prefix marks the rule as a prefix rule; the default is suffix.
	Prefix bool

	// Kind says whether Value is a domain code or a POS class.
	Kind RuleKind

	// Value is the assigned domain code or POS class.
	Value string

	// Confidence in [0,1].  Zero means DefaultConfidence.
	Confidence float64

	// MinStem is the minimum number of runes that must remain once the affix
	// is stripped.  Prevents "-ção" matching the bare word "ção".
	MinStem int
}

// Match is the engine's output for a word.
type Match struct {
	Kind       RuleKind
	Value      string
	Confidence float64
	// Rule is the affix that fired, for justification strings.
	Rule string
}

// Engine evaluates an ordered rule table.  Suffix rules are tried
// longest-first so a short generic suffix never masks a longer, more
// specific one ("-ção" before "-ão").  Immutable after construction; safe
// for concurrent use.
type Engine struct {
	suffixes []Rule // sorted by len(Affix) descending
	prefixes []Rule // sorted by len(Affix) descending
}

// NewEngine builds an engine from rules.  Rules with an empty affix or value
// are dropped.  Order among equal-length affixes follows input order, so
// callers can express explicit precedence.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	for _, r := range rules {
		if r.Affix == "" || r.Value == "" {
			continue
		}
		if r.Confidence == 0 {
			r.Confidence = DefaultConfidence
		}
		r.Affix = strings.ToLower(norm.NFC.String(r.Affix))
		if r.Prefix {
			e.prefixes = append(e.prefixes, r)
		} else {
			e.suffixes = append(e.suffixes, r)
		}
	}
	byLenDesc := func(rs []Rule) {
		sort.SliceStable(rs, func(i, j int) bool {
			return len([]rune(rs[i].Affix)) > len([]rune(rs[j].Affix))
		})
	}
	byLenDesc(e.suffixes)
	byLenDesc(e.prefixes)
	return e
}

// NewDefaultEngine builds the engine with the built-in Portuguese rule table.
func NewDefaultEngine() *Engine {
	return NewEngine(defaultPortugueseRules)
}

// Classify returns the first matching rule's assignment, suffix rules first,
// longest affix first.  Returns nil when no rule matches.
func (e *Engine) Classify(word string) *Match {
	w := Normalize(word)
	if w == "" {
		return nil
	}
	runes := []rune(w)
	for _, r := range e.suffixes {
		affix := []rune(r.Affix)
		if len(runes)-len(affix) < max(r.MinStem, 1) {
			continue
		}
		if strings.HasSuffix(w, r.Affix) {
			return &Match{Kind: r.Kind, Value: r.Value, Confidence: r.Confidence, Rule: "-" + r.Affix}
		}
	}
	for _, r := range e.prefixes {
		affix := []rune(r.Affix)
		if len(runes)-len(affix) < max(r.MinStem, 1) {
			continue
		}
		if strings.HasPrefix(w, r.Affix) {
			return &Match{Kind: r.Kind, Value: r.Value, Confidence: r.Confidence, Rule: r.Affix + "-"}
		}
	}
	return nil
}

// Normalize lowercases and NFC-normalizes a word, trimming surrounding
// whitespace and punctuation.  Shared by the lexicon store so cache keys and
// rule matching agree on one canonical form.
func Normalize(word string) string {
	w := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.ToLower(norm.NFC.String(w))
}
