package annotation

import (
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
)

// MWEPattern is one multi-word expression with its annotation payload.
type MWEPattern struct {
	// Words are the expression's tokens in order, e.g. ["mate", "amargo"].
	Words []string

	// POS and Lemma annotate the matched unit.
	POS   POS
	Lemma string
}

// mweNode is a node of the token-level pattern trie.  Children are keyed by
// normalized token; a non-nil pattern marks the end of a stored expression.
type mweNode struct {
	children map[string]*mweNode
	pattern  *MWEPattern
}

// MWEMatcher finds multi-word expressions over a token stream in a single
// left-to-right pass.  All patterns are scanned simultaneously via a shared
// trie; at each position the longest stored expression starting there wins.
// Immutable after construction, safe for concurrent use.
type MWEMatcher struct {
	root    *mweNode
	maxLen  int
	entries int
}

// NewMWEMatcher builds the trie from patterns.  Patterns shorter than two
// words are ignored: single words belong in the irregular-form table, not
// here.
func NewMWEMatcher(patterns []MWEPattern) *MWEMatcher {
	m := &MWEMatcher{root: &mweNode{children: map[string]*mweNode{}}}
	for _, p := range patterns {
		p := p
		if len(p.Words) < 2 {
			continue
		}
		node := m.root
		for _, w := range p.Words {
			key := morphology.Normalize(w)
			next, ok := node.children[key]
			if !ok {
				next = &mweNode{children: map[string]*mweNode{}}
				node.children[key] = next
			}
			node = next
		}
		node.pattern = &p
		if len(p.Words) > m.maxLen {
			m.maxLen = len(p.Words)
		}
		m.entries++
	}
	return m
}

// Len returns the number of stored patterns.
func (m *MWEMatcher) Len() int { return m.entries }

// MatchAt returns the longest pattern starting at tokens[start], with the
// number of tokens it covers, or nil when no pattern starts there.
func (m *MWEMatcher) MatchAt(tokens []Token, start int) (*MWEPattern, int) {
	node := m.root
	var best *MWEPattern
	bestLen := 0
	for i := start; i < len(tokens) && i-start < m.maxLen; i++ {
		key := morphology.Normalize(tokens[i].SurfaceForm)
		next, ok := node.children[key]
		if !ok {
			break
		}
		node = next
		if node.pattern != nil {
			best = node.pattern
			bestLen = i - start + 1
		}
	}
	return best, bestLen
}

// Annotate scans tokens once and returns the matched expressions as single
// annotated units plus the positions they consumed.  Each match carries
// source grammar and confidence 1.0; covered positions are skipped so lower
// layers never reclassify an expression's members.
func (m *MWEMatcher) Annotate(tokens []Token) (matches []AnnotatedToken, covered map[int]bool) {
	covered = make(map[int]bool)
	if m.maxLen == 0 {
		return nil, covered
	}
	for i := 0; i < len(tokens); i++ {
		if covered[i] {
			continue
		}
		pattern, span := m.MatchAt(tokens, i)
		if pattern == nil {
			continue
		}
		surface := make([]string, 0, span)
		for j := i; j < i+span; j++ {
			surface = append(surface, tokens[j].SurfaceForm)
			covered[j] = true
		}
		matches = append(matches, AnnotatedToken{
			Token: Token{
				SurfaceForm:      strings.Join(surface, " "),
				LeftContext:      tokens[i].LeftContext,
				RightContext:     tokens[i+span-1].RightContext,
				SentencePosition: tokens[i].SentencePosition,
			},
			POS:           pattern.POS,
			Lemma:         pattern.Lemma,
			POSConfidence: 1.0,
			POSSource:     SourceGrammar,
			Span:          span,
		})
		i += span - 1
	}
	return matches, covered
}
