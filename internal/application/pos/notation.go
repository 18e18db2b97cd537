// Package pos implements the part-of-speech resolver: a fixed-order chain of
// layers (grammar, dictionary, statistical tagger, LLM) where the first
// success annotates the token and lower layers never see it again.
package pos

import (
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// notationMap translates formal-dictionary class notation to the canonical
// tagset.  Keys are matched after lowercasing and trimming.
var notationMap = map[string]annotation.POS{
	"s.":      annotation.POSNoun,
	"s.m.":    annotation.POSNoun,
	"s.f.":    annotation.POSNoun,
	"s.2g.":   annotation.POSNoun,
	"subst.":  annotation.POSNoun,
	"v.":      annotation.POSVerb,
	"v.tr.":   annotation.POSVerb,
	"v.int.":  annotation.POSVerb,
	"v.pron.": annotation.POSVerb,
	"adj.":    annotation.POSAdjective,
	"adj.2g.": annotation.POSAdjective,
	"adv.":    annotation.POSAdverb,
	"pron.":   annotation.POSPronoun,
	"prep.":   annotation.POSPreposition,
	"conj.":   annotation.POSConjunction,
	"art.":    annotation.POSDeterminer,
	"num.":    annotation.POSNumeral,
	"interj.": annotation.POSInterjection,
}

// ParseNotation resolves a dictionary class notation to the canonical POS.
// Compound notations like "s.m. e adj." resolve deterministically to the
// first listed class, never the second.
func ParseNotation(notation string) (annotation.POS, error) {
	n := strings.ToLower(strings.TrimSpace(notation))
	if n == "" {
		return "", errors.New(errors.ErrCodePOSNotationUnknown, "empty dictionary notation")
	}

	// Split compound notations on the conjunction and keep the first part.
	for _, sep := range []string{" e ", " ou ", ";", ","} {
		if i := strings.Index(n, sep); i >= 0 {
			n = strings.TrimSpace(n[:i])
			break
		}
	}

	if pos, ok := notationMap[n]; ok {
		return pos, nil
	}
	// Fall back on the leading marker so variants like "s.m.pl." still map.
	for prefix, pos := range notationMap {
		if strings.HasPrefix(n, prefix) {
			return pos, nil
		}
	}
	return "", errors.Newf(errors.ErrCodePOSNotationUnknown, "unknown dictionary notation %q", notation)
}
