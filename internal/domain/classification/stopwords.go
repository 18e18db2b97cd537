package classification

import "github.com/tupiana/lexipipe/internal/domain/morphology"

// StopwordSet is the in-memory Stopwords implementation, loaded once at
// startup.  Immutable after construction.
type StopwordSet struct {
	words map[string]bool
}

// NewStopwordSet normalizes and indexes words.
func NewStopwordSet(words []string) *StopwordSet {
	s := &StopwordSet{words: make(map[string]bool, len(words))}
	for _, w := range words {
		if n := morphology.Normalize(w); n != "" {
			s.words[n] = true
		}
	}
	return s
}

// DefaultPortugueseStopwords builds the set with the built-in closed-class
// list.
func DefaultPortugueseStopwords() *StopwordSet {
	return NewStopwordSet(portugueseStopwords)
}

// Contains implements Stopwords.
func (s *StopwordSet) Contains(word string) bool {
	return s.words[morphology.Normalize(word)]
}

// Len returns the number of indexed stopwords.
func (s *StopwordSet) Len() int { return len(s.words) }

// portugueseStopwords covers articles, prepositions, pronouns, conjunctions
// and other closed-class function words.  They never carry a semantic domain.
var portugueseStopwords = []string{
	// articles and contractions
	"o", "a", "os", "as", "um", "uma", "uns", "umas",
	"do", "da", "dos", "das", "no", "na", "nos", "nas",
	"ao", "à", "aos", "às", "pelo", "pela", "pelos", "pelas",
	"dum", "duma", "num", "numa",
	// prepositions
	"de", "em", "para", "por", "com", "sem", "sob", "sobre",
	"entre", "até", "desde", "contra", "perante", "após",
	// pronouns
	"eu", "tu", "ele", "ela", "nós", "vós", "eles", "elas",
	"me", "te", "se", "lhe", "lhes", "nos", "vos",
	"meu", "minha", "teu", "tua", "seu", "sua", "nosso", "nossa",
	"este", "esta", "esse", "essa", "aquele", "aquela",
	"isto", "isso", "aquilo", "que", "quem", "qual", "quais",
	// conjunctions and particles
	"e", "ou", "mas", "nem", "pois", "porque", "quando", "enquanto",
	"como", "onde", "porém", "contudo", "todavia", "portanto",
	"se", "caso", "embora", "já", "ainda", "também", "só",
	"não", "sim", "muito", "pouco", "mais", "menos", "tão", "tanto",
}
