package pos

import (
	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
)

// GrammarEntry annotates one irregular form.
type GrammarEntry struct {
	POS    annotation.POS
	Detail string
	Lemma  string
}

// GrammarTable is the deterministic first layer: hand-built irregular forms
// plus the multi-word-expression patterns.  Hits carry confidence 1.0.
type GrammarTable struct {
	forms map[string]GrammarEntry
	mwe   *annotation.MWEMatcher
}

// NewGrammarTable indexes forms and builds the MWE matcher.
func NewGrammarTable(forms map[string]GrammarEntry, patterns []annotation.MWEPattern) *GrammarTable {
	idx := make(map[string]GrammarEntry, len(forms))
	for w, e := range forms {
		idx[morphology.Normalize(w)] = e
	}
	return &GrammarTable{forms: idx, mwe: annotation.NewMWEMatcher(patterns)}
}

// NewDefaultGrammarTable builds the table with the built-in irregular forms
// and regional expressions.
func NewDefaultGrammarTable() *GrammarTable {
	return NewGrammarTable(defaultIrregularForms, defaultMWEPatterns)
}

// Lookup returns the entry for an irregular form.
func (g *GrammarTable) Lookup(word string) (GrammarEntry, bool) {
	e, ok := g.forms[morphology.Normalize(word)]
	return e, ok
}

// MWE exposes the expression matcher for the resolver's first pass.
func (g *GrammarTable) MWE() *annotation.MWEMatcher { return g.mwe }

// defaultIrregularForms covers the high-frequency irregular verbs and
// pronouns field annotators kept misresolving through the dictionary layer.
var defaultIrregularForms = map[string]GrammarEntry{
	// ser
	"sou": {POS: annotation.POSVerb, Detail: "pres.1sg", Lemma: "ser"},
	"és":  {POS: annotation.POSVerb, Detail: "pres.2sg", Lemma: "ser"},
	"é":   {POS: annotation.POSVerb, Detail: "pres.3sg", Lemma: "ser"},
	"são": {POS: annotation.POSVerb, Detail: "pres.3pl", Lemma: "ser"},
	"era": {POS: annotation.POSVerb, Detail: "impf.3sg", Lemma: "ser"},
	"foi": {POS: annotation.POSVerb, Detail: "perf.3sg", Lemma: "ser"},
	// estar
	"estou":   {POS: annotation.POSVerb, Detail: "pres.1sg", Lemma: "estar"},
	"está":    {POS: annotation.POSVerb, Detail: "pres.3sg", Lemma: "estar"},
	"estão":   {POS: annotation.POSVerb, Detail: "pres.3pl", Lemma: "estar"},
	"estava":  {POS: annotation.POSVerb, Detail: "impf.3sg", Lemma: "estar"},
	"esteve":  {POS: annotation.POSVerb, Detail: "perf.3sg", Lemma: "estar"},
	// ir
	"vou": {POS: annotation.POSVerb, Detail: "pres.1sg", Lemma: "ir"},
	"vai": {POS: annotation.POSVerb, Detail: "pres.3sg", Lemma: "ir"},
	"vão": {POS: annotation.POSVerb, Detail: "pres.3pl", Lemma: "ir"},
	// ter / haver
	"tem": {POS: annotation.POSVerb, Detail: "pres.3sg", Lemma: "ter"},
	"têm": {POS: annotation.POSVerb, Detail: "pres.3pl", Lemma: "ter"},
	"há":  {POS: annotation.POSVerb, Detail: "pres.3sg", Lemma: "haver"},
	// regional pronouns and markers
	"tu":   {POS: annotation.POSPronoun, Lemma: "tu"},
	"você": {POS: annotation.POSPronoun, Lemma: "você"},
	"che":  {POS: annotation.POSInterjection, Lemma: "che"},
	"tchê": {POS: annotation.POSInterjection, Lemma: "tchê"},
	"bah":  {POS: annotation.POSInterjection, Lemma: "bah"},
}

// defaultMWEPatterns are the regional fixed expressions annotated as single
// units.
var defaultMWEPatterns = []annotation.MWEPattern{
	{Words: []string{"mate", "amargo"}, POS: annotation.POSNoun, Lemma: "mate amargo"},
	{Words: []string{"erva", "mate"}, POS: annotation.POSNoun, Lemma: "erva-mate"},
	{Words: []string{"água", "quente"}, POS: annotation.POSNoun, Lemma: "água quente"},
	{Words: []string{"rio", "grande", "do", "sul"}, POS: annotation.POSNoun, Lemma: "Rio Grande do Sul"},
	{Words: []string{"de", "vereda"}, POS: annotation.POSAdverb, Lemma: "de vereda"},
	{Words: []string{"no", "mais"}, POS: annotation.POSAdverb, Lemma: "no mais"},
}
