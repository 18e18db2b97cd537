package annotation

import "testing"

func toks(words ...string) []Token {
	out := make([]Token, len(words))
	for i, w := range words {
		out[i] = Token{SurfaceForm: w, SentencePosition: i}
	}
	return out
}

func TestMWEMatcherSingleUnit(t *testing.T) {
	m := NewMWEMatcher([]MWEPattern{
		{Words: []string{"mate", "amargo"}, POS: POSNoun, Lemma: "mate amargo"},
	})

	matches, covered := m.Annotate(toks("tomar", "mate", "amargo", "cedo"))
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	got := matches[0]
	if got.SurfaceForm != "mate amargo" {
		t.Fatalf("surface = %q", got.SurfaceForm)
	}
	if got.POSSource != SourceGrammar || got.POSConfidence != 1.0 {
		t.Fatalf("expected grammar source at confidence 1.0, got %+v", got)
	}
	if got.Span != 2 {
		t.Fatalf("span = %d, want 2", got.Span)
	}
	if !covered[1] || !covered[2] {
		t.Fatal("member positions must be covered")
	}
	if covered[0] || covered[3] {
		t.Fatal("surrounding positions must stay free")
	}
}

func TestMWEMatcherLongestMatchWins(t *testing.T) {
	m := NewMWEMatcher([]MWEPattern{
		{Words: []string{"mate", "amargo"}, POS: POSNoun, Lemma: "mate amargo"},
		{Words: []string{"mate", "amargo", "campeiro"}, POS: POSNoun, Lemma: "mate amargo campeiro"},
	})

	pattern, span := m.MatchAt(toks("mate", "amargo", "campeiro"), 0)
	if pattern == nil || span != 3 {
		t.Fatalf("expected 3-token match, got span %d", span)
	}
	if pattern.Lemma != "mate amargo campeiro" {
		t.Fatalf("wrong pattern: %+v", pattern)
	}
}

func TestMWEMatcherCaseInsensitive(t *testing.T) {
	m := NewMWEMatcher([]MWEPattern{
		{Words: []string{"rio", "grande"}, POS: POSNoun, Lemma: "rio grande"},
	})
	matches, _ := m.Annotate(toks("Rio", "Grande"))
	if len(matches) != 1 {
		t.Fatalf("expected case-insensitive match, got %d", len(matches))
	}
	// Original casing is preserved in the surface form.
	if matches[0].SurfaceForm != "Rio Grande" {
		t.Fatalf("surface = %q", matches[0].SurfaceForm)
	}
}

func TestMWEMatcherIgnoresSingleWordPatterns(t *testing.T) {
	m := NewMWEMatcher([]MWEPattern{
		{Words: []string{"mate"}, POS: POSNoun},
	})
	if m.Len() != 0 {
		t.Fatalf("single-word pattern must be dropped, len = %d", m.Len())
	}
	matches, _ := m.Annotate(toks("mate"))
	if len(matches) != 0 {
		t.Fatal("no matches expected")
	}
}

func TestMWEMatcherNoFalseStart(t *testing.T) {
	m := NewMWEMatcher([]MWEPattern{
		{Words: []string{"mate", "amargo"}, POS: POSNoun},
	})
	matches, covered := m.Annotate(toks("mate", "doce", "mate", "amargo"))
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(matches))
	}
	if matches[0].SentencePosition != 2 {
		t.Fatalf("match should start at position 2, got %d", matches[0].SentencePosition)
	}
	if covered[0] {
		t.Fatal("aborted prefix must not be covered")
	}
}

func TestAnnotatedTokenValidate(t *testing.T) {
	ok := AnnotatedToken{Token: Token{SurfaceForm: "mate"}, POS: POSNoun, POSConfidence: 0.94, POSSource: SourceDictionary}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	bad := ok
	bad.POSSource = "oracle"
	if err := bad.Validate(); err == nil {
		t.Fatal("invalid pos_source must be rejected")
	}

	bad = ok
	bad.POSConfidence = 1.2
	if err := bad.Validate(); err == nil {
		t.Fatal("confidence out of range must be rejected")
	}
}
