package morphology

import "testing"

func TestClassifyLongestSuffixWins(t *testing.T) {
	// "ização" must fire "-ção" (length 3), not a hypothetical shorter rule;
	// conversely a word ending in "-mente" must never be caught by "-e"
	// style generic endings.  Build a table where masking is possible.
	e := NewEngine([]Rule{
		{Affix: "ão", Kind: KindDomain, Value: "SHORT"},
		{Affix: "ção", Kind: KindDomain, Value: "LONG"},
	})
	m := e.Classify("criação")
	if m == nil || m.Value != "LONG" {
		t.Fatalf("expected longest suffix to win, got %+v", m)
	}
}

func TestClassifyDefaultTable(t *testing.T) {
	e := NewDefaultEngine()
	cases := []struct {
		word  string
		kind  RuleKind
		value string
	}{
		{"criação", KindDomain, "AB"},
		{"crescimento", KindDomain, "AB"},
		{"tropeiro", KindDomain, "PR"},
		{"rapidamente", KindPOS, "ADV"},
		{"gostoso", KindPOS, "ADJ"},
		{"desencilhar", KindPOS, "VERB"}, // "-ar" suffix beats "des-" prefix
	}
	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			m := e.Classify(tc.word)
			if m == nil {
				t.Fatalf("no match for %q", tc.word)
			}
			if m.Kind != tc.kind || m.Value != tc.value {
				t.Fatalf("Classify(%q) = %s/%s, want %s/%s", tc.word, m.Kind, m.Value, tc.kind, tc.value)
			}
			if m.Confidence <= 0 || m.Confidence > 1 {
				t.Fatalf("confidence %v out of range", m.Confidence)
			}
		})
	}
}

func TestClassifyMinStemBlocksBareAffix(t *testing.T) {
	e := NewDefaultEngine()
	if m := e.Classify("ção"); m != nil {
		t.Fatalf("bare affix must not classify, got %+v", m)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	e := NewDefaultEngine()
	if m := e.Classify("cuia"); m != nil {
		t.Fatalf("expected nil for unmatched word, got %+v", m)
	}
	if m := e.Classify(""); m != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestClassifyDefaultConfidence(t *testing.T) {
	e := NewEngine([]Rule{{Affix: "ção", Kind: KindDomain, Value: "AB"}})
	m := e.Classify("criação")
	if m == nil || m.Confidence != DefaultConfidence {
		t.Fatalf("expected baseline confidence %v, got %+v", DefaultConfidence, m)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Chimarrão", "chimarrão"},
		{"  mate, ", "mate"},
		{"ERVA", "erva"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
