package classification

import (
	"testing"

	"github.com/tupiana/lexipipe/internal/domain/tagset"
)

func TestRecordValidate(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"valid llm record", Record{Word: "chimarrão", DomainCode: "AL", Confidence: 0.88, Source: SourceLLM}, true},
		{"valid nc record", Record{Word: "xirú", DomainCode: tagset.NotClassifiedCode, Confidence: 0, Source: SourceLLM}, true},
		{"empty word", Record{DomainCode: "AL", Source: SourceLLM}, false},
		{"empty domain", Record{Word: "mate", Source: SourceLLM}, false},
		{"invalid source", Record{Word: "mate", DomainCode: "AL", Source: "guess"}, false},
		{"confidence above one", Record{Word: "mate", DomainCode: "AL", Confidence: 1.01, Source: SourceLLM}, false},
		{"negative confidence", Record{Word: "mate", DomainCode: "AL", Confidence: -0.1, Source: SourceLLM}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewNotClassified(t *testing.T) {
	rec := NewNotClassified("Xirú", SourceLLM, "llm returned no result")
	if !rec.IsNotClassified() {
		t.Fatal("expected NC sentinel")
	}
	if rec.Word != "xirú" {
		t.Fatalf("word not normalized: %q", rec.Word)
	}
	if rec.Confidence != 0 {
		t.Fatalf("NC record must carry zero confidence, got %v", rec.Confidence)
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("NC record must validate: %v", err)
	}
}

func TestContextHashStableUnderWhitespaceAndCase(t *testing.T) {
	a := ContextHash("tomar um Mate amargo")
	b := ContextHash("  tomar   um mate AMARGO ")
	if a == "" || a != b {
		t.Fatalf("hash must normalize whitespace and case: %q vs %q", a, b)
	}
	if ContextHash("outro contexto") == a {
		t.Fatal("different contexts must hash differently")
	}
	if ContextHash("") != "" {
		t.Fatal("empty context hashes to empty key component")
	}
}

func TestCacheKey(t *testing.T) {
	word := Record{Word: "Mate", DomainCode: "AL", Confidence: 1, Source: SourceSemanticLexicon}
	if word.CacheKey() != "mate" {
		t.Fatalf("word-only key = %q", word.CacheKey())
	}
	ctx := word
	ctx.ContextHash = "abcd1234"
	if ctx.CacheKey() != "mate#abcd1234" {
		t.Fatalf("context key = %q", ctx.CacheKey())
	}
}

func TestStopwordSet(t *testing.T) {
	s := DefaultPortugueseStopwords()
	for _, w := range []string{"de", "À", "não", "Pela"} {
		if !s.Contains(w) {
			t.Fatalf("expected %q to be a stopword", w)
		}
	}
	for _, w := range []string{"chimarrão", "mate", ""} {
		if s.Contains(w) {
			t.Fatalf("%q must not be a stopword", w)
		}
	}
}
