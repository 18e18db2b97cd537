package pos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
	"github.com/tupiana/lexipipe/internal/intelligence/postagger"
	"github.com/tupiana/lexipipe/pkg/errors"
)

type mapDictionary map[string]string

func (d mapDictionary) Notation(word string) (string, bool) {
	n, ok := d[word]
	return n, ok
}

type mockTagger struct {
	tag func(ctx context.Context, tokens []string, sentence string) ([]postagger.TagResult, error)
}

func (m *mockTagger) Tag(ctx context.Context, tokens []string, sentence string) ([]postagger.TagResult, error) {
	if m.tag != nil {
		return m.tag(ctx, tokens, sentence)
	}
	return nil, nil
}

type mockLLM struct {
	classify func(ctx context.Context, inputs []llmclassifier.WordInput) ([]llmclassifier.POSResult, error)
	calls    int
}

func (m *mockLLM) ClassifyPOS(ctx context.Context, inputs []llmclassifier.WordInput) ([]llmclassifier.POSResult, error) {
	m.calls++
	if m.classify != nil {
		return m.classify(ctx, inputs)
	}
	return nil, nil
}

func toks(words ...string) []annotation.Token {
	out := make([]annotation.Token, len(words))
	for i, w := range words {
		out[i] = annotation.Token{SurfaceForm: w, SentencePosition: i}
	}
	return out
}

func TestAnnotateMWEBeforePerToken(t *testing.T) {
	// "mate amargo" is in the default pattern set: it must come out as one
	// grammar unit and its members must never reach lower layers.
	var sawWords []string
	tagger := &mockTagger{tag: func(_ context.Context, words []string, _ string) ([]postagger.TagResult, error) {
		sawWords = append(sawWords, words...)
		return nil, nil
	}}
	r := NewResolver(nil, mapDictionary{}, tagger, nil, 0, nil)

	res, err := r.Annotate(context.Background(), toks("mate", "amargo"))
	require.NoError(t, err)
	require.Len(t, res.Tokens, 1)

	unit := res.Tokens[0]
	assert.Equal(t, "mate amargo", unit.SurfaceForm)
	assert.Equal(t, annotation.SourceGrammar, unit.POSSource)
	assert.Equal(t, 1.0, unit.POSConfidence)
	assert.Equal(t, 2, unit.Span)
	assert.Empty(t, sawWords, "MWE members must not be reclassified by lower layers")
}

func TestAnnotateGrammarIrregulars(t *testing.T) {
	r := NewResolver(nil, nil, nil, nil, 0, nil)
	res, err := r.Annotate(context.Background(), toks("está"))
	require.NoError(t, err)
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, annotation.POSVerb, res.Tokens[0].POS)
	assert.Equal(t, "estar", res.Tokens[0].Lemma)
	assert.Equal(t, annotation.SourceGrammar, res.Tokens[0].POSSource)
}

func TestAnnotateDictionaryNotation(t *testing.T) {
	dict := mapDictionary{"galpão": "s.m.", "bagual": "s.m. e adj."}
	r := NewResolver(nil, dict, nil, nil, 0, nil)

	res, err := r.Annotate(context.Background(), toks("galpão", "bagual"))
	require.NoError(t, err)
	require.Len(t, res.Tokens, 2)
	for _, tok := range res.Tokens {
		assert.Equal(t, annotation.POSNoun, tok.POS, "compound notation must resolve to first class: %s", tok.SurfaceForm)
		assert.Equal(t, annotation.SourceDictionary, tok.POSSource)
		assert.Equal(t, DictionaryConfidence, tok.POSConfidence)
	}
}

func TestAnnotateStatisticalThreshold(t *testing.T) {
	tagger := &mockTagger{tag: func(_ context.Context, words []string, _ string) ([]postagger.TagResult, error) {
		return []postagger.TagResult{
			{Token: "campereava", POS: "VERB", Lemma: "camperear", Confidence: 0.96},
			{Token: "guaiaca", POS: "NOUN", Confidence: 0.55}, // below 0.90
		}, nil
	}}
	llm := &mockLLM{classify: func(_ context.Context, _ []llmclassifier.WordInput) ([]llmclassifier.POSResult, error) {
		return []llmclassifier.POSResult{{Word: "guaiaca", POS: "NOUN", Confidence: 0.88}}, nil
	}}
	r := NewResolver(nil, mapDictionary{}, tagger, llm, 0, nil)

	res, err := r.Annotate(context.Background(), toks("campereava", "guaiaca"))
	require.NoError(t, err)
	require.Len(t, res.Tokens, 2)

	assert.Equal(t, annotation.SourceStatistical, res.Tokens[0].POSSource)
	assert.Equal(t, 0.96, res.Tokens[0].POSConfidence)

	// The low-confidence answer fell through to the LLM.
	assert.Equal(t, annotation.SourceLLM, res.Tokens[1].POSSource)
	assert.Equal(t, 1, llm.calls)
	assert.Zero(t, res.Unresolved)
}

func TestAnnotateSentinelOnTotalMiss(t *testing.T) {
	llm := &mockLLM{classify: func(_ context.Context, _ []llmclassifier.WordInput) ([]llmclassifier.POSResult, error) {
		return nil, errors.New(errors.ErrCodeLLMCallFailed, "boom")
	}}
	r := NewResolver(nil, mapDictionary{}, nil, llm, 0, nil)

	res, err := r.Annotate(context.Background(), toks("inexistente"))
	require.NoError(t, err, "llm failure must not fail the stream")
	require.Len(t, res.Tokens, 1)
	assert.True(t, res.Tokens[0].IsUnclassified())
	assert.Equal(t, 1, res.Unresolved)
}

func TestAnnotateExactlyOneSourcePerToken(t *testing.T) {
	dict := mapDictionary{"galpão": "s.m."}
	tagger := &mockTagger{tag: func(_ context.Context, words []string, _ string) ([]postagger.TagResult, error) {
		out := make([]postagger.TagResult, len(words))
		for i, w := range words {
			out[i] = postagger.TagResult{Token: w, POS: "NOUN", Confidence: 0.95}
		}
		return out, nil
	}}
	r := NewResolver(nil, dict, tagger, nil, 0, nil)

	res, err := r.Annotate(context.Background(), toks("está", "galpão", "guaiaca"))
	require.NoError(t, err)
	require.Len(t, res.Tokens, 3)

	sources := map[string]annotation.Source{}
	for _, tok := range res.Tokens {
		require.NoError(t, tok.Validate())
		sources[tok.SurfaceForm] = tok.POSSource
	}
	assert.Equal(t, annotation.SourceGrammar, sources["está"])
	assert.Equal(t, annotation.SourceDictionary, sources["galpão"])
	assert.Equal(t, annotation.SourceStatistical, sources["guaiaca"])
}

func TestAnnotateLLMBatching(t *testing.T) {
	var batchSizes []int
	llm := &mockLLM{classify: func(_ context.Context, inputs []llmclassifier.WordInput) ([]llmclassifier.POSResult, error) {
		batchSizes = append(batchSizes, len(inputs))
		out := make([]llmclassifier.POSResult, len(inputs))
		for i, in := range inputs {
			out[i] = llmclassifier.POSResult{Word: in.Word, POS: "NOUN", Confidence: 0.88}
		}
		return out, nil
	}}
	r := NewResolver(nil, mapDictionary{}, nil, llm, 3, nil)

	res, err := r.Annotate(context.Background(), toks("w1", "w2", "w3", "w4", "w5"))
	require.NoError(t, err)
	assert.Len(t, res.Tokens, 5)
	assert.Equal(t, []int{3, 2}, batchSizes)
	assert.Zero(t, res.Unresolved)
}

func TestParseNotationTable(t *testing.T) {
	cases := []struct {
		notation string
		want     annotation.POS
	}{
		{"s.m.", annotation.POSNoun},
		{"v.tr.", annotation.POSVerb},
		{"adj.", annotation.POSAdjective},
		{"s.m. e adj.", annotation.POSNoun}, // first listed class, always
		{"adj. e s.m.", annotation.POSAdjective},
		{"interj.", annotation.POSInterjection},
	}
	for _, tc := range cases {
		got, err := ParseNotation(tc.notation)
		require.NoError(t, err, tc.notation)
		assert.Equal(t, tc.want, got, tc.notation)
	}

	_, err := ParseNotation("xyz.")
	assert.True(t, errors.IsCode(err, errors.ErrCodePOSNotationUnknown))
}
