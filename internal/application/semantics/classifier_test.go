package semantics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
	"github.com/tupiana/lexipipe/pkg/errors"
)

type mockCache struct {
	words    map[string]*classification.Record
	contexts map[string]*classification.Record
	puts     []*classification.Record
}

func newMockCache() *mockCache {
	return &mockCache{
		words:    map[string]*classification.Record{},
		contexts: map[string]*classification.Record{},
	}
}

func (m *mockCache) GetWord(_ context.Context, word string) (*classification.Record, error) {
	return m.words[word], nil
}

func (m *mockCache) GetWordContext(_ context.Context, word, hash string) (*classification.Record, error) {
	return m.contexts[word+"#"+hash], nil
}

func (m *mockCache) PutIfHigher(_ context.Context, rec *classification.Record) (bool, error) {
	m.puts = append(m.puts, rec)
	return true, nil
}

type mockRepo struct {
	words   map[string]*classification.Record
	upserts []*classification.Record
	finds   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{words: map[string]*classification.Record{}}
}

func (m *mockRepo) FindWord(_ context.Context, word string) (*classification.Record, error) {
	m.finds++
	return m.words[word], nil
}

func (m *mockRepo) FindWords(_ context.Context, words []string) (map[string]*classification.Record, error) {
	out := map[string]*classification.Record{}
	for _, w := range words {
		if rec, ok := m.words[w]; ok {
			out[w] = rec
		}
	}
	return out, nil
}

func (m *mockRepo) FindWordContext(_ context.Context, _, _ string) (*classification.Record, error) {
	return nil, nil
}

func (m *mockRepo) UpsertIfHigher(_ context.Context, rec *classification.Record) (bool, error) {
	m.upserts = append(m.upserts, rec)
	return true, nil
}

func (m *mockRepo) UpsertBatchIfHigher(_ context.Context, recs []*classification.Record) (int, error) {
	m.upserts = append(m.upserts, recs...)
	return len(recs), nil
}

type mockDialectal struct {
	entries map[string]*lexicon.Entry
}

func (m *mockDialectal) Lookup(_ context.Context, word, _ string) (*lexicon.Entry, error) {
	if e, ok := m.entries[word]; ok {
		return e, nil
	}
	return nil, errors.Newf(errors.ErrCodeLexiconEntryNotFound, "no entry for %q", word)
}

type mockLLM struct {
	classify   func(inputs []llmclassifier.WordInput, codes []string) ([]llmclassifier.DomainResult, error)
	calls      int
	batchSizes []int
}

func (m *mockLLM) ClassifyDomains(_ context.Context, inputs []llmclassifier.WordInput, codes []string) ([]llmclassifier.DomainResult, error) {
	m.calls++
	m.batchSizes = append(m.batchSizes, len(inputs))
	if m.classify != nil {
		return m.classify(inputs, codes)
	}
	return nil, nil
}

func testTaxonomy(t *testing.T) *tagset.Taxonomy {
	t.Helper()
	tax, report := tagset.New([]tagset.Node{
		{Code: "AL", Depth: 1, Label: "alimentação"},
		{Code: "AL.BE", ParentCode: "AL", Depth: 2, Label: "bebidas"},
		{Code: "AB", Depth: 1, Label: "abstrações"},
		{Code: "PR", Depth: 1, Label: "profissões"},
		{Code: "CM", Depth: 1, Label: "vida campeira"},
	})
	require.Zero(t, report.Rejected)
	return tax
}

func newClassifier(t *testing.T, cfg Config) *Classifier {
	t.Helper()
	cfg.Taxonomy = testTaxonomy(t)
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestClassifyStopword(t *testing.T) {
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo})

	rec, err := c.Classify(context.Background(), Request{Word: "de"})
	require.NoError(t, err)
	assert.Equal(t, tagset.NoDomainCode, rec.DomainCode)
	assert.Equal(t, StopwordConfidence, rec.Confidence)
	assert.Equal(t, classification.SourceStopword, rec.Source)
	assert.Zero(t, repo.finds, "stopwords must short-circuit before storage")
}

func TestClassifyConfidentCacheHit(t *testing.T) {
	cache := newMockCache()
	cache.words["chimarrão"] = &classification.Record{
		Word: "chimarrão", DomainCode: "AL.BE", Confidence: 0.95,
		Source: classification.SourceLLM,
	}
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo, Cache: cache})

	rec, err := c.Classify(context.Background(), Request{Word: "Chimarrão"})
	require.NoError(t, err)
	assert.Equal(t, "AL.BE", rec.DomainCode)
	assert.Equal(t, classification.SourceCache, rec.Source)
	assert.Zero(t, repo.finds)
}

func TestClassifyAmbiguousWordUsesContextRecord(t *testing.T) {
	// "mate" alone is ambiguous (drink vs. verb matar); the context-specific
	// record resolves it.
	cache := newMockCache()
	cache.words["mate"] = &classification.Record{
		Word: "mate", DomainCode: "AL.BE", Confidence: 0.70,
		Source: classification.SourceLLM,
	}
	hash := classification.ContextHash("cevava o mate na cuia")
	cache.contexts["mate#"+hash] = &classification.Record{
		Word: "mate", ContextHash: hash, DomainCode: "AL.BE", Confidence: 0.93,
		Source: classification.SourceLLM,
	}
	c := newClassifier(t, Config{Repository: newMockRepo(), Cache: cache})

	rec, err := c.Classify(context.Background(), Request{Word: "mate", Context: "cevava o mate na cuia"})
	require.NoError(t, err)
	assert.Equal(t, classification.SourceCache, rec.Source)
	assert.Equal(t, 0.93, rec.Confidence)
	assert.Equal(t, hash, rec.ContextHash)
}

func TestClassifyAmbiguousCacheFallback(t *testing.T) {
	// Sub-threshold cached answer, no context record, and every deeper level
	// misses: the ambiguous answer still beats NC.
	cache := newMockCache()
	cache.words["mate"] = &classification.Record{
		Word: "mate", DomainCode: "AL.BE", Confidence: 0.70,
		Source: classification.SourceLLM,
	}
	llm := &mockLLM{} // returns nothing
	c := newClassifier(t, Config{Repository: newMockRepo(), Cache: cache, LLM: llm})

	rec, err := c.Classify(context.Background(), Request{Word: "mate"})
	require.NoError(t, err)
	assert.Equal(t, "AL.BE", rec.DomainCode)
	assert.Equal(t, 0.70, rec.Confidence)
	assert.Equal(t, classification.SourceCache, rec.Source)
	assert.Equal(t, 1, llm.calls, "deeper levels still get their chance first")
}

func TestClassifySemanticLexiconWarmsCache(t *testing.T) {
	cache := newMockCache()
	repo := newMockRepo()
	repo.words["galpão"] = &classification.Record{
		Word: "galpão", DomainCode: "CM", Confidence: 0.91,
		Source: classification.SourceLLM,
	}
	c := newClassifier(t, Config{Repository: repo, Cache: cache})

	rec, err := c.Classify(context.Background(), Request{Word: "galpão"})
	require.NoError(t, err)
	assert.Equal(t, classification.SourceSemanticLexicon, rec.Source)
	require.Len(t, cache.puts, 1)
	assert.Equal(t, "galpão", cache.puts[0].Word)
}

func TestClassifyMorphology(t *testing.T) {
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo})

	rec, err := c.Classify(context.Background(), Request{Word: "criação"})
	require.NoError(t, err)
	assert.Equal(t, "AB", rec.DomainCode)
	assert.Equal(t, 0.92, rec.Confidence)
	assert.Equal(t, classification.SourceMorphologicalRule, rec.Source)
	assert.NotEmpty(t, rec.Justification)
	require.Len(t, repo.upserts, 1, "rule answers are written back")
}

func TestClassifyDialectalLexicon(t *testing.T) {
	// "guri" carries no productive affix, so the rule layer passes and the
	// dialectal lexicon answers.
	dial := &mockDialectal{entries: map[string]*lexicon.Entry{
		"guri": {
			Headword: "guri", NormalizedForm: "guri",
			DomainCodes: []string{"CM"}, Confidence: 0.88,
			Source: lexicon.SourceRegional,
		},
	}}
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo, Dialectal: dial})

	rec, err := c.Classify(context.Background(), Request{Word: "guri"})
	require.NoError(t, err)
	assert.Equal(t, "CM", rec.DomainCode)
	assert.Equal(t, classification.SourceDialectalLexicon, rec.Source)
}

func TestClassifyBatchPartialLLMResponse(t *testing.T) {
	// Fifteen unknown words, the model answers for thirteen: the two missing
	// words become NC records and the batch is not retried inline.
	llm := &mockLLM{classify: func(inputs []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		out := make([]llmclassifier.DomainResult, 0, len(inputs)-2)
		for _, in := range inputs[:len(inputs)-2] {
			out = append(out, llmclassifier.DomainResult{
				Word: in.Word, DomainCode: "CM", Confidence: 0.88,
				Justification: "termo da lida campeira",
			})
		}
		return out, nil
	}}
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo, LLM: llm, BatchLimit: 15})

	reqs := make([]Request, 15)
	for i := range reqs {
		reqs[i] = Request{Word: fmt.Sprintf("palavrax%d", i)}
	}
	records, err := c.ClassifyBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, records, 15)

	assert.Equal(t, 1, llm.calls, "missing words are not retried inline")
	nc := 0
	for _, rec := range records {
		if rec.IsNotClassified() {
			nc++
		} else {
			assert.Equal(t, classification.SourceLLM, rec.Source)
			assert.Equal(t, "termo da lida campeira", rec.Justification)
		}
	}
	assert.Equal(t, 2, nc)
	assert.Len(t, repo.upserts, 15, "13 model answers plus 2 NC markers are persisted")
}

func TestClassifyLLMContextAnswerAlsoStoredWordOnly(t *testing.T) {
	// A context-bearing request resolved by the model is persisted twice:
	// under (word, context hash) and under the bare word, so the next
	// word-only lookup stops at the semantic lexicon.
	llm := &mockLLM{classify: func(inputs []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		return []llmclassifier.DomainResult{
			{Word: inputs[0].Word, DomainCode: "AL.BE", Confidence: 0.93},
		}, nil
	}}
	repo := newMockRepo()
	cache := newMockCache()
	c := newClassifier(t, Config{Repository: repo, Cache: cache, LLM: llm})

	sentence := "cevava o mate na cuia"
	rec, err := c.Classify(context.Background(), Request{Word: "mate", Context: sentence})
	require.NoError(t, err)
	assert.Equal(t, classification.ContextHash(sentence), rec.ContextHash)

	require.Len(t, repo.upserts, 2)
	hashes := []string{repo.upserts[0].ContextHash, repo.upserts[1].ContextHash}
	assert.Contains(t, hashes, classification.ContextHash(sentence))
	assert.Contains(t, hashes, "")
	for _, up := range repo.upserts {
		assert.Equal(t, "mate", up.Word)
		assert.Equal(t, "AL.BE", up.DomainCode)
	}
	require.Len(t, cache.puts, 2, "both records warm the cache")
}

func TestClassifyBatchSplitsByLimit(t *testing.T) {
	llm := &mockLLM{classify: func(inputs []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		out := make([]llmclassifier.DomainResult, len(inputs))
		for i, in := range inputs {
			out[i] = llmclassifier.DomainResult{Word: in.Word, DomainCode: "CM", Confidence: 0.88}
		}
		return out, nil
	}}
	c := newClassifier(t, Config{Repository: newMockRepo(), LLM: llm, BatchLimit: 15})

	reqs := make([]Request, 20)
	for i := range reqs {
		reqs[i] = Request{Word: fmt.Sprintf("palavrax%d", i)}
	}
	records, err := c.ClassifyBatch(context.Background(), reqs)
	require.NoError(t, err)
	assert.Len(t, records, 20)
	assert.Equal(t, []int{15, 5}, llm.batchSizes)
}

func TestClassifyLLMUnknownDomainCodeRejected(t *testing.T) {
	llm := &mockLLM{classify: func(inputs []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		return []llmclassifier.DomainResult{
			{Word: inputs[0].Word, DomainCode: "ZZ.99", Confidence: 0.88},
		}, nil
	}}
	c := newClassifier(t, Config{Repository: newMockRepo(), LLM: llm})

	rec, err := c.Classify(context.Background(), Request{Word: "palavrax"})
	require.NoError(t, err)
	assert.True(t, rec.IsNotClassified(), "hallucinated codes must not enter the lexicon")
}

func TestClassifyLLMFailureDegradesToNC(t *testing.T) {
	llm := &mockLLM{classify: func(_ []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		return nil, errors.New(errors.ErrCodeLLMCallFailed, "quota exhausted")
	}}
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo, LLM: llm})

	rec, err := c.Classify(context.Background(), Request{Word: "palavrax"})
	require.NoError(t, err, "llm failure degrades, it does not fail the batch")
	assert.True(t, rec.IsNotClassified())
	require.Len(t, repo.upserts, 1, "the NC outcome itself is persisted")
	assert.True(t, repo.upserts[0].IsNotClassified())
}

func TestClassifyWriteBackKeyedByContext(t *testing.T) {
	// An LLM answer derived with context is stored as a context-specific
	// record, so it can never shadow a higher-confidence word-only record.
	llm := &mockLLM{classify: func(inputs []llmclassifier.WordInput, _ []string) ([]llmclassifier.DomainResult, error) {
		return []llmclassifier.DomainResult{
			{Word: inputs[0].Word, DomainCode: "AL.BE", Confidence: 0.88},
		}, nil
	}}
	repo := newMockRepo()
	c := newClassifier(t, Config{Repository: repo, LLM: llm})

	rec, err := c.Classify(context.Background(), Request{Word: "cevar", Context: "cevar o mate da manhã"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ContextHash)
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, rec.ContextHash, repo.upserts[0].ContextHash)
}
