package keyness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReference struct {
	freqs map[string]int64
	total int64
}

func (m *mockReference) TermFrequencies(_ context.Context, terms []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, t := range terms {
		if f, ok := m.freqs[t]; ok {
			out[t] = f
		}
	}
	return out, nil
}

func (m *mockReference) TotalTokens(_ context.Context) (int64, error) {
	return m.total, nil
}

func TestRankDialectalWordsFirst(t *testing.T) {
	// chimarrão is frequent here and rare in the reference; casa is common
	// in both.  The dialectal word must rank first.
	ref := &mockReference{
		freqs: map[string]int64{"chimarrão": 2, "casa": 5000},
		total: 1_000_000,
	}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	keywords, err := e.Rank(context.Background(), map[string]int64{
		"chimarrão": 80,
		"casa":      60,
	}, 10_000, 0)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)

	assert.Equal(t, "chimarrão", keywords[0].Word)
	assert.Greater(t, keywords[0].LogLikelihood, 0.0)
	for _, kw := range keywords {
		assert.False(t, kw.Word == "casa" && kw.LogLikelihood > keywords[0].LogLikelihood)
	}
}

func TestRankExcludesNegativeKeyness(t *testing.T) {
	// Proportionally rarer in the study corpus than the reference.
	ref := &mockReference{freqs: map[string]int64{"governo": 50_000}, total: 1_000_000}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	keywords, err := e.Rank(context.Background(), map[string]int64{"governo": 10}, 10_000, 0)
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestRankExcludesStopwords(t *testing.T) {
	ref := &mockReference{freqs: map[string]int64{}, total: 1_000_000}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	keywords, err := e.Rank(context.Background(), map[string]int64{
		"de":   500,
		"guri": 40,
		"que":  300,
	}, 10_000, 0)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	assert.Equal(t, "guri", keywords[0].Word)
}

func TestRankAbsentFromReferenceScoresHigh(t *testing.T) {
	ref := &mockReference{freqs: map[string]int64{"bairro": 800}, total: 1_000_000}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	keywords, err := e.Rank(context.Background(), map[string]int64{
		"tchê":   30,
		"bairro": 30,
	}, 10_000, 0)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.Equal(t, "tchê", keywords[0].Word, "a word the reference has never seen is maximally key")
	assert.Zero(t, keywords[0].ReferenceFreq)
}

func TestRankLimitAndNormalization(t *testing.T) {
	ref := &mockReference{freqs: map[string]int64{}, total: 1_000_000}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	keywords, err := e.Rank(context.Background(), map[string]int64{
		"Galpão": 10, "galpão": 5, "bagual": 8, "pampa": 3,
	}, 10_000, 2)
	require.NoError(t, err)
	require.Len(t, keywords, 2)

	for _, kw := range keywords {
		if kw.Word == "galpão" {
			assert.Equal(t, int64(15), kw.StudyFreq, "case variants collapse onto the normalized form")
		}
	}
}

func TestRankRejectsEmptyStudyCorpus(t *testing.T) {
	ref := &mockReference{total: 1_000_000}
	e, err := New(ref, nil, nil)
	require.NoError(t, err)

	_, err = e.Rank(context.Background(), map[string]int64{"x": 1}, 0, 0)
	assert.Error(t, err)
}
