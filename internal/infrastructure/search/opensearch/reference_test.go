package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
)

func newTestCorpus(t *testing.T, serverURL string) *ReferenceCorpus {
	t.Helper()
	osClient, err := opensearchgo.NewClient(opensearchgo.Config{Addresses: []string{serverURL}})
	require.NoError(t, err)
	client := &Client{
		client:    osClient,
		index:     "reference-corpus",
		termField: "form",
		logger:    logging.NewNopLogger(),
	}
	return NewReferenceCorpus(client, logging.NewNopLogger())
}

func TestTermFrequencies(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_search") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &capturedBody)
		w.Write([]byte(`{
			"took": 3,
			"hits": {"total": {"value": 0}, "hits": []},
			"aggregations": {
				"term_freq": {
					"buckets": [
						{"key": "casa", "doc_count": 420},
						{"key": "mate", "doc_count": 7}
					]
				}
			}
		}`))
	}))
	defer server.Close()

	corpus := newTestCorpus(t, server.URL)
	freqs, err := corpus.TermFrequencies(context.Background(), []string{"casa", "mate", "chimarrão"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"casa": 420, "mate": 7}, freqs)

	// terms both filter the query and bound the aggregation
	aggs := capturedBody["aggs"].(map[string]any)
	terms := aggs["term_freq"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, "form", terms["field"])
	assert.Equal(t, float64(3), terms["size"])
}

func TestTermFrequenciesEmptyInput(t *testing.T) {
	corpus := newTestCorpus(t, "http://127.0.0.1:1")
	freqs, err := corpus.TermFrequencies(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, freqs)
}

func TestTotalTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_count") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"count": 1048576}`))
	}))
	defer server.Close()

	corpus := newTestCorpus(t, server.URL)
	total, err := corpus.TotalTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), total)
}

func TestTermFrequenciesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "cluster unavailable"}`))
	}))
	defer server.Close()

	corpus := newTestCorpus(t, server.URL)
	_, err := corpus.TermFrequencies(context.Background(), []string{"mate"})
	require.Error(t, err)
}
