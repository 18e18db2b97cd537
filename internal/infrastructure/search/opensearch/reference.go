package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// ReferenceCorpus implements keyness.Reference over the reference index.
type ReferenceCorpus struct {
	client *Client
	logger logging.Logger
}

// NewReferenceCorpus builds the reference reader.
func NewReferenceCorpus(client *Client, log logging.Logger) *ReferenceCorpus {
	return &ReferenceCorpus{client: client, logger: log}
}

// TermFrequencies returns occurrence counts for terms in one aggregation
// round trip.  Terms absent from the reference are absent from the map.
func (r *ReferenceCorpus) TermFrequencies(ctx context.Context, terms []string) (map[string]int64, error) {
	if len(terms) == 0 {
		return map[string]int64{}, nil
	}

	field := r.client.termField
	body, err := json.Marshal(map[string]any{
		"size": 0,
		"query": map[string]any{
			"terms": map[string]any{field: terms},
		},
		"aggs": map[string]any{
			"term_freq": map[string]any{
				"terms": map[string]any{
					"field":   field,
					"size":    len(terms),
					"include": terms,
				},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal frequency query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{r.client.index},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, r.client.client)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "reference frequency query failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, responseError(resp)
	}

	var parsed struct {
		Aggregations struct {
			TermFreq struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"term_freq"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode frequency response")
	}

	freqs := make(map[string]int64, len(parsed.Aggregations.TermFreq.Buckets))
	for _, bucket := range parsed.Aggregations.TermFreq.Buckets {
		freqs[bucket.Key] = bucket.DocCount
	}
	return freqs, nil
}

// TotalTokens returns the reference corpus size in tokens.
func (r *ReferenceCorpus) TotalTokens(ctx context.Context) (int64, error) {
	req := opensearchapi.CountRequest{Index: []string{r.client.index}}
	resp, err := req.Do(ctx, r.client.client)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeExternalService, "reference count query failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return 0, responseError(resp)
	}

	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode count response")
	}
	return parsed.Count, nil
}

func responseError(resp *opensearchapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.Newf(errors.ErrCodeExternalService, "opensearch returned %s: %s", resp.Status(), string(raw))
}
