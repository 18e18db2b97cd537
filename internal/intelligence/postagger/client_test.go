package postagger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/pkg/errors"
)

func TestTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tag", r.URL.Path)
		var req tagRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pt-BR", req.Language)
		assert.Equal(t, []string{"tomava", "chimarrão"}, req.Tokens)

		_ = json.NewEncoder(w).Encode(tagResponse{Tags: []TagResult{
			{Token: "tomava", POS: "VERB", Lemma: "tomar", Confidence: 0.97},
			{Token: "chimarrão", POS: "NOUN", Lemma: "chimarrão", Confidence: 0.97},
		}})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	tags, err := c.Tag(context.Background(), []string{"tomava", "chimarrão"}, "ele tomava chimarrão")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "VERB", tags[0].POS)
	assert.Equal(t, "tomar", tags[0].Lemma)
}

func TestTagPartialCoverageIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(tagResponse{Tags: []TagResult{
			{Token: "tomava", POS: "VERB", Confidence: 0.95},
		}})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	tags, err := c.Tag(context.Background(), []string{"tomava", "bagual"}, "")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Tag(context.Background(), []string{"mate"}, "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePOSTaggerUnavailable))
}

func TestTagEmptyInput(t *testing.T) {
	c, err := New(Config{BaseURL: "http://unused"}, nil)
	require.NoError(t, err)
	tags, err := c.Tag(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, tags)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
