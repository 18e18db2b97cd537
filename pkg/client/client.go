// Package client is a thin HTTP client for the lexipipe API, used by the
// CLI and by downstream tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Client talks to one lexipipe API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client against baseURL, e.g. "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Code != "" {
			return errors.New(errors.ErrorCode(apiErr.Code), apiErr.Message)
		}
		return errors.Newf(errors.ErrCodeExternalService, "server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode response")
		}
	}
	return nil
}

// StartJob starts a seeding job.
func (c *Client) StartJob(ctx context.Context, priorities []string, chunkSize int) (*job.BatchJob, error) {
	var started job.BatchJob
	err := c.do(ctx, http.MethodPost, "/api/v1/jobs", map[string]any{
		"priorities": priorities,
		"chunk_size": chunkSize,
	}, &started)
	if err != nil {
		return nil, err
	}
	return &started, nil
}

// GetJob fetches one job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*job.BatchJob, error) {
	var j job.BatchJob
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJobs fetches recent jobs.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]*job.BatchJob, error) {
	var resp struct {
		Jobs []*job.BatchJob `json:"jobs"`
	}
	path := "/api/v1/jobs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// CancelJob requests cooperative cancellation.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", nil, nil)
}

// EnqueueCandidates adds words to the seeding queue.
func (c *Client) EnqueueCandidates(ctx context.Context, candidates []*job.Candidate) error {
	return c.do(ctx, http.MethodPost, "/api/v1/candidates", map[string]any{
		"candidates": candidates,
	}, nil)
}

// Classify runs the semantic cascade for one word.
func (c *Client) Classify(ctx context.Context, word, sentence string) (*classification.Record, error) {
	var rec classification.Record
	err := c.do(ctx, http.MethodPost, "/api/v1/classifications", map[string]any{
		"word":    word,
		"context": sentence,
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Lookup reads a stored classification without running the cascade.
func (c *Client) Lookup(ctx context.Context, word string) (*classification.Record, error) {
	var rec classification.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/classifications/"+url.PathEscape(word), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AnnotateResult mirrors the annotation endpoint's response.
type AnnotateResult struct {
	Tokens     []annotation.AnnotatedToken `json:"tokens"`
	Unresolved int                         `json:"unresolved"`
}

// Annotate runs POS annotation over the token stream.
func (c *Client) Annotate(ctx context.Context, tokens []annotation.Token) (*AnnotateResult, error) {
	var result AnnotateResult
	err := c.do(ctx, http.MethodPost, "/api/v1/annotations", map[string]any{
		"tokens": tokens,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
