// Package postagger is the HTTP client for the external statistical POS
// tagging service.  The service tags a sentence in one call and reports a
// per-token confidence; the resolver layer above decides whether to accept
// the answer (documented acceptance threshold 0.90).
package postagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// DefaultTimeout bounds a single tagging call.
const DefaultTimeout = 10 * time.Second

// TagResult is the tagger's answer for one token.
type TagResult struct {
	Token      string  `json:"token"`
	POS        string  `json:"pos"`
	Lemma      string  `json:"lemma,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Config holds client tunables.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the tagging service.  Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New builds a Client.
func New(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "pos tagger requires a base url")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("postagger"),
	}, nil
}

type tagRequest struct {
	Tokens   []string `json:"tokens"`
	Sentence string   `json:"sentence,omitempty"`
	Language string   `json:"language"`
}

type tagResponse struct {
	Tags []TagResult `json:"tags"`
}

// Tag submits the tokens with their sentence context and returns one result
// per recognized token.  The response may cover fewer tokens than submitted;
// that is not an error.
func (c *Client) Tag(ctx context.Context, tokens []string, sentence string) ([]TagResult, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(tagRequest{Tokens: tokens, Sentence: sentence, Language: "pt-BR"})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode tag request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tag", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePOSTaggerUnavailable, "failed to build tag request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePOSTaggerUnavailable, "pos tagger call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodePOSTaggerUnavailable,
			"pos tagger returned %d: %s", resp.StatusCode, string(payload))
	}

	var out tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode tag response")
	}

	c.logger.Debug("sentence tagged",
		logging.Int("tokens", len(tokens)),
		logging.Int("tagged", len(out.Tags)),
		logging.Duration("elapsed", time.Since(start)))
	return out.Tags, nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePOSTaggerUnavailable, "failed to build health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePOSTaggerUnavailable, "pos tagger unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodePOSTaggerUnavailable,
			fmt.Sprintf("pos tagger health returned %d", resp.StatusCode))
	}
	return nil
}
