// Package llmclassifier wraps the Gemini API as the last-resort
// classification layer for both pipelines: semantic domains (batch of 15,
// temperature 0.2) and POS tags.  Calls are batched aggressively because
// model latency dominates everything else in the pipeline, and results are
// returned per word so partial-batch failures never discard the words that
// did come back.
package llmclassifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Default call parameters; overridable through Config.
const (
	DefaultBatchLimit  = 15
	DefaultTemperature = 0.2
	DefaultMaxRetries  = 1
	DefaultBackoff     = 2 * time.Second

	// DomainConfidence and POSConfidence are the confidences assigned to
	// model answers that do not self-report one.
	DomainConfidence = 0.88
	POSConfidence    = 0.88
)

// WordInput is one word with the minimal context the model needs.
type WordInput struct {
	Word    string `json:"word"`
	Context string `json:"context,omitempty"`
}

// DomainResult is the model's answer for one word.
type DomainResult struct {
	Word          string  `json:"word"`
	DomainCode    string  `json:"domain_code"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification,omitempty"`
}

// POSResult is the model's POS answer for one word.
type POSResult struct {
	Word       string  `json:"word"`
	POS        string  `json:"pos"`
	Lemma      string  `json:"lemma,omitempty"`
	Confidence float64 `json:"confidence"`
}

// CallStats describes one completed model call for the yield audit: a 200
// with no usable content must be distinguishable from a hard error, so the
// orchestrating layer watches Returned/Submitted rather than error values.
type CallStats struct {
	Submitted int
	Returned  int
	Elapsed   time.Duration
}

// Config holds classifier tunables.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	BatchLimit  int
	MaxRetries  int
	Backoff     time.Duration

	// OnCall, if set, receives stats after every model call (success or
	// partial).  Wired to the prometheus yield metric.
	OnCall func(stats CallStats)
}

func (c *Config) applyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = DefaultBatchLimit
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Backoff == 0 {
		c.Backoff = DefaultBackoff
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
}

// generator abstracts the raw model call so tests can substitute canned
// responses.
type generator interface {
	generate(ctx context.Context, model string, prompt string, cfg *genai.GenerateContentConfig) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Classifier is the Gemini-backed classification client.  Safe for
// concurrent use.
type Classifier struct {
	gen    generator
	cfg    Config
	logger logging.Logger
}

// New builds a Classifier against the real Gemini API.
func New(ctx context.Context, cfg Config, logger logging.Logger) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm classifier requires an api key")
	}
	if cfg.Model == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm classifier requires a model name")
	}
	cfg.applyDefaults()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMCallFailed, "failed to create genai client")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Classifier{gen: &genaiGenerator{client: client}, cfg: cfg, logger: logger.Named("llm")}, nil
}

// newWithGenerator is the test seam.
func newWithGenerator(gen generator, cfg Config, logger logging.Logger) *Classifier {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Classifier{gen: gen, cfg: cfg, logger: logger}
}

// ClassifyDomains submits up to BatchLimit words and returns the answers the
// model produced.  Missing words are not an error: the result set may be a
// strict subset of the input, and the caller decides how to record the gaps.
// The whole call is retried once on transport errors and on responses that
// yield zero usable answers.
func (c *Classifier) ClassifyDomains(ctx context.Context, inputs []WordInput, domainCodes []string) ([]DomainResult, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > c.cfg.BatchLimit {
		return nil, errors.Newf(errors.ErrCodeLLMBatchTooLarge,
			"batch of %d exceeds limit %d", len(inputs), c.cfg.BatchLimit)
	}

	prompt := buildDomainPrompt(inputs, domainCodes)
	raw, elapsed, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		c.observe(len(inputs), 0, elapsed)
		return nil, err
	}

	var results []DomainResult
	if err := decodeJSONArray(raw, &results); err != nil {
		c.observe(len(inputs), 0, elapsed)
		return nil, err
	}
	results = filterDomainResults(inputs, results)
	c.observe(len(inputs), len(results), elapsed)
	c.logger.Debug("domain batch classified",
		logging.Int("submitted", len(inputs)),
		logging.Int("returned", len(results)))
	return results, nil
}

// ClassifyPOS submits unresolved tokens for POS tagging.  Same batch and
// partial-result semantics as ClassifyDomains.
func (c *Classifier) ClassifyPOS(ctx context.Context, inputs []WordInput) ([]POSResult, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > c.cfg.BatchLimit {
		return nil, errors.Newf(errors.ErrCodeLLMBatchTooLarge,
			"batch of %d exceeds limit %d", len(inputs), c.cfg.BatchLimit)
	}

	prompt := buildPOSPrompt(inputs)
	raw, elapsed, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		c.observe(len(inputs), 0, elapsed)
		return nil, err
	}

	var results []POSResult
	if err := decodeJSONArray(raw, &results); err != nil {
		c.observe(len(inputs), 0, elapsed)
		return nil, err
	}
	results = filterPOSResults(inputs, results)
	c.observe(len(inputs), len(results), elapsed)
	c.logger.Debug("pos batch classified",
		logging.Int("submitted", len(inputs)),
		logging.Int("returned", len(results)))
	return results, nil
}

func (c *Classifier) callWithRetry(ctx context.Context, prompt string) (string, time.Duration, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens:  int32(c.cfg.MaxTokens),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	var total time.Duration
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", total, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "llm retry aborted")
			case <-time.After(c.cfg.Backoff):
			}
		}

		start := time.Now()
		raw, err := c.gen.generate(ctx, c.cfg.Model, prompt, cfg)
		elapsed := time.Since(start)
		total += elapsed
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeLLMCallFailed, "llm call failed")
			c.logger.Warn("llm call errored",
				logging.Int("attempt", attempt+1),
				logging.Duration("elapsed", elapsed),
				logging.Err(err))
			continue
		}
		if strings.TrimSpace(raw) == "" {
			// A successful transport with no content is the "silent failure"
			// case; retry it like an error but keep the distinct code.
			lastErr = errors.New(errors.ErrCodeLLMEmptyResponse, "llm returned empty response")
			c.logger.Warn("llm returned no content",
				logging.Int("attempt", attempt+1),
				logging.Duration("elapsed", elapsed))
			continue
		}
		return raw, total, nil
	}
	return "", total, lastErr
}

func (c *Classifier) observe(submitted, returned int, elapsed time.Duration) {
	if c.cfg.OnCall != nil {
		c.cfg.OnCall(CallStats{Submitted: submitted, Returned: returned, Elapsed: elapsed})
	}
}

// decodeJSONArray tolerates code fences and leading prose around the JSON
// payload.
func decodeJSONArray(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	if i := strings.IndexByte(cleaned, '['); i > 0 {
		cleaned = cleaned[i:]
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), out); err != nil {
		return errors.Wrap(err, errors.ErrCodeLLMResponseMalformed, "llm response is not valid JSON")
	}
	return nil
}

// filterDomainResults drops answers for words never submitted (model
// hallucination) and clamps confidences, reporting call stats.
func filterDomainResults(inputs []WordInput, results []DomainResult) []DomainResult {
	submitted := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		submitted[morphology.Normalize(in.Word)] = true
	}
	out := results[:0]
	for _, r := range results {
		w := morphology.Normalize(r.Word)
		if !submitted[w] || r.DomainCode == "" {
			continue
		}
		r.Word = w
		if r.Confidence <= 0 || r.Confidence > 1 {
			r.Confidence = DomainConfidence
		}
		out = append(out, r)
	}
	return out
}

func filterPOSResults(inputs []WordInput, results []POSResult) []POSResult {
	submitted := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		submitted[morphology.Normalize(in.Word)] = true
	}
	out := results[:0]
	for _, r := range results {
		w := morphology.Normalize(r.Word)
		if !submitted[w] || r.POS == "" {
			continue
		}
		r.Word = w
		if r.Confidence <= 0 || r.Confidence > 1 {
			r.Confidence = POSConfidence
		}
		out = append(out, r)
	}
	return out
}
