// Package opensearch reads the reference corpus backing keyness analysis.
// The reference index holds one document per token occurrence, so term
// frequencies are document counts over the configured term field.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"

	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Client wraps the opensearch-go client with the configured index.
type Client struct {
	client    *opensearchgo.Client
	index     string
	termField string
	logger    logging.Logger
}

// NewClient connects and pings the cluster.
func NewClient(cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch addresses are empty")
	}
	if cfg.Index == "" {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch index is empty")
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opensearchgo.NewClient(opensearchgo.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create opensearch client")
	}

	c := &Client{
		client:    client,
		index:     cfg.Index,
		termField: termFieldOrDefault(cfg.TermField),
		logger:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("Connected to OpenSearch",
		logging.String("index", cfg.Index),
		logging.Int("nodes", len(cfg.Addresses)))
	return c, nil
}

func termFieldOrDefault(field string) string {
	if field == "" {
		return "form"
	}
	return field
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "opensearch ping failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeServiceUnavailable, "opensearch ping returned %s", resp.Status())
	}
	return nil
}

// HealthCheck verifies reachability, for readiness probes.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx)
}
