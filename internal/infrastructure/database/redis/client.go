// Package redis provides the cache-side infrastructure: the classification
// record cache with compare-and-set confidence semantics, and the
// cooperative job cancellation flags.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

const connectTimeout = 5 * time.Second

// Client wraps go-redis with the configured key prefix.
type Client struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    logging.Logger
}

// NewClient connects and verifies with a ping.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis connection failed")
	}

	log.Info("connected to Redis", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{
		rdb:       rdb,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.DefaultTTL,
		logger:    log,
	}, nil
}

// NewClientWithBackend wraps an existing go-redis client, for tests against
// miniredis or a shared connection.
func NewClientWithBackend(rdb *redis.Client, keyPrefix string, ttl time.Duration, log logging.Logger) *Client {
	return &Client{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl, logger: log}
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(parts ...string) string {
	key := c.keyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
