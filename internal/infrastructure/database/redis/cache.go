package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// putIfHigherScript implements the conditional write atomically server-side:
// the stored JSON's confidence must be strictly below the incoming one for
// the write to land.  Two workers racing on the same word therefore converge
// on the better record no matter the interleaving.
const putIfHigherScript = `
local current = redis.call('GET', KEYS[1])
if current then
	local decoded = cjson.decode(current)
	if tonumber(decoded.confidence) >= tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1`

// ClassificationCache implements classification.Cache on Redis.  Keys are
// prefix:cls:word for word-only records and prefix:cls:word#hash for
// context-specific ones, matching Record.CacheKey.
type ClassificationCache struct {
	client *Client
	script *goredis.Script
}

// NewClassificationCache builds the cache over a connected client.
func NewClassificationCache(client *Client) *ClassificationCache {
	return &ClassificationCache{
		client: client,
		script: goredis.NewScript(putIfHigherScript),
	}
}

// GetWord implements classification.Cache.
func (c *ClassificationCache) GetWord(ctx context.Context, word string) (*classification.Record, error) {
	return c.get(ctx, c.client.key("cls", word))
}

// GetWordContext implements classification.Cache.
func (c *ClassificationCache) GetWordContext(ctx context.Context, word, contextHash string) (*classification.Record, error) {
	return c.get(ctx, c.client.key("cls", word+"#"+contextHash))
}

func (c *ClassificationCache) get(ctx context.Context, key string) (*classification.Record, error) {
	raw, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache read failed")
	}
	var rec classification.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt value is treated as a miss; the durable store is
		// authoritative and the next write repairs the key.
		c.client.logger.Warn("discarding corrupt cache value")
		return nil, nil
	}
	return &rec, nil
}

// PutIfHigher implements classification.Cache.
func (c *ClassificationCache) PutIfHigher(ctx context.Context, rec *classification.Record) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "cache record marshal failed")
	}
	key := c.client.key("cls", rec.CacheKey())
	res, err := c.script.Run(ctx, c.client.rdb, []string{key},
		payload, rec.Confidence, c.client.ttl.Milliseconds()).Int()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cache conditional write failed")
	}
	return res == 1, nil
}
