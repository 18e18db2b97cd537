package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tupiana/lexipipe/pkg/errors"
)

// cancelFlagTTL bounds how long a cancellation request lingers for a job
// that was never resumed.
const cancelFlagTTL = 24 * time.Hour

// CancelFlags implements the cooperative job cancellation signal.  The API
// raises a flag; workers poll it between chunks.  The flag is a plain keyed
// value so cancellation survives worker restarts and reaches whichever
// worker holds the continuation.
type CancelFlags struct {
	client *Client
}

// NewCancelFlags builds the flag store.
func NewCancelFlags(client *Client) *CancelFlags {
	return &CancelFlags{client: client}
}

// RequestCancel raises the flag for the job.
func (f *CancelFlags) RequestCancel(ctx context.Context, jobID string) error {
	key := f.client.key("cancel", jobID)
	if err := f.client.rdb.Set(ctx, key, "1", cancelFlagTTL).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cancellation flag write failed")
	}
	return nil
}

// Cancelled reports whether the flag is raised.
func (f *CancelFlags) Cancelled(ctx context.Context, jobID string) (bool, error) {
	key := f.client.key("cancel", jobID)
	err := f.client.rdb.Get(ctx, key).Err()
	if err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cancellation flag read failed")
	}
	return true, nil
}
