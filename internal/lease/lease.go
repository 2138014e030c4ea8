// Package lease provides a short-TTL run lease so overlapping dispatch
// triggers do not double-deliver the same pending entries.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Lease coordinates mutual exclusion across invocations using a Redis
// key. The TTL is a backstop: a crashed run frees the lease on expiry.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// New constructs a lease bound to the given key.
func New(client *redis.Client, key string, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Lease{client: client, key: key, ttl: ttl}
}

// Acquire attempts to take the lease. It returns false when another
// run currently holds it.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease acquire: %w", err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release frees the lease if this holder still owns it. A lease that
// expired and was re-acquired elsewhere is left untouched.
func (l *Lease) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}

	script := redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]
if redis.call('GET', key) == token then
  return redis.call('DEL', key)
end
return 0
`)

	if _, err := script.Run(ctx, l.client, []string{l.key}, l.token).Int(); err != nil {
		return fmt.Errorf("lease release: %w", err)
	}
	l.token = ""
	return nil
}
