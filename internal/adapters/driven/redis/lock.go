package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

const lockKeyPrefix = "graphrag:lock:"

// Lock guards index runs across API and worker processes with SET NX keys.
// Each Lock carries a holder token so one process cannot release or extend
// a run lock taken by another.
type Lock struct {
	client *redis.Client
	holder string
}

// NewLock creates a lock whose holder token identifies this process.
func NewLock(client *redis.Client) *Lock {
	return &Lock{client: client, holder: newHolderToken()}
}

// newHolderToken returns host:pid:random.
func newHolderToken() string {
	host, _ := os.Hostname()
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s:%d:%s", host, os.Getpid(), hex.EncodeToString(buf))
}

// Acquire takes the named lock for ttl. It reports false when another
// holder has it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+name, l.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Compare-and-delete, so an expired lock re-taken elsewhere survives.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release drops the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := unlockScript.Run(ctx, l.client, []string{lockKeyPrefix + name}, l.holder).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Extend resets the TTL of a lock this holder owns.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := refreshScript.Run(ctx, l.client, []string{lockKeyPrefix + name}, l.holder, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lock %s not held", name)
	}
	return nil
}

// Ping checks the Redis connection.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Holder returns this lock's holder token.
func (l *Lock) Holder() string {
	return l.holder
}
