package driven

import (
	"context"
	"time"
)

// DistributedLock guarantees at most one index run per (book, config)
// across API and worker processes.
//
// Locks are held by the process that acquired them. A run extends its lock
// while it makes progress; a crashed holder loses it when the TTL lapses.
type DistributedLock interface {
	// Acquire returns false, nil when another holder has the lock.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release is a no-op for a lock this process does not hold.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry out to ttl from now, or fails when the lock
	// was lost. Backends without expiry only check that it is still held.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}
