package platform

import (
	"context"
	"time"
)

// Locker provides per-student mutual exclusion for billing operations.
// Acquire returns an opaque token that must be presented on Release so a
// holder cannot release a lock it lost to expiry.
type Locker interface {
	// Acquire takes the lock named by key for at most ttl. It returns the
	// release token, or an error when the lock is held or the backend is
	// unreachable. Callers must treat any error as contention.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Release frees the lock if token still owns it.
	Release(ctx context.Context, key string, token string) error
}
