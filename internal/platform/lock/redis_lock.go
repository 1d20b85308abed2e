package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
)

var (
	ErrLockHeld     = errors.New("lock is held by another owner")
	ErrNotLockOwner = errors.New("lock is not held by this token")
)

// releaseScript deletes the key only when the caller still owns it, so a
// holder that lost the lock to TTL expiry cannot delete a successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLocker implements platform.Locker on a Redis SET NX lock.
// Acquisition is non-blocking: contention and backend failure both surface
// as errors, and billing operations fail closed on either.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a RedisLocker backed by the given client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

var _ portsplatform.Locker = (*RedisLocker)(nil)

// Acquire takes the lock with a fresh token and the given TTL.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release frees the lock if token still owns it.
func (l *RedisLocker) Release(ctx context.Context, key string, token string) error {
	deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotLockOwner
	}
	return nil
}
