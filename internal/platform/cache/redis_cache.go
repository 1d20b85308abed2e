package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mativs/mattilda/internal/core/domain"
	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	"github.com/mativs/mattilda/internal/middleware"
)

// RedisSummaryCache implements platform.SummaryCache on Redis JSON values.
// Every backend failure degrades to a miss: balance reads stay correct with
// the cache entirely absent.
type RedisSummaryCache struct {
	client *redis.Client
}

// NewRedisSummaryCache creates a RedisSummaryCache backed by the given client.
func NewRedisSummaryCache(client *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{client: client}
}

var _ portsplatform.SummaryCache = (*RedisSummaryCache)(nil)

func balanceKey(schoolID, studentID string) string {
	return fmt.Sprintf("student_balance:%s:%s", schoolID, studentID)
}

// GetBalance returns the cached summary, or nil on miss or failure.
func (c *RedisSummaryCache) GetBalance(ctx context.Context, schoolID string, studentID string) *domain.BalanceSummary {
	raw, err := c.client.Get(ctx, balanceKey(schoolID, studentID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			middleware.GetLoggerFromCtx(ctx).Warn("balance cache read failed", slog.String("error", err.Error()))
		}
		return nil
	}
	var summary domain.BalanceSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("balance cache entry corrupt, dropping", slog.String("error", err.Error()))
		c.client.Del(ctx, balanceKey(schoolID, studentID))
		return nil
	}
	return &summary
}

// SetBalance stores the summary for ttl. Failures are logged and ignored.
func (c *RedisSummaryCache) SetBalance(ctx context.Context, schoolID string, studentID string, summary *domain.BalanceSummary, ttl time.Duration) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(schoolID, studentID), raw, ttl).Err(); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("balance cache write failed", slog.String("error", err.Error()))
	}
}

// InvalidateBalance drops the cached summary. Failures are logged and
// ignored; a stale entry expires by TTL.
func (c *RedisSummaryCache) InvalidateBalance(ctx context.Context, schoolID string, studentID string) {
	if err := c.client.Del(ctx, balanceKey(schoolID, studentID)).Err(); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("balance cache invalidation failed", slog.String("error", err.Error()))
	}
}
