package platform

import (
	"context"
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
)

// SummaryCache caches per-student balance summaries. Implementations are
// fail-open: a cache miss and a backend error look the same to callers.
type SummaryCache interface {
	// GetBalance returns the cached summary, or nil on miss.
	GetBalance(ctx context.Context, schoolID string, studentID string) *domain.BalanceSummary

	// SetBalance stores the summary for ttl.
	SetBalance(ctx context.Context, schoolID string, studentID string, summary *domain.BalanceSummary, ttl time.Duration)

	// InvalidateBalance drops the cached summary after a write.
	InvalidateBalance(ctx context.Context, schoolID string, studentID string)
}
