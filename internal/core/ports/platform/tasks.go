package platform

import (
	"context"
	"time"
)

// TaskDispatcher enqueues background work for the worker pool. Dispatch is
// at-least-once: handlers must tolerate redelivery.
type TaskDispatcher interface {
	// EnqueueSchoolInvoiceGeneration queues a school-wide billing cycle.
	EnqueueSchoolInvoiceGeneration(ctx context.Context, schoolID string, asOf time.Time, actorID string) error

	// EnqueueReconciliationRun queues execution of a created run.
	EnqueueReconciliationRun(ctx context.Context, runID string) error
}
