package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
)

const queueKey = "mattilda:tasks"

// Task types understood by the worker.
const (
	TaskSchoolInvoiceGeneration = "school_invoice_generation"
	TaskReconciliationRun       = "reconciliation_run"
)

// Task is one unit of background work on the queue.
type Task struct {
	Type       string    `json:"type"`
	SchoolID   string    `json:"schoolID,omitempty"`
	RunID      string    `json:"runID,omitempty"`
	AsOf       time.Time `json:"asOf,omitempty"`
	ActorID    string    `json:"actorID,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// RedisDispatcher implements platform.TaskDispatcher on a Redis list.
// Delivery is at-least-once; handlers are idempotent.
type RedisDispatcher struct {
	client *redis.Client
}

// NewRedisDispatcher creates a RedisDispatcher backed by the given client.
func NewRedisDispatcher(client *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{client: client}
}

var _ portsplatform.TaskDispatcher = (*RedisDispatcher)(nil)

func (d *RedisDispatcher) push(ctx context.Context, task Task) error {
	task.EnqueuedAt = time.Now().UTC()
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return d.client.LPush(ctx, queueKey, raw).Err()
}

// EnqueueSchoolInvoiceGeneration queues a school-wide billing cycle.
func (d *RedisDispatcher) EnqueueSchoolInvoiceGeneration(ctx context.Context, schoolID string, asOf time.Time, actorID string) error {
	return d.push(ctx, Task{
		Type:     TaskSchoolInvoiceGeneration,
		SchoolID: schoolID,
		AsOf:     asOf,
		ActorID:  actorID,
	})
}

// EnqueueReconciliationRun queues execution of a created run.
func (d *RedisDispatcher) EnqueueReconciliationRun(ctx context.Context, runID string) error {
	return d.push(ctx, Task{
		Type:  TaskReconciliationRun,
		RunID: runID,
	})
}
