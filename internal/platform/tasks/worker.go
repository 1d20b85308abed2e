package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/middleware"
)

const popTimeout = 5 * time.Second

// Worker consumes the task queue and drives the billing and reconciliation
// handlers. Handlers are idempotent, so a redelivered task is harmless.
type Worker struct {
	client   *redis.Client
	services *portssvc.ServiceContainer
	logger   *slog.Logger
	count    int
}

// NewWorker creates a worker pool of the given size.
func NewWorker(client *redis.Client, services *portssvc.ServiceContainer, logger *slog.Logger, count int) *Worker {
	if count <= 0 {
		count = 1
	}
	return &Worker{
		client:   client,
		services: services,
		logger:   logger,
		count:    count,
	}
}

// Run blocks consuming tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, workerID int) {
	logger := w.logger.With(slog.Int("worker_id", workerID))
	for {
		if ctx.Err() != nil {
			return
		}
		values, err := w.client.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			logger.Error("task queue pop failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(values) < 2 {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(values[1]), &task); err != nil {
			logger.Error("discarding malformed task", slog.String("error", err.Error()))
			continue
		}
		w.handle(ctx, logger, task)
	}
}

func (w *Worker) handle(ctx context.Context, logger *slog.Logger, task Task) {
	taskLogger := logger.With(slog.String("task_type", task.Type))
	taskCtx := middleware.ContextWithLogger(ctx, taskLogger)

	switch task.Type {
	case TaskSchoolInvoiceGeneration:
		summary, err := w.services.Invoice.GenerateForSchool(taskCtx, task.SchoolID, task.AsOf, task.ActorID)
		if err != nil {
			taskLogger.Error("school invoice generation task failed",
				slog.String("school_id", task.SchoolID),
				slog.String("error", err.Error()))
			return
		}
		taskLogger.Info("school invoice generation task done",
			slog.String("school_id", task.SchoolID),
			slog.Int("generated", summary.GeneratedStudents),
			slog.Int("skipped", summary.SkippedStudents),
			slog.Int("failed", summary.FailedStudents))
	case TaskReconciliationRun:
		if err := w.services.Reconciliation.ExecuteRun(taskCtx, task.RunID); err != nil {
			taskLogger.Error("reconciliation task failed",
				slog.String("run_id", task.RunID),
				slog.String("error", err.Error()))
		}
	default:
		taskLogger.Warn("unknown task type, discarding")
	}
}
