package services

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/dto"
)

// ReconciliationReaderSvc defines read operations for audit runs
type ReconciliationReaderSvc interface {
	// GetRunWithFindings retrieves a run together with its findings.
	GetRunWithFindings(ctx context.Context, schoolID string, runID string) (*domain.ReconciliationRun, []domain.ReconciliationFinding, error)

	// ListRuns retrieves a paginated list of a school's runs, newest first.
	ListRuns(ctx context.Context, schoolID string, params dto.ListParams) ([]domain.ReconciliationRun, error)
}

// ReconciliationRunnerSvc defines operations that execute audit runs
type ReconciliationRunnerSvc interface {
	// StartRun creates a queued run and dispatches it for execution.
	StartRun(ctx context.Context, schoolID string, triggeredBy string) (*domain.ReconciliationRun, error)

	// ExecuteRun performs every consistency check for a queued run and
	// records its findings and summary.
	ExecuteRun(ctx context.Context, runID string) error
}

// ReconciliationSvcFacade combines all reconciliation service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationReaderSvc
	ReconciliationRunnerSvc
}
