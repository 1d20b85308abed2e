package repositories

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
)

// ReconciliationReader defines read operations for audit runs and findings
type ReconciliationReader interface {
	// FindRunByID retrieves a reconciliation run.
	FindRunByID(ctx context.Context, runID string) (*domain.ReconciliationRun, error)

	// ListRunsBySchool retrieves a school's runs, newest first.
	ListRunsBySchool(ctx context.Context, schoolID string, limit, offset int) ([]domain.ReconciliationRun, error)

	// FindFindingsByRunID retrieves the findings of a run.
	FindFindingsByRunID(ctx context.Context, runID string) ([]domain.ReconciliationFinding, error)
}

// ReconciliationWriter defines write operations for audit runs and findings.
// Runs and findings are append-only: findings are inserted once and never
// updated; run rows only advance status/summary.
type ReconciliationWriter interface {
	// SaveRun persists a new run row.
	SaveRun(ctx context.Context, run domain.ReconciliationRun) error

	// UpdateRun advances a run's status, finish time and summary.
	UpdateRun(ctx context.Context, run domain.ReconciliationRun) error

	// SaveFindings appends findings for a run.
	SaveFindings(ctx context.Context, findings []domain.ReconciliationFinding) error
}

// ReconciliationRepositoryFacade combines the audit repository interfaces
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
