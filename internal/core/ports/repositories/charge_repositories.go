package repositories

import (
	"context"
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
)

// ChargeReader defines read operations for charge data
type ChargeReader interface {
	// FindChargeByID retrieves a charge scoped to a school.
	FindChargeByID(ctx context.Context, schoolID, chargeID string) (*domain.Charge, error)

	// FindUnpaidChargesByStudent retrieves every unpaid, non-cancelled charge
	// for a student, credits included.
	FindUnpaidChargesByStudent(ctx context.Context, schoolID, studentID string) ([]domain.Charge, error)

	// FindInterestChargesByOrigins retrieves non-cancelled interest charges
	// grouped by their origin (fee) charge ID.
	FindInterestChargesByOrigins(ctx context.Context, schoolID, studentID string, originChargeIDs []string) (map[string][]domain.Charge, error)

	// FindChargesByInvoiceID retrieves the non-cancelled charges billed on an invoice.
	FindChargesByInvoiceID(ctx context.Context, schoolID, invoiceID string) ([]domain.Charge, error)

	// ListChargesBySchool retrieves all non-deleted charges of a school,
	// cancelled included. Used by reconciliation.
	ListChargesBySchool(ctx context.Context, schoolID string) ([]domain.Charge, error)

	// GetStudentChargeTotals aggregates a student's charge figures.
	GetStudentChargeTotals(ctx context.Context, schoolID, studentID string) (domain.ChargeTotals, error)
}

// ChargeWriter defines write operations for charge data
type ChargeWriter interface {
	// SaveCharge persists a new charge.
	SaveCharge(ctx context.Context, charge domain.Charge) error

	// UpdateChargeStatus transitions a charge's status; amounts are immutable.
	UpdateChargeStatus(ctx context.Context, schoolID, chargeID string, status domain.ChargeStatus, updatedBy string, updatedAt time.Time) error
}

// ChargeRepositoryFacade combines all charge-related repository interfaces
type ChargeRepositoryFacade interface {
	ChargeReader
	ChargeWriter
}
