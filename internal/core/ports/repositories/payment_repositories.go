package repositories

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// ListPaymentsByStudent retrieves a student's payments, newest first.
	ListPaymentsByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Payment, error)

	// ListPaymentsBySchool retrieves all payments of a school. Used by reconciliation.
	ListPaymentsBySchool(ctx context.Context, schoolID string) ([]domain.Payment, error)

	// SumPaymentsByStudent totals a student's payments.
	SumPaymentsByStudent(ctx context.Context, schoolID, studentID string) (decimal.Decimal, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// SavePaymentAllocation persists one allocation pass within a single
	// database transaction: payment, charge settlements, optional carry
	// credit and invoice closure happen together or not at all.
	SavePaymentAllocation(ctx context.Context, alloc domain.PaymentAllocation) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
