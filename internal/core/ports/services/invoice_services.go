package services

import (
	"context"
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoice data
type InvoiceReaderSvc interface {
	// GetInvoiceByID retrieves a specific invoice with its item snapshot.
	GetInvoiceByID(ctx context.Context, schoolID string, invoiceID string) (*domain.Invoice, error)

	// ListInvoicesByStudent retrieves a paginated list of a student's invoices.
	ListInvoicesByStudent(ctx context.Context, schoolID string, studentID string, params dto.ListParams) ([]domain.Invoice, error)
}

// InvoiceGeneratorSvc defines the billing-cycle operations.
type InvoiceGeneratorSvc interface {
	// Generate accrues interest on the student's overdue debts, closes any
	// open invoice, and issues a new invoice over all unpaid charges.
	Generate(ctx context.Context, schoolID string, studentID string, asOf time.Time, actorID string) (*domain.Invoice, error)

	// GenerateForSchool runs Generate for every student in the school,
	// isolating per-student failures into the returned summary.
	GenerateForSchool(ctx context.Context, schoolID string, asOf time.Time, actorID string) (*domain.SchoolGenerationSummary, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceGeneratorSvc
}
