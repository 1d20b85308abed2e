package repositories

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvoiceReader defines read operations for invoice data
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice scoped to a school.
	FindInvoiceByID(ctx context.Context, schoolID, invoiceID string) (*domain.Invoice, error)

	// FindOpenInvoiceByStudent retrieves the student's open invoice, or
	// apperrors.ErrNotFound when none exists.
	FindOpenInvoiceByStudent(ctx context.Context, schoolID, studentID string) (*domain.Invoice, error)

	// FindItemsByInvoiceID retrieves the item snapshots of an invoice.
	FindItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error)

	// ListInvoicesByStudent retrieves a student's invoices, newest first.
	ListInvoicesByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Invoice, error)

	// ListInvoicesBySchool retrieves all invoices of a school. Used by reconciliation.
	ListInvoicesBySchool(ctx context.Context, schoolID string) ([]domain.Invoice, error)

	// SumItemsBySchool aggregates item amounts per invoice across a school.
	SumItemsBySchool(ctx context.Context, schoolID string) (map[string]decimal.Decimal, error)

	// ListItemsBySchool retrieves all invoice items of a school. Used by reconciliation.
	ListItemsBySchool(ctx context.Context, schoolID string) ([]domain.InvoiceItem, error)
}

// InvoiceWriter defines write operations for invoice data
type InvoiceWriter interface {
	// SaveInvoiceRollover persists one generation pass within a single
	// database transaction: invoice and items are written atomically.
	SaveInvoiceRollover(ctx context.Context, rollover domain.InvoiceRollover) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
