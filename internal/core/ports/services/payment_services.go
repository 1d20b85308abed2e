package services

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/dto"
)

// PaymentReaderSvc defines read operations for payment data
type PaymentReaderSvc interface {
	// ListPaymentsByStudent retrieves a paginated list of a student's payments.
	ListPaymentsByStudent(ctx context.Context, schoolID string, studentID string, params dto.ListParams) ([]domain.Payment, error)
}

// PaymentWriterSvc defines write operations for payment data
type PaymentWriterSvc interface {
	// CreatePayment records a payment against an open invoice and allocates
	// it across the invoice's charges.
	CreatePayment(ctx context.Context, schoolID string, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, *domain.AllocationResult, error)

	// RecordOverdueFunds records money received for an overdue invoice as a
	// carry credit instead of allocating it.
	RecordOverdueFunds(ctx context.Context, schoolID string, invoiceID string, req dto.RecordOverdueFundsRequest, actorID string) (*domain.Charge, error)
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
