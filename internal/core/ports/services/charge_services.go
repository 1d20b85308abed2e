package services

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/dto"
)

// ChargeReaderSvc defines read operations for charge data
type ChargeReaderSvc interface {
	// GetChargeByID retrieves a specific charge.
	GetChargeByID(ctx context.Context, schoolID string, chargeID string) (*domain.Charge, error)

	// ListUnpaidCharges retrieves a student's unpaid charges.
	ListUnpaidCharges(ctx context.Context, schoolID string, studentID string) ([]domain.Charge, error)

	// GetStudentBalance computes the student's financial snapshot.
	GetStudentBalance(ctx context.Context, schoolID string, studentID string) (*domain.BalanceSummary, error)
}

// ChargeWriterSvc defines write operations for charge data
type ChargeWriterSvc interface {
	// CreateCharge records a manual charge against a student.
	CreateCharge(ctx context.Context, schoolID string, req dto.CreateChargeRequest, actorID string) (*domain.Charge, error)

	// CancelCharge marks an unbilled, unpaid charge as cancelled.
	CancelCharge(ctx context.Context, schoolID string, chargeID string, actorID string) error
}

// ChargeSvcFacade combines all charge-related service interfaces
type ChargeSvcFacade interface {
	ChargeReaderSvc
	ChargeWriterSvc
}
