package dto

import (
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the data needed to record and allocate a payment.
type CreatePaymentRequest struct {
	StudentID string          `json:"studentID" binding:"required"`
	InvoiceID string          `json:"invoiceID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	PaidAt    time.Time       `json:"paidAt" binding:"required"`
	Method    string          `json:"method" binding:"required"`
}

// RecordOverdueFundsRequest defines money arriving for an overdue invoice.
// It is recorded as a carry credit instead of being allocated.
type RecordOverdueFundsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	PaidAt time.Time       `json:"paidAt" binding:"required"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID string          `json:"paymentID"`
	SchoolID  string          `json:"schoolID"`
	StudentID string          `json:"studentID"`
	InvoiceID string          `json:"invoiceID"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AllocationResultResponse reports how a payment settled against an invoice.
type AllocationResultResponse struct {
	InvoiceClosed          bool             `json:"invoiceClosed"`
	ChargesPaid            []string         `json:"chargesPaid"`
	ChargesRemainingUnpaid []string         `json:"chargesRemainingUnpaid"`
	CreditCreated          *decimal.Decimal `json:"creditCreated,omitempty"`
}

// CreatePaymentResponse combines the stored payment and its allocation outcome.
type CreatePaymentResponse struct {
	Payment    PaymentResponse          `json:"payment"`
	Allocation AllocationResultResponse `json:"allocation"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID: p.PaymentID,
		SchoolID:  p.SchoolID,
		StudentID: p.StudentID,
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		PaidAt:    p.PaidAt,
		Method:    p.Method,
		CreatedAt: p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}

// ToAllocationResultResponse converts a domain.AllocationResult to its DTO.
func ToAllocationResultResponse(r *domain.AllocationResult) AllocationResultResponse {
	return AllocationResultResponse{
		InvoiceClosed:          r.InvoiceClosed,
		ChargesPaid:            r.ChargesPaid,
		ChargesRemainingUnpaid: r.ChargesRemainingUnpaid,
		CreditCreated:          r.CreditCreated,
	}
}
