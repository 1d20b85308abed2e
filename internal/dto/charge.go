package dto

import (
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateChargeRequest defines the data needed to record a manual charge.
type CreateChargeRequest struct {
	StudentID   string            `json:"studentID" binding:"required"`
	Description string            `json:"description" binding:"required"`
	Amount      decimal.Decimal   `json:"amount" binding:"required"`
	Period      string            `json:"period" binding:"required"`
	DueDate     time.Time         `json:"dueDate" binding:"required"`
	ChargeType  domain.ChargeType `json:"chargeType" binding:"required,oneof=fee interest penalty"`
}

// ChargeResponse defines the data returned for a charge.
type ChargeResponse struct {
	ChargeID       string          `json:"chargeID"`
	SchoolID       string          `json:"schoolID"`
	StudentID      string          `json:"studentID"`
	InvoiceID      *string         `json:"invoiceID,omitempty"`
	OriginChargeID *string         `json:"originChargeID,omitempty"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
	DebtCreatedAt  time.Time       `json:"debtCreatedAt"`
	DueDate        time.Time       `json:"dueDate"`
	ChargeType     string          `json:"chargeType"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToChargeResponse converts a domain.Charge to ChargeResponse DTO.
func ToChargeResponse(c *domain.Charge) ChargeResponse {
	return ChargeResponse{
		ChargeID:       c.ChargeID,
		SchoolID:       c.SchoolID,
		StudentID:      c.StudentID,
		InvoiceID:      c.InvoiceID,
		OriginChargeID: c.OriginChargeID,
		Description:    c.Description,
		Amount:         c.Amount,
		Period:         c.Period,
		DebtCreatedAt:  c.DebtCreatedAt,
		DueDate:        c.DueDate,
		ChargeType:     string(c.ChargeType),
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
	}
}

// ToChargeResponses converts a slice of domain.Charge to []ChargeResponse.
func ToChargeResponses(charges []domain.Charge) []ChargeResponse {
	responses := make([]ChargeResponse, len(charges))
	for i := range charges {
		responses[i] = ToChargeResponse(&charges[i])
	}
	return responses
}

// BalanceSummaryResponse defines the per-student financial snapshot.
type BalanceSummaryResponse struct {
	TotalCharged      decimal.Decimal `json:"totalCharged"`
	TotalPaid         decimal.Decimal `json:"totalPaid"`
	TotalUnpaid       decimal.Decimal `json:"totalUnpaid"`
	TotalUnpaidDebt   decimal.Decimal `json:"totalUnpaidDebt"`
	TotalUnpaidCredit decimal.Decimal `json:"totalUnpaidCredit"`
}

// ToBalanceSummaryResponse converts a domain.BalanceSummary to its DTO.
func ToBalanceSummaryResponse(b *domain.BalanceSummary) BalanceSummaryResponse {
	return BalanceSummaryResponse{
		TotalCharged:      b.TotalCharged,
		TotalPaid:         b.TotalPaid,
		TotalUnpaid:       b.TotalUnpaid,
		TotalUnpaidDebt:   b.TotalUnpaidDebt,
		TotalUnpaidCredit: b.TotalUnpaidCredit,
	}
}
