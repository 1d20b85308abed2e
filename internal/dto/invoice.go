package dto

import (
	"time"

	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest defines the optional inputs for invoice generation.
type GenerateInvoiceRequest struct {
	AsOf *time.Time `json:"asOf"` // defaults to now when omitted
}

// InvoiceItemResponse defines the data returned for an invoice item snapshot.
type InvoiceItemResponse struct {
	ItemID      string          `json:"itemID"`
	InvoiceID   string          `json:"invoiceID"`
	ChargeID    string          `json:"chargeID"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ChargeType  string          `json:"chargeType"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID   string                `json:"invoiceID"`
	SchoolID    string                `json:"schoolID"`
	StudentID   string                `json:"studentID"`
	Period      string                `json:"period"`
	IssuedAt    time.Time             `json:"issuedAt"`
	DueDate     time.Time             `json:"dueDate"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
	Status      string                `json:"status"`
	Items       []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// ToInvoiceItemResponse converts a domain.InvoiceItem to its DTO.
func ToInvoiceItemResponse(item *domain.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ItemID:      item.ItemID,
		InvoiceID:   item.InvoiceID,
		ChargeID:    item.ChargeID,
		Description: item.Description,
		Amount:      item.Amount,
		ChargeType:  string(item.ChargeType),
	}
}

// ToInvoiceResponse converts a domain.Invoice (items included when loaded) to its DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		InvoiceID:   inv.InvoiceID,
		SchoolID:    inv.SchoolID,
		StudentID:   inv.StudentID,
		Period:      inv.Period,
		IssuedAt:    inv.IssuedAt,
		DueDate:     inv.DueDate,
		TotalAmount: inv.TotalAmount,
		Status:      string(inv.Status),
		CreatedAt:   inv.CreatedAt,
	}
	if len(inv.Items) > 0 {
		resp.Items = make([]InvoiceItemResponse, len(inv.Items))
		for i := range inv.Items {
			resp.Items[i] = ToInvoiceItemResponse(&inv.Items[i])
		}
	}
	return resp
}

// ToInvoiceResponses converts a slice of domain.Invoice to []InvoiceResponse.
func ToInvoiceResponses(invoices []domain.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

// ListParams holds simple limit/offset pagination inputs.
type ListParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
