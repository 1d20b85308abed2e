package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus indicates the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "open"
	InvoiceStatusClosed InvoiceStatus = "closed"
)

// Invoice is the persisted form of a billing invoice.
type Invoice struct {
	InvoiceID   string          `json:"invoiceID"`
	SchoolID    string          `json:"schoolID"`
	StudentID   string          `json:"studentID"`
	Period      string          `json:"period"`
	IssuedAt    time.Time       `json:"issuedAt"`
	DueDate     time.Time       `json:"dueDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      InvoiceStatus   `json:"status"`
	AuditFields
}

// InvoiceItem is the persisted snapshot of a charge on an invoice.
type InvoiceItem struct {
	ItemID      string          `json:"itemID"`
	InvoiceID   string          `json:"invoiceID"`
	ChargeID    string          `json:"chargeID"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ChargeType  ChargeType      `json:"chargeType"`
	CreatedAt   time.Time       `json:"createdAt"`
}
