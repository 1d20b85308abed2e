package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the persisted form of money received against an invoice.
type Payment struct {
	PaymentID string          `json:"paymentID"`
	SchoolID  string          `json:"schoolID"`
	StudentID string          `json:"studentID"`
	InvoiceID string          `json:"invoiceID"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
	Method    string          `json:"method"`
	AuditFields
}
