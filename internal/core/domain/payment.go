package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is money received against an invoice. Immutable once created.
type Payment struct {
	PaymentID string          `json:"paymentID"`
	SchoolID  string          `json:"schoolID"`
	StudentID string          `json:"studentID"`
	InvoiceID string          `json:"invoiceID"`
	Amount    decimal.Decimal `json:"amount"` // always positive
	PaidAt    time.Time       `json:"paidAt"`
	Method    string          `json:"method"`
	AuditFields
}

// AllocationResult reports the outcome of settling a payment against an
// open invoice. The invoice is closed on every allocation attempt; any
// unconsumed remainder becomes a carry credit for the next generation.
type AllocationResult struct {
	InvoiceClosed          bool             `json:"invoiceClosed"`
	ChargesPaid            []string         `json:"chargesPaid"`
	ChargesRemainingUnpaid []string         `json:"chargesRemainingUnpaid"`
	CreditCreated          *decimal.Decimal `json:"creditCreated,omitempty"`
}
