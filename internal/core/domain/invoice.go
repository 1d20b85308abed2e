package domain

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

// Invoice aggregates a student's outstanding charges at a point in time.
// At most one open invoice exists per (school, student); generation closes
// the previous one and opens the next. A closed invoice is never reopened.
type Invoice struct {
	InvoiceID   string          `json:"invoiceID"`
	SchoolID    string          `json:"schoolID"`
	StudentID   string          `json:"studentID"`
	Period      string          `json:"period"` // YYYY-MM label
	IssuedAt    time.Time       `json:"issuedAt"`
	DueDate     time.Time       `json:"dueDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // sum of item amounts, may be negative
	Status      InvoiceStatus   `json:"status"`
	Items       []InvoiceItem   `json:"items,omitempty"` // often loaded separately
	AuditFields
}

// InvoiceItem is an immutable snapshot of a charge at issuance. It keeps
// the invoice stable even if the source charge is later cancelled.
type InvoiceItem struct {
	ItemID      string          `json:"itemID"`
	InvoiceID   string          `json:"invoiceID"`
	ChargeID    string          `json:"chargeID"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ChargeType  ChargeType      `json:"chargeType"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsOverdue reports whether the invoice's due date has passed as of the
// given instant. Overdue invoices are blocked from normal allocation.
func (i Invoice) IsOverdue(asOf time.Time) bool {
	dueUTC := i.DueDate.UTC()
	asOfUTC := asOf.UTC()
	due := time.Date(dueUTC.Year(), dueUTC.Month(), dueUTC.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(asOfUTC.Year(), asOfUTC.Month(), asOfUTC.Day(), 0, 0, 0, 0, time.UTC)
	return day.After(due)
}
