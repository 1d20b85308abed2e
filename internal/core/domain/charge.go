package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeType classifies a charge line.
type ChargeType string

const (
	ChargeTypeFee      ChargeType = "fee"
	ChargeTypeInterest ChargeType = "interest"
	ChargeTypePenalty  ChargeType = "penalty"
)

// ChargeStatus indicates the settlement state of a charge.
type ChargeStatus string

const (
	ChargeStatusUnpaid    ChargeStatus = "unpaid"
	ChargeStatusPaid      ChargeStatus = "paid"
	ChargeStatusCancelled ChargeStatus = "cancelled"
)

// Charge is a single debt or credit line on a student ledger.
// A positive amount is debt owed by the student; a negative amount is a
// carry credit owed back to the student. Cancelled charges are excluded
// from every balance computation. The amount is never mutated after
// creation; only the status transitions (unpaid -> paid/cancelled).
type Charge struct {
	ChargeID       string          `json:"chargeID"`
	SchoolID       string          `json:"schoolID"`
	StudentID      string          `json:"studentID"`
	InvoiceID      *string         `json:"invoiceID,omitempty"`      // set once the charge is billed on an invoice
	OriginChargeID *string         `json:"originChargeID,omitempty"` // interest charges only: the fee charge that accrued it
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"` // YYYY-MM label
	DebtCreatedAt  time.Time       `json:"debtCreatedAt"`
	DueDate        time.Time       `json:"dueDate"`
	ChargeType     ChargeType      `json:"chargeType"`
	Status         ChargeStatus    `json:"status"`
	AuditFields
}

// IsDebt reports whether the charge represents money owed by the student.
func (c Charge) IsDebt() bool {
	return c.Amount.IsPositive()
}

// IsCredit reports whether the charge is a carry credit.
func (c Charge) IsCredit() bool {
	return c.Amount.IsNegative()
}
