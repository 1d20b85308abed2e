package models

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

// Charge is the persisted form of a ledger charge.
type Charge struct {
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
	ChargeType     ChargeType      `json:"chargeType"`
	Status         ChargeStatus    `json:"status"`
	AuditFields
}
