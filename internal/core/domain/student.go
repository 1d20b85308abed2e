package domain

import "github.com/shopspring/decimal"

// Student is the billing subject. Enrollment and identity live upstream;
// the engine only needs the reference for per-student ledger operations.
type Student struct {
	StudentID  string `json:"studentID"`
	SchoolID   string `json:"schoolID"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ExternalID string `json:"externalID,omitempty"`
	AuditFields
}

// BalanceSummary is the per-student financial snapshot exposed to the
// HTTP layer. All figures exclude cancelled charges.
type BalanceSummary struct {
	TotalCharged      decimal.Decimal `json:"totalCharged"`      // positive, non-cancelled charges
	TotalPaid         decimal.Decimal `json:"totalPaid"`         // all payments received
	TotalUnpaid       decimal.Decimal `json:"totalUnpaid"`       // net of unpaid debt and credits
	TotalUnpaidDebt   decimal.Decimal `json:"totalUnpaidDebt"`   // unpaid positive charges
	TotalUnpaidCredit decimal.Decimal `json:"totalUnpaidCredit"` // absolute value of unpaid credits
}
