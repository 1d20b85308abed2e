package domain

import "github.com/shopspring/decimal"

// InvoiceRollover is the atomic write unit of one generation pass:
// freshly accrued interest charges, closure of any prior open invoice,
// the new invoice with its item snapshots, and the linking of each
// billed charge to the new invoice. Invoice and items must be written
// together or not at all.
type InvoiceRollover struct {
	NewInterestCharges []Charge
	CloseInvoiceIDs    []string
	Invoice            Invoice
	Items              []InvoiceItem
	BilledChargeIDs    []string
}

// PaymentAllocation is the atomic write unit of one allocation pass:
// the payment row, the charges flipped to paid, the optional carry
// credit, and the unconditional invoice closure.
type PaymentAllocation struct {
	Payment        Payment
	PaidChargeIDs  []string
	CreditCharge   *Charge
	CloseInvoiceID string
}

// SchoolGenerationSummary reports a school-wide generation sweep.
// Per-student failures are isolated; one bad ledger never aborts the rest.
type SchoolGenerationSummary struct {
	SchoolID          string            `json:"schoolID"`
	ProcessedStudents int               `json:"processedStudents"`
	GeneratedStudents int               `json:"generatedStudents"`
	SkippedStudents   int               `json:"skippedStudents"`
	FailedStudents    int               `json:"failedStudents"`
	Errors            []GenerationError `json:"errors,omitempty"`
}

// GenerationError records why one student was skipped or failed.
type GenerationError struct {
	StudentID string `json:"studentID"`
	Error     string `json:"error"`
	Kind      string `json:"kind"` // "skipped" or "failed"
}

// ChargeTotals are the per-student aggregates over non-cancelled charges.
type ChargeTotals struct {
	Charged      decimal.Decimal
	UnpaidNet    decimal.Decimal
	UnpaidDebt   decimal.Decimal
	UnpaidCredit decimal.Decimal // non-negative magnitude
}
