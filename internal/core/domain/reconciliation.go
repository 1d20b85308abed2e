package domain

import "time"

// ReconciliationRunStatus indicates the state of an audit run.
type ReconciliationRunStatus string

const (
	RunStatusQueued    ReconciliationRunStatus = "queued"
	RunStatusRunning   ReconciliationRunStatus = "running"
	RunStatusCompleted ReconciliationRunStatus = "completed"
	RunStatusFailed    ReconciliationRunStatus = "failed"
)

// CheckCode identifies one reconciliation check.
type CheckCode string

const (
	CheckInvoiceTotalMismatch      CheckCode = "invoice_total_mismatch"
	CheckInterestInvalidOrigin     CheckCode = "interest_invalid_origin"
	CheckInvoiceOpenSufficientPaid CheckCode = "invoice_open_with_sufficient_payments"
	CheckDuplicatePaymentWindow    CheckCode = "duplicate_payment_window"
	CheckOrphanUnpaidCharge        CheckCode = "orphan_unpaid_charge"
	CheckUnappliedNegativeCharge   CheckCode = "unapplied_negative_charge"
	CheckSchoolBalanceEquation     CheckCode = "school_balance_equation_mismatch"
	CheckCancelledChargeNoResidual CheckCode = "invoice_item_cancelled_charge_no_residual"
)

// FindingSeverity grades a reconciliation finding.
type FindingSeverity string

const (
	SeverityHigh   FindingSeverity = "high"
	SeverityMedium FindingSeverity = "medium"
)

// ReconciliationRun is one audit pass over a school's ledger.
// Runs and findings form an append-only trail; they are never mutated
// after completion and never touch billing entities.
type ReconciliationRun struct {
	RunID       string                  `json:"runID"`
	SchoolID    string                  `json:"schoolID"`
	TriggeredBy string                  `json:"triggeredBy,omitempty"`
	Status      ReconciliationRunStatus `json:"status"`
	StartedAt   time.Time               `json:"startedAt"`
	FinishedAt  *time.Time              `json:"finishedAt,omitempty"`
	Summary     RunSummary              `json:"summary"`
	AuditFields
}

// RunSummary tallies the findings of a completed run.
type RunSummary struct {
	FindingsTotal int                     `json:"findingsTotal"`
	ByCheck       map[CheckCode]int       `json:"byCheck,omitempty"`
	BySeverity    map[FindingSeverity]int `json:"bySeverity,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// ReconciliationFinding records one detected inconsistency. Findings are
// data, not errors; anomalies elsewhere never stop them being written.
type ReconciliationFinding struct {
	FindingID  string            `json:"findingID"`
	RunID      string            `json:"runID"`
	SchoolID   string            `json:"schoolID"`
	CheckCode  CheckCode         `json:"checkCode"`
	Severity   FindingSeverity   `json:"severity"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
