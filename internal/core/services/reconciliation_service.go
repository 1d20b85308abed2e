package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

// reconciliationService audits a school's ledger. It never mutates billing
// entities; it only appends run and finding rows.
type reconciliationService struct {
	chargeRepo  portsrepo.ChargeRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	paymentRepo portsrepo.PaymentRepositoryFacade
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	dispatcher  portsplatform.TaskDispatcher
	dupWindow   time.Duration
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	dispatcher portsplatform.TaskDispatcher,
	dupWindow time.Duration,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		chargeRepo:  chargeRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		reconRepo:   reconRepo,
		dispatcher:  dispatcher,
		dupWindow:   dupWindow,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// StartRun creates a queued run and hands it to the worker pool.
// Implements portssvc.ReconciliationRunnerSvc.
func (s *reconciliationService) StartRun(ctx context.Context, schoolID string, triggeredBy string) (*domain.ReconciliationRun, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	run := domain.ReconciliationRun{
		RunID:       uuid.NewString(),
		SchoolID:    schoolID,
		TriggeredBy: triggeredBy,
		Status:      domain.RunStatusQueued,
		StartedAt:   now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     triggeredBy,
			LastUpdatedAt: now,
			LastUpdatedBy: triggeredBy,
		},
	}
	if err := s.reconRepo.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("persisting reconciliation run: %w", err)
	}
	if err := s.dispatcher.EnqueueReconciliationRun(ctx, run.RunID); err != nil {
		return nil, fmt.Errorf("dispatching reconciliation run: %w", err)
	}

	logger.Info("reconciliation run queued",
		slog.String("school_id", schoolID),
		slog.String("run_id", run.RunID))
	return &run, nil
}

// ExecuteRun performs every check for a queued run. Redelivered tasks are
// absorbed: a run already past queued is left alone. A failing check marks
// the run failed with the error on its summary; findings themselves are
// data and never fail the run.
// Implements portssvc.ReconciliationRunnerSvc.
func (s *reconciliationService) ExecuteRun(ctx context.Context, runID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	run, err := s.reconRepo.FindRunByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != domain.RunStatusQueued {
		logger.Info("reconciliation run already picked up, skipping",
			slog.String("run_id", runID),
			slog.String("status", string(run.Status)))
		return nil
	}

	startedAt := time.Now().UTC()
	run.Status = domain.RunStatusRunning
	run.StartedAt = startedAt
	run.LastUpdatedAt = startedAt
	if err := s.reconRepo.UpdateRun(ctx, *run); err != nil {
		return fmt.Errorf("marking run running: %w", err)
	}

	findings, err := s.runChecks(ctx, run.SchoolID, run.RunID, startedAt)
	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt
	run.LastUpdatedAt = finishedAt
	if err != nil {
		s.failRun(ctx, logger, run, err)
		return fmt.Errorf("reconciliation checks: %w", err)
	}

	// A run stuck in running is never retried; persistence failures past this
	// point must land it in failed.
	if len(findings) > 0 {
		if err := s.reconRepo.SaveFindings(ctx, findings); err != nil {
			s.failRun(ctx, logger, run, err)
			return fmt.Errorf("persisting findings: %w", err)
		}
	}

	run.Status = domain.RunStatusCompleted
	run.Summary = buildRunSummary(findings)
	if err := s.reconRepo.UpdateRun(ctx, *run); err != nil {
		s.failRun(ctx, logger, run, err)
		return fmt.Errorf("marking run completed: %w", err)
	}

	logger.Info("reconciliation run completed",
		slog.String("school_id", run.SchoolID),
		slog.String("run_id", runID),
		slog.Int("findings_total", run.Summary.FindingsTotal))
	return nil
}

func (s *reconciliationService) failRun(ctx context.Context, logger *slog.Logger, run *domain.ReconciliationRun, cause error) {
	run.Status = domain.RunStatusFailed
	run.Summary = domain.RunSummary{Error: cause.Error()}
	if err := s.reconRepo.UpdateRun(ctx, *run); err != nil {
		logger.Error("failed to mark reconciliation run failed",
			slog.String("run_id", run.RunID),
			slog.String("error", err.Error()))
	}
}

func buildRunSummary(findings []domain.ReconciliationFinding) domain.RunSummary {
	summary := domain.RunSummary{FindingsTotal: len(findings)}
	if len(findings) == 0 {
		return summary
	}
	summary.ByCheck = make(map[domain.CheckCode]int)
	summary.BySeverity = make(map[domain.FindingSeverity]int)
	for _, finding := range findings {
		summary.ByCheck[finding.CheckCode]++
		summary.BySeverity[finding.Severity]++
	}
	return summary
}

// ledgerState is one best-effort load of the school's ledger. Checks do not
// assume a single consistent snapshot; findings are re-runnable.
type ledgerState struct {
	charges    []domain.Charge
	invoices   []domain.Invoice
	items      []domain.InvoiceItem
	payments   []domain.Payment
	itemTotals map[string]decimal.Decimal
}

func (s *reconciliationService) loadLedger(ctx context.Context, schoolID string) (*ledgerState, error) {
	charges, err := s.chargeRepo.ListChargesBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("listing charges: %w", err)
	}
	invoices, err := s.invoiceRepo.ListInvoicesBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	items, err := s.invoiceRepo.ListItemsBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}
	payments, err := s.paymentRepo.ListPaymentsBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	itemTotals, err := s.invoiceRepo.SumItemsBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("summing invoice items: %w", err)
	}
	return &ledgerState{
		charges:    charges,
		invoices:   invoices,
		items:      items,
		payments:   payments,
		itemTotals: itemTotals,
	}, nil
}

func (s *reconciliationService) runChecks(ctx context.Context, schoolID, runID string, asOf time.Time) ([]domain.ReconciliationFinding, error) {
	ledger, err := s.loadLedger(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	var findings []domain.ReconciliationFinding
	findings = append(findings, checkInvoiceTotals(ledger)...)
	findings = append(findings, checkOrphanUnpaidCharges(ledger, asOf)...)
	findings = append(findings, checkCancelledChargeResiduals(ledger)...)
	findings = append(findings, checkInterestOrigins(ledger)...)
	findings = append(findings, checkOpenInvoicesWithSufficientPayments(ledger)...)
	findings = append(findings, checkUnappliedNegativeCharges(ledger)...)
	findings = append(findings, checkDuplicatePayments(ledger, s.dupWindow)...)
	findings = append(findings, checkSchoolBalanceEquation(ledger, schoolID)...)

	now := time.Now().UTC()
	for i := range findings {
		findings[i].FindingID = uuid.NewString()
		findings[i].RunID = runID
		findings[i].SchoolID = schoolID
		findings[i].CreatedAt = now
	}
	return findings, nil
}

// checkInvoiceTotals flags invoices whose stored total disagrees with the
// sum of their item snapshots.
func checkInvoiceTotals(ledger *ledgerState) []domain.ReconciliationFinding {
	var findings []domain.ReconciliationFinding
	for _, invoice := range sortedInvoices(ledger.invoices) {
		itemsTotal := ledger.itemTotals[invoice.InvoiceID]
		if invoice.TotalAmount.Equal(itemsTotal) {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckInvoiceTotalMismatch,
			Severity:   domain.SeverityHigh,
			EntityType: "invoice",
			EntityID:   invoice.InvoiceID,
			Message:    "Invoice total does not match sum of invoice items",
			Details: map[string]string{
				"invoice_total": invoice.TotalAmount.String(),
				"items_total":   itemsTotal.String(),
			},
		})
	}
	return findings
}

// checkOrphanUnpaidCharges flags due, unpaid charges living outside any
// invoice while the student holds an open, not-yet-due invoice. The guard
// suppresses the legitimate window between allocation and the next
// generation, where carry credits sit unlinked.
func checkOrphanUnpaidCharges(ledger *ledgerState, asOf time.Time) []domain.ReconciliationFinding {
	hasOpenNotDue := make(map[string]bool)
	for _, invoice := range ledger.invoices {
		if invoice.Status == domain.InvoiceStatusOpen && !invoice.IsOverdue(asOf) {
			hasOpenNotDue[invoice.StudentID] = true
		}
	}

	var findings []domain.ReconciliationFinding
	for _, charge := range sortedCharges(ledger.charges) {
		if charge.Status != domain.ChargeStatusUnpaid || charge.InvoiceID != nil {
			continue
		}
		if daysBetween(charge.DueDate, asOf) < 0 || !hasOpenNotDue[charge.StudentID] {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckOrphanUnpaidCharge,
			Severity:   domain.SeverityMedium,
			EntityType: "charge",
			EntityID:   charge.ChargeID,
			Message:    "Unpaid charge is not linked to any invoice while student has open not-due invoice",
			Details: map[string]string{
				"student_id": charge.StudentID,
				"due_date":   utcDay(charge.DueDate).Format("2006-01-02"),
			},
		})
	}
	return findings
}

// checkCancelledChargeResiduals flags invoice items pointing at cancelled
// charges with no residual replacement charge.
func checkCancelledChargeResiduals(ledger *ledgerState) []domain.ReconciliationFinding {
	chargeByID := make(map[string]domain.Charge, len(ledger.charges))
	hasResidual := make(map[string]bool)
	for _, charge := range ledger.charges {
		chargeByID[charge.ChargeID] = charge
		if charge.OriginChargeID != nil {
			hasResidual[*charge.OriginChargeID] = true
		}
	}

	items := make([]domain.InvoiceItem, len(ledger.items))
	copy(items, ledger.items)
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })

	var findings []domain.ReconciliationFinding
	for _, item := range items {
		charge, ok := chargeByID[item.ChargeID]
		if !ok || charge.Status != domain.ChargeStatusCancelled || hasResidual[item.ChargeID] {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckCancelledChargeNoResidual,
			Severity:   domain.SeverityMedium,
			EntityType: "invoice_item",
			EntityID:   item.ItemID,
			Message:    "Invoice item points to cancelled charge without residual replacement",
			Details: map[string]string{
				"invoice_id": item.InvoiceID,
				"charge_id":  item.ChargeID,
			},
		})
	}
	return findings
}

// checkInterestOrigins flags interest charges with a missing origin, an
// origin that no longer exists or is cancelled, or an origin that is not a
// fee charge. The last case would mean compounding, which generation never
// produces.
func checkInterestOrigins(ledger *ledgerState) []domain.ReconciliationFinding {
	chargeByID := make(map[string]domain.Charge, len(ledger.charges))
	for _, charge := range ledger.charges {
		chargeByID[charge.ChargeID] = charge
	}

	var findings []domain.ReconciliationFinding
	for _, charge := range sortedCharges(ledger.charges) {
		if charge.ChargeType != domain.ChargeTypeInterest {
			continue
		}
		invalid := false
		originRef := ""
		if charge.OriginChargeID == nil {
			invalid = true
		} else {
			originRef = *charge.OriginChargeID
			origin, ok := chargeByID[originRef]
			if !ok || origin.Status == domain.ChargeStatusCancelled || origin.ChargeType != domain.ChargeTypeFee {
				invalid = true
			}
		}
		if !invalid {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckInterestInvalidOrigin,
			Severity:   domain.SeverityHigh,
			EntityType: "charge",
			EntityID:   charge.ChargeID,
			Message:    "Interest charge has invalid origin charge",
			Details: map[string]string{
				"origin_charge_id": originRef,
			},
		})
	}
	return findings
}

// checkOpenInvoicesWithSufficientPayments flags invoices that stayed open
// despite confirmed payments covering their total. Allocation closes the
// invoice in the same transaction, so this should never fire.
func checkOpenInvoicesWithSufficientPayments(ledger *ledgerState) []domain.ReconciliationFinding {
	paidByInvoice := make(map[string]decimal.Decimal)
	for _, payment := range ledger.payments {
		paidByInvoice[payment.InvoiceID] = paidByInvoice[payment.InvoiceID].Add(payment.Amount)
	}

	var findings []domain.ReconciliationFinding
	for _, invoice := range sortedInvoices(ledger.invoices) {
		paid, ok := paidByInvoice[invoice.InvoiceID]
		if !ok || invoice.Status != domain.InvoiceStatusOpen || paid.LessThan(invoice.TotalAmount) {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckInvoiceOpenSufficientPaid,
			Severity:   domain.SeverityHigh,
			EntityType: "invoice",
			EntityID:   invoice.InvoiceID,
			Message:    "Invoice remains open despite confirmed payments covering total amount",
			Details: map[string]string{
				"invoice_total": invoice.TotalAmount.String(),
				"paid_total":    paid.String(),
			},
		})
	}
	return findings
}

// checkUnappliedNegativeCharges flags credits still linked to an invoice
// that already received payments. Allocation consumes linked credits, so a
// survivor indicates a broken allocation pass. Unlinked carry credits are
// legitimate and ignored.
func checkUnappliedNegativeCharges(ledger *ledgerState) []domain.ReconciliationFinding {
	invoiceHasPayments := make(map[string]bool)
	for _, payment := range ledger.payments {
		invoiceHasPayments[payment.InvoiceID] = true
	}

	var findings []domain.ReconciliationFinding
	for _, charge := range sortedCharges(ledger.charges) {
		if charge.Status != domain.ChargeStatusUnpaid || !charge.IsCredit() || charge.InvoiceID == nil {
			continue
		}
		if !invoiceHasPayments[*charge.InvoiceID] {
			continue
		}
		findings = append(findings, domain.ReconciliationFinding{
			CheckCode:  domain.CheckUnappliedNegativeCharge,
			Severity:   domain.SeverityMedium,
			EntityType: "charge",
			EntityID:   charge.ChargeID,
			Message:    "Negative unpaid charge remains linked to invoice that already has payments",
			Details: map[string]string{
				"invoice_id": *charge.InvoiceID,
				"student_id": charge.StudentID,
				"amount":     charge.Amount.String(),
			},
		})
	}
	return findings
}

// checkDuplicatePayments flags pairs of same-student, same-amount payments
// landing within the configured window.
func checkDuplicatePayments(ledger *ledgerState, window time.Duration) []domain.ReconciliationFinding {
	payments := make([]domain.Payment, len(ledger.payments))
	copy(payments, ledger.payments)
	sort.Slice(payments, func(i, j int) bool { return payments[i].PaymentID < payments[j].PaymentID })

	var findings []domain.ReconciliationFinding
	for i := 0; i < len(payments); i++ {
		for j := i + 1; j < len(payments); j++ {
			a, b := payments[i], payments[j]
			if a.StudentID != b.StudentID || !a.Amount.Equal(b.Amount) {
				continue
			}
			gap := b.PaidAt.Sub(a.PaidAt)
			if gap < 0 {
				gap = -gap
			}
			if gap > window {
				continue
			}
			findings = append(findings, domain.ReconciliationFinding{
				CheckCode:  domain.CheckDuplicatePaymentWindow,
				Severity:   domain.SeverityHigh,
				EntityType: "payment",
				EntityID:   a.PaymentID,
				Message:    "Potential duplicate payments detected in narrow time window",
				Details: map[string]string{
					"payment_id_a":   a.PaymentID,
					"payment_id_b":   b.PaymentID,
					"student_id":     a.StudentID,
					"amount":         a.Amount.String(),
					"paid_at_a":      a.PaidAt.UTC().Format(time.RFC3339),
					"paid_at_b":      b.PaidAt.UTC().Format(time.RFC3339),
					"window_seconds": strconv.Itoa(int(window.Seconds())),
				},
			})
		}
	}
	return findings
}

// checkSchoolBalanceEquation verifies the school-wide ledger identity:
// everything charged must equal everything paid plus everything pending.
func checkSchoolBalanceEquation(ledger *ledgerState, schoolID string) []domain.ReconciliationFinding {
	totalCharged := decimal.Zero
	totalPending := decimal.Zero
	for _, charge := range ledger.charges {
		if charge.Status == domain.ChargeStatusCancelled {
			continue
		}
		if charge.IsDebt() {
			totalCharged = totalCharged.Add(charge.Amount)
		}
		if charge.Status == domain.ChargeStatusUnpaid {
			totalPending = totalPending.Add(charge.Amount)
		}
	}
	totalPaid := decimal.Zero
	for _, payment := range ledger.payments {
		totalPaid = totalPaid.Add(payment.Amount)
	}

	residual := totalCharged.Sub(totalPaid).Sub(totalPending)
	if residual.IsZero() {
		return nil
	}
	return []domain.ReconciliationFinding{{
		CheckCode:  domain.CheckSchoolBalanceEquation,
		Severity:   domain.SeverityHigh,
		EntityType: "school",
		EntityID:   schoolID,
		Message:    "School ledger identity does not balance",
		Details: map[string]string{
			"total_charged": totalCharged.String(),
			"total_paid":    totalPaid.String(),
			"total_pending": totalPending.String(),
			"residual":      residual.String(),
		},
	}}
}

func sortedCharges(charges []domain.Charge) []domain.Charge {
	out := make([]domain.Charge, len(charges))
	copy(out, charges)
	sort.Slice(out, func(i, j int) bool { return out[i].ChargeID < out[j].ChargeID })
	return out
}

func sortedInvoices(invoices []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, len(invoices))
	copy(out, invoices)
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out
}

// GetRunWithFindings retrieves a run and its findings, scoped to a school.
// Implements portssvc.ReconciliationReaderSvc.
func (s *reconciliationService) GetRunWithFindings(ctx context.Context, schoolID string, runID string) (*domain.ReconciliationRun, []domain.ReconciliationFinding, error) {
	run, err := s.reconRepo.FindRunByID(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.SchoolID != schoolID {
		return nil, nil, apperrors.ErrNotFound
	}
	findings, err := s.reconRepo.FindFindingsByRunID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading findings: %w", err)
	}
	return run, findings, nil
}

// ListRuns retrieves a school's runs, newest first.
// Implements portssvc.ReconciliationReaderSvc.
func (s *reconciliationService) ListRuns(ctx context.Context, schoolID string, params dto.ListParams) ([]domain.ReconciliationRun, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return s.reconRepo.ListRunsBySchool(ctx, schoolID, limit, offset)
}
