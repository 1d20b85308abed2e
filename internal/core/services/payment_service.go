package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mativs/mattilda/internal/core/domain"
	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

var (
	ErrInvoiceNotOpen         = errors.New("only open invoices can receive payments")
	ErrInvoiceOverdue         = errors.New("overdue invoices cannot receive payments")
	ErrInvoiceNotOverdue      = errors.New("invoice is not overdue")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvoiceStudentMismatch = errors.New("invoice does not belong to student")
)

// paymentService records payments and settles them against open invoices.
type paymentService struct {
	chargeRepo  portsrepo.ChargeRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	paymentRepo portsrepo.PaymentRepositoryFacade
	studentRepo portsrepo.StudentRepositoryFacade
	locker      portsplatform.Locker
	cache       portsplatform.SummaryCache
	lockTTL     time.Duration
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	studentRepo portsrepo.StudentRepositoryFacade,
	locker portsplatform.Locker,
	cache portsplatform.SummaryCache,
	lockTTL time.Duration,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		chargeRepo:  chargeRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		studentRepo: studentRepo,
		locker:      locker,
		cache:       cache,
		lockTTL:     lockTTL,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func allocationLockKey(schoolID, invoiceID string) string {
	return fmt.Sprintf("billing:allocation:%s:%s", schoolID, invoiceID)
}

// chargeTypePriority orders charge types within a due-date tie during
// allocation: fees settle before penalties, penalties before interest.
func chargeTypePriority(t domain.ChargeType) int {
	switch t {
	case domain.ChargeTypeFee:
		return 0
	case domain.ChargeTypePenalty:
		return 1
	default:
		return 2
	}
}

// sortChargesForAllocation orders positive unpaid charges deterministically:
// ascending due date, then fee < penalty < interest, then ascending ID.
func sortChargesForAllocation(charges []domain.Charge) {
	sort.SliceStable(charges, func(i, j int) bool {
		di, dj := utcDay(charges[i].DueDate), utcDay(charges[j].DueDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		pi, pj := chargeTypePriority(charges[i].ChargeType), chargeTypePriority(charges[j].ChargeType)
		if pi != pj {
			return pi < pj
		}
		return charges[i].ChargeID < charges[j].ChargeID
	})
}

// CreatePayment validates preconditions, records the payment and allocates it
// across the invoice's charges. Credits linked to the invoice are consumed
// first; positive charges are settled whole, in deterministic order, until
// the available funds cannot cover the next one. The invoice closes on every
// allocation attempt; any remainder becomes a carry credit.
// Implements portssvc.PaymentWriterSvc.
func (s *paymentService) CreatePayment(ctx context.Context, schoolID string, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, *domain.AllocationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	if !req.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}
	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, req.StudentID); err != nil {
		return nil, nil, err
	}
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, schoolID, req.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	if invoice.StudentID != req.StudentID {
		return nil, nil, ErrInvoiceStudentMismatch
	}
	if invoice.Status != domain.InvoiceStatusOpen {
		return nil, nil, ErrInvoiceNotOpen
	}
	if invoice.IsOverdue(req.PaidAt) {
		return nil, nil, ErrInvoiceOverdue
	}

	token, err := s.locker.Acquire(ctx, allocationLockKey(schoolID, invoice.InvoiceID), s.lockTTL)
	if err != nil {
		logger.Warn("allocation lock not acquired",
			slog.String("school_id", schoolID),
			slog.String("invoice_id", invoice.InvoiceID),
			slog.String("error", err.Error()))
		return nil, nil, ErrLockContention
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), allocationLockKey(schoolID, invoice.InvoiceID), token); err != nil {
			logger.Warn("failed to release allocation lock", slog.String("error", err.Error()))
		}
	}()

	// The first read happened unlocked; a concurrent allocation or generation
	// pass may have closed the invoice in between. Re-check under the lock.
	invoice, err = s.invoiceRepo.FindInvoiceByID(ctx, schoolID, req.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	if invoice.Status != domain.InvoiceStatusOpen {
		return nil, nil, ErrInvoiceNotOpen
	}
	if invoice.IsOverdue(req.PaidAt) {
		return nil, nil, ErrInvoiceOverdue
	}

	charges, err := s.chargeRepo.FindChargesByInvoiceID(ctx, schoolID, invoice.InvoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading invoice charges: %w", err)
	}

	payment := domain.Payment{
		PaymentID: uuid.NewString(),
		SchoolID:  schoolID,
		StudentID: req.StudentID,
		InvoiceID: invoice.InvoiceID,
		Amount:    req.Amount,
		PaidAt:    req.PaidAt,
		Method:    req.Method,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	alloc, result := allocatePayment(payment, invoice, charges, now, actorID)
	if err := s.paymentRepo.SavePaymentAllocation(ctx, alloc); err != nil {
		return nil, nil, fmt.Errorf("persisting payment allocation: %w", err)
	}
	s.cache.InvalidateBalance(ctx, schoolID, req.StudentID)

	logger.Info("payment allocated",
		slog.String("school_id", schoolID),
		slog.String("student_id", req.StudentID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", payment.Amount.String()),
		slog.Int("charges_paid", len(result.ChargesPaid)),
		slog.Int("charges_remaining", len(result.ChargesRemainingUnpaid)))
	return &payment, &result, nil
}

// allocatePayment is the pure settlement step: given the invoice's live
// charges, it decides which flip to paid, whether a carry credit is born,
// and always closes the invoice.
func allocatePayment(payment domain.Payment, invoice *domain.Invoice, charges []domain.Charge, now time.Time, actorID string) (domain.PaymentAllocation, domain.AllocationResult) {
	var negatives, positives []domain.Charge
	for _, charge := range charges {
		if charge.Status != domain.ChargeStatusUnpaid {
			continue
		}
		if charge.IsCredit() {
			negatives = append(negatives, charge)
		} else if charge.IsDebt() {
			positives = append(positives, charge)
		}
	}

	// Credits are funds, not debt: they add to the payment before the walk
	// and are consumed in full.
	available := payment.Amount
	paidIDs := make([]string, 0, len(charges))
	for _, credit := range negatives {
		available = available.Add(credit.Amount.Abs())
		paidIDs = append(paidIDs, credit.ChargeID)
	}

	sortChargesForAllocation(positives)

	var remainingIDs []string
	for i, charge := range positives {
		if available.GreaterThanOrEqual(charge.Amount) {
			available = available.Sub(charge.Amount)
			paidIDs = append(paidIDs, charge.ChargeID)
			continue
		}
		// No splitting: the first uncoverable charge stops the walk.
		for _, rest := range positives[i:] {
			remainingIDs = append(remainingIDs, rest.ChargeID)
		}
		break
	}

	alloc := domain.PaymentAllocation{
		Payment:        payment,
		PaidChargeIDs:  paidIDs,
		CloseInvoiceID: invoice.InvoiceID,
	}
	result := domain.AllocationResult{
		InvoiceClosed:          true,
		ChargesPaid:            paidIDs,
		ChargesRemainingUnpaid: remainingIDs,
	}
	if available.IsPositive() {
		credit := newCarryCredit(invoice, available, now, actorID)
		alloc.CreditCharge = &credit
		creditAmount := available
		result.CreditCreated = &creditAmount
	}
	return alloc, result
}

// newCarryCredit builds the negative charge holding unconsumed funds until
// the next generation picks it up. It is deliberately unlinked from any
// invoice.
func newCarryCredit(invoice *domain.Invoice, amount decimal.Decimal, now time.Time, actorID string) domain.Charge {
	return domain.Charge{
		ChargeID:      uuid.NewString(),
		SchoolID:      invoice.SchoolID,
		StudentID:     invoice.StudentID,
		Description:   fmt.Sprintf("Carry credit from invoice %s", invoice.InvoiceID),
		Amount:        amount.Neg(),
		Period:        invoice.Period,
		DebtCreatedAt: now,
		DueDate:       invoice.DueDate,
		ChargeType:    domain.ChargeTypePenalty,
		Status:        domain.ChargeStatusUnpaid,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
}

// RecordOverdueFunds books money received for an overdue invoice as a carry
// credit. Overdue invoices are blocked from normal allocation; the funds wait
// for the next generation instead.
// Implements portssvc.PaymentWriterSvc.
func (s *paymentService) RecordOverdueFunds(ctx context.Context, schoolID string, invoiceID string, req dto.RecordOverdueFundsRequest, actorID string) (*domain.Charge, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, schoolID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsOverdue(req.PaidAt) {
		return nil, ErrInvoiceNotOverdue
	}

	credit := newCarryCredit(invoice, req.Amount, now, actorID)
	credit.Description = fmt.Sprintf("Funds received for overdue invoice %s", invoice.InvoiceID)
	if err := s.chargeRepo.SaveCharge(ctx, credit); err != nil {
		return nil, fmt.Errorf("persisting overdue funds credit: %w", err)
	}
	s.cache.InvalidateBalance(ctx, schoolID, invoice.StudentID)

	logger.Info("overdue funds recorded as carry credit",
		slog.String("school_id", schoolID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("student_id", invoice.StudentID),
		slog.String("amount", req.Amount.String()))
	return &credit, nil
}

// ListPaymentsByStudent retrieves a student's payments, newest first.
// Implements portssvc.PaymentReaderSvc.
func (s *paymentService) ListPaymentsByStudent(ctx context.Context, schoolID string, studentID string, params dto.ListParams) ([]domain.Payment, error) {
	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return s.paymentRepo.ListPaymentsByStudent(ctx, schoolID, studentID, limit, offset)
}
