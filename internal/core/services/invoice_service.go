package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

var (
	ErrLockContention     = errors.New("billing operation already in progress for this student")
	ErrNoChargesToInvoice = errors.New("no unpaid charges available for invoice generation")
)

// invoiceService runs the billing cycle: interest accrual, rollover of the
// open invoice, and issuance of the next one.
type invoiceService struct {
	chargeRepo  portsrepo.ChargeRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	studentRepo portsrepo.StudentRepositoryFacade
	locker      portsplatform.Locker
	monthlyRate decimal.Decimal
	lockTTL     time.Duration
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	studentRepo portsrepo.StudentRepositoryFacade,
	locker portsplatform.Locker,
	monthlyRate decimal.Decimal,
	lockTTL time.Duration,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		chargeRepo:  chargeRepo,
		invoiceRepo: invoiceRepo,
		studentRepo: studentRepo,
		locker:      locker,
		monthlyRate: monthlyRate,
		lockTTL:     lockTTL,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func generationLockKey(schoolID, studentID string) string {
	return fmt.Sprintf("billing:generation:%s:%s", schoolID, studentID)
}

// Generate closes the student's open invoice (if any) and issues a new one
// over every unpaid, non-cancelled charge, after accruing interest on overdue
// fee debt. The pass is a controlled rollover: re-running it with no new
// activity still issues a fresh invoice, with a zero interest delta.
// Implements portssvc.InvoiceGeneratorSvc.
func (s *invoiceService) Generate(ctx context.Context, schoolID string, studentID string, asOf time.Time, actorID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()
	if asOf.IsZero() {
		asOf = now
	}

	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, studentID); err != nil {
		return nil, err
	}

	// Mutual exclusion with payment allocation on the same ledger. The lock
	// backend being unreachable counts as contention: never mutate unlocked.
	token, err := s.locker.Acquire(ctx, generationLockKey(schoolID, studentID), s.lockTTL)
	if err != nil {
		logger.Warn("generation lock not acquired",
			slog.String("school_id", schoolID),
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
		return nil, ErrLockContention
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), generationLockKey(schoolID, studentID), token); err != nil {
			logger.Warn("failed to release generation lock", slog.String("error", err.Error()))
		}
	}()

	unpaid, err := s.chargeRepo.FindUnpaidChargesByStudent(ctx, schoolID, studentID)
	if err != nil {
		return nil, fmt.Errorf("loading unpaid charges: %w", err)
	}
	if len(unpaid) == 0 {
		return nil, ErrNoChargesToInvoice
	}

	newInterest, err := s.accrue(ctx, schoolID, studentID, unpaid, asOf, now, actorID)
	if err != nil {
		return nil, err
	}

	var closeInvoiceIDs []string
	open, err := s.invoiceRepo.FindOpenInvoiceByStudent(ctx, schoolID, studentID)
	switch {
	case err == nil:
		closeInvoiceIDs = append(closeInvoiceIDs, open.InvoiceID)
	case errors.Is(err, apperrors.ErrNotFound):
		// first invoice for this student
	default:
		return nil, fmt.Errorf("loading open invoice: %w", err)
	}

	billed := make([]domain.Charge, 0, len(unpaid)+len(newInterest))
	billed = append(billed, unpaid...)
	billed = append(billed, newInterest...)

	invoice := domain.Invoice{
		InvoiceID: uuid.NewString(),
		SchoolID:  schoolID,
		StudentID: studentID,
		Period:    utcDay(asOf).Format("2006-01"),
		IssuedAt:  now,
		DueDate:   utcDay(asOf),
		Status:    domain.InvoiceStatusOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	total := decimal.Zero
	items := make([]domain.InvoiceItem, 0, len(billed))
	billedIDs := make([]string, 0, len(billed))
	for _, charge := range billed {
		total = total.Add(charge.Amount)
		billedIDs = append(billedIDs, charge.ChargeID)
		items = append(items, domain.InvoiceItem{
			ItemID:      uuid.NewString(),
			InvoiceID:   invoice.InvoiceID,
			ChargeID:    charge.ChargeID,
			Description: charge.Description,
			Amount:      charge.Amount,
			ChargeType:  charge.ChargeType,
			CreatedAt:   now,
		})
	}
	invoice.TotalAmount = total

	rollover := domain.InvoiceRollover{
		NewInterestCharges: newInterest,
		CloseInvoiceIDs:    closeInvoiceIDs,
		Invoice:            invoice,
		Items:              items,
		BilledChargeIDs:    billedIDs,
	}
	if err := s.invoiceRepo.SaveInvoiceRollover(ctx, rollover); err != nil {
		return nil, fmt.Errorf("persisting invoice rollover: %w", err)
	}

	logger.Info("invoice generated",
		slog.String("school_id", schoolID),
		slog.String("student_id", studentID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.Int("billed_charges", len(billed)),
		slog.Int("new_interest_charges", len(newInterest)),
		slog.String("total_amount", invoice.TotalAmount.String()))

	invoice.Items = items
	return &invoice, nil
}

// accrue computes the interest deltas for the student's overdue fee debt.
func (s *invoiceService) accrue(ctx context.Context, schoolID, studentID string, unpaid []domain.Charge, asOf, now time.Time, actorID string) ([]domain.Charge, error) {
	var originIDs []string
	for _, charge := range unpaid {
		if charge.ChargeType == domain.ChargeTypeFee && charge.IsDebt() && daysBetween(charge.DueDate, asOf) > 0 {
			originIDs = append(originIDs, charge.ChargeID)
		}
	}
	if len(originIDs) == 0 {
		return nil, nil
	}
	interestByOrigin, err := s.chargeRepo.FindInterestChargesByOrigins(ctx, schoolID, studentID, originIDs)
	if err != nil {
		return nil, fmt.Errorf("loading accrued interest: %w", err)
	}
	return accrueInterestCharges(unpaid, interestByOrigin, s.monthlyRate, asOf, now, actorID), nil
}

// GenerateForSchool sweeps every enrolled student. A student with nothing to
// bill is skipped; any other failure is recorded and the sweep continues.
// Implements portssvc.InvoiceGeneratorSvc.
func (s *invoiceService) GenerateForSchool(ctx context.Context, schoolID string, asOf time.Time, actorID string) (*domain.SchoolGenerationSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	studentIDs, err := s.studentRepo.ListStudentIDsBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}

	summary := &domain.SchoolGenerationSummary{
		SchoolID:          schoolID,
		ProcessedStudents: len(studentIDs),
	}
	for _, studentID := range studentIDs {
		_, err := s.Generate(ctx, schoolID, studentID, asOf, actorID)
		switch {
		case err == nil:
			summary.GeneratedStudents++
		case errors.Is(err, ErrNoChargesToInvoice) || errors.Is(err, apperrors.ErrValidation):
			summary.SkippedStudents++
			summary.Errors = append(summary.Errors, domain.GenerationError{
				StudentID: studentID,
				Error:     err.Error(),
				Kind:      "skipped",
			})
		default:
			summary.FailedStudents++
			summary.Errors = append(summary.Errors, domain.GenerationError{
				StudentID: studentID,
				Error:     err.Error(),
				Kind:      "failed",
			})
		}
	}

	logger.Info("school invoice generation finished",
		slog.String("school_id", schoolID),
		slog.Int("processed", summary.ProcessedStudents),
		slog.Int("generated", summary.GeneratedStudents),
		slog.Int("skipped", summary.SkippedStudents),
		slog.Int("failed", summary.FailedStudents))
	return summary, nil
}

// GetInvoiceByID retrieves an invoice with its item snapshot.
// Implements portssvc.InvoiceReaderSvc.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, schoolID string, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, schoolID, invoiceID)
	if err != nil {
		return nil, err
	}
	items, err := s.invoiceRepo.FindItemsByInvoiceID(ctx, invoice.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("loading invoice items: %w", err)
	}
	invoice.Items = items
	return invoice, nil
}

// ListInvoicesByStudent retrieves a student's invoices, newest first.
// Implements portssvc.InvoiceReaderSvc.
func (s *invoiceService) ListInvoicesByStudent(ctx context.Context, schoolID string, studentID string, params dto.ListParams) ([]domain.Invoice, error) {
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
	return s.invoiceRepo.ListInvoicesByStudent(ctx, schoolID, studentID, limit, offset)
}
