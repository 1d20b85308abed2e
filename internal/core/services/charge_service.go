package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mativs/mattilda/internal/core/domain"
	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/dto"
	"github.com/mativs/mattilda/internal/middleware"
)

var (
	ErrZeroAmount           = errors.New("charge amount must not be zero")
	ErrChargeNotCancellable = errors.New("only unpaid charges can be cancelled")
)

// chargeService manages manual ledger entries and the balance snapshot.
type chargeService struct {
	chargeRepo  portsrepo.ChargeRepositoryFacade
	paymentRepo portsrepo.PaymentRepositoryFacade
	studentRepo portsrepo.StudentRepositoryFacade
	cache       portsplatform.SummaryCache
	cacheTTL    time.Duration
}

// NewChargeService creates a new ChargeService.
func NewChargeService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	studentRepo portsrepo.StudentRepositoryFacade,
	cache portsplatform.SummaryCache,
	cacheTTL time.Duration,
) portssvc.ChargeSvcFacade {
	return &chargeService{
		chargeRepo:  chargeRepo,
		paymentRepo: paymentRepo,
		studentRepo: studentRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

var _ portssvc.ChargeSvcFacade = (*chargeService)(nil)

// CreateCharge records a manual charge for a student.
// Implements portssvc.ChargeWriterSvc.
func (s *chargeService) CreateCharge(ctx context.Context, schoolID string, req dto.CreateChargeRequest, actorID string) (*domain.Charge, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	if req.Amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, req.StudentID); err != nil {
		return nil, err
	}

	charge := domain.Charge{
		ChargeID:      uuid.NewString(),
		SchoolID:      schoolID,
		StudentID:     req.StudentID,
		Description:   req.Description,
		Amount:        req.Amount,
		Period:        req.Period,
		DebtCreatedAt: now,
		DueDate:       utcDay(req.DueDate),
		ChargeType:    req.ChargeType,
		Status:        domain.ChargeStatusUnpaid,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.chargeRepo.SaveCharge(ctx, charge); err != nil {
		return nil, fmt.Errorf("persisting charge: %w", err)
	}
	s.cache.InvalidateBalance(ctx, schoolID, req.StudentID)

	logger.Info("charge created",
		slog.String("school_id", schoolID),
		slog.String("student_id", req.StudentID),
		slog.String("charge_id", charge.ChargeID),
		slog.String("charge_type", string(charge.ChargeType)),
		slog.String("amount", charge.Amount.String()))
	return &charge, nil
}

// CancelCharge transitions an unpaid charge to cancelled, removing it from
// every balance computation. The amount is never touched.
// Implements portssvc.ChargeWriterSvc.
func (s *chargeService) CancelCharge(ctx context.Context, schoolID string, chargeID string, actorID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	charge, err := s.chargeRepo.FindChargeByID(ctx, schoolID, chargeID)
	if err != nil {
		return err
	}
	if charge.Status != domain.ChargeStatusUnpaid {
		return ErrChargeNotCancellable
	}
	if err := s.chargeRepo.UpdateChargeStatus(ctx, schoolID, chargeID, domain.ChargeStatusCancelled, actorID, now); err != nil {
		return fmt.Errorf("cancelling charge: %w", err)
	}
	s.cache.InvalidateBalance(ctx, schoolID, charge.StudentID)

	logger.Info("charge cancelled",
		slog.String("school_id", schoolID),
		slog.String("charge_id", chargeID),
		slog.String("student_id", charge.StudentID))
	return nil
}

// GetChargeByID retrieves a charge scoped to a school.
// Implements portssvc.ChargeReaderSvc.
func (s *chargeService) GetChargeByID(ctx context.Context, schoolID string, chargeID string) (*domain.Charge, error) {
	return s.chargeRepo.FindChargeByID(ctx, schoolID, chargeID)
}

// ListUnpaidCharges retrieves a student's unpaid charges, credits included.
// Implements portssvc.ChargeReaderSvc.
func (s *chargeService) ListUnpaidCharges(ctx context.Context, schoolID string, studentID string) ([]domain.Charge, error) {
	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	return s.chargeRepo.FindUnpaidChargesByStudent(ctx, schoolID, studentID)
}

// GetStudentBalance computes the student's financial snapshot, serving from
// the cache when possible. The figures are identical with the cache absent.
// Implements portssvc.ChargeReaderSvc.
func (s *chargeService) GetStudentBalance(ctx context.Context, schoolID string, studentID string) (*domain.BalanceSummary, error) {
	if _, err := s.studentRepo.FindStudentInSchool(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	if cached := s.cache.GetBalance(ctx, schoolID, studentID); cached != nil {
		return cached, nil
	}

	totals, err := s.chargeRepo.GetStudentChargeTotals(ctx, schoolID, studentID)
	if err != nil {
		return nil, fmt.Errorf("aggregating charges: %w", err)
	}
	paid, err := s.paymentRepo.SumPaymentsByStudent(ctx, schoolID, studentID)
	if err != nil {
		return nil, fmt.Errorf("aggregating payments: %w", err)
	}

	summary := &domain.BalanceSummary{
		TotalCharged:      totals.Charged,
		TotalPaid:         paid,
		TotalUnpaid:       totals.UnpaidNet,
		TotalUnpaidDebt:   totals.UnpaidDebt,
		TotalUnpaidCredit: totals.UnpaidCredit,
	}
	s.cache.SetBalance(ctx, schoolID, studentID, summary, s.cacheTTL)
	return summary, nil
}
