package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/mativs/mattilda/internal/core/domain"
	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
)

// --- Mock ChargeRepository ---
type MockChargeRepository struct {
	mock.Mock
}

var _ portsrepo.ChargeRepositoryFacade = (*MockChargeRepository)(nil)

func (m *MockChargeRepository) FindChargeByID(ctx context.Context, schoolID, chargeID string) (*domain.Charge, error) {
	args := m.Called(ctx, schoolID, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindUnpaidChargesByStudent(ctx context.Context, schoolID, studentID string) ([]domain.Charge, error) {
	args := m.Called(ctx, schoolID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindInterestChargesByOrigins(ctx context.Context, schoolID, studentID string, originChargeIDs []string) (map[string][]domain.Charge, error) {
	args := m.Called(ctx, schoolID, studentID, originChargeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindChargesByInvoiceID(ctx context.Context, schoolID, invoiceID string) ([]domain.Charge, error) {
	args := m.Called(ctx, schoolID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) ListChargesBySchool(ctx context.Context, schoolID string) ([]domain.Charge, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) GetStudentChargeTotals(ctx context.Context, schoolID, studentID string) (domain.ChargeTotals, error) {
	args := m.Called(ctx, schoolID, studentID)
	return args.Get(0).(domain.ChargeTotals), args.Error(1)
}

func (m *MockChargeRepository) SaveCharge(ctx context.Context, charge domain.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *MockChargeRepository) UpdateChargeStatus(ctx context.Context, schoolID, chargeID string, status domain.ChargeStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, schoolID, chargeID, status, updatedBy, updatedAt)
	return args.Error(0)
}

// --- Mock InvoiceRepository ---
type MockInvoiceRepository struct {
	mock.Mock
}

var _ portsrepo.InvoiceRepositoryFacade = (*MockInvoiceRepository)(nil)

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, schoolID, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, schoolID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenInvoiceByStudent(ctx context.Context, schoolID, studentID string) (*domain.Invoice, error) {
	args := m.Called(ctx, schoolID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceItem), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoicesByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Invoice, error) {
	args := m.Called(ctx, schoolID, studentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoicesBySchool(ctx context.Context, schoolID string) ([]domain.Invoice, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumItemsBySchool(ctx context.Context, schoolID string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) ListItemsBySchool(ctx context.Context, schoolID string) ([]domain.InvoiceItem, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceItem), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoiceRollover(ctx context.Context, rollover domain.InvoiceRollover) error {
	args := m.Called(ctx, rollover)
	return args.Error(0)
}

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryFacade = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) ListPaymentsByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, schoolID, studentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsBySchool(ctx context.Context, schoolID string) ([]domain.Payment, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumPaymentsByStudent(ctx context.Context, schoolID, studentID string) (decimal.Decimal, error) {
	args := m.Called(ctx, schoolID, studentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) SavePaymentAllocation(ctx context.Context, alloc domain.PaymentAllocation) error {
	args := m.Called(ctx, alloc)
	return args.Error(0)
}

// --- Mock ReconciliationRepository ---
type MockReconciliationRepository struct {
	mock.Mock
}

var _ portsrepo.ReconciliationRepositoryFacade = (*MockReconciliationRepository)(nil)

func (m *MockReconciliationRepository) FindRunByID(ctx context.Context, runID string) (*domain.ReconciliationRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRun), args.Error(1)
}

func (m *MockReconciliationRepository) ListRunsBySchool(ctx context.Context, schoolID string, limit, offset int) ([]domain.ReconciliationRun, error) {
	args := m.Called(ctx, schoolID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRun), args.Error(1)
}

func (m *MockReconciliationRepository) FindFindingsByRunID(ctx context.Context, runID string) ([]domain.ReconciliationFinding, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationFinding), args.Error(1)
}

func (m *MockReconciliationRepository) SaveRun(ctx context.Context, run domain.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconciliationRepository) UpdateRun(ctx context.Context, run domain.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconciliationRepository) SaveFindings(ctx context.Context, findings []domain.ReconciliationFinding) error {
	args := m.Called(ctx, findings)
	return args.Error(0)
}

// --- Mock StudentRepository ---
type MockStudentRepository struct {
	mock.Mock
}

var _ portsrepo.StudentRepositoryFacade = (*MockStudentRepository)(nil)

func (m *MockStudentRepository) FindStudentInSchool(ctx context.Context, schoolID, studentID string) (*domain.Student, error) {
	args := m.Called(ctx, schoolID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentRepository) ListStudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock Locker ---
type MockLocker struct {
	mock.Mock
}

var _ portsplatform.Locker = (*MockLocker)(nil)

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, key string, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

// --- Mock SummaryCache ---
type MockSummaryCache struct {
	mock.Mock
}

var _ portsplatform.SummaryCache = (*MockSummaryCache)(nil)

func (m *MockSummaryCache) GetBalance(ctx context.Context, schoolID, studentID string) *domain.BalanceSummary {
	args := m.Called(ctx, schoolID, studentID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.BalanceSummary)
}

func (m *MockSummaryCache) SetBalance(ctx context.Context, schoolID, studentID string, summary *domain.BalanceSummary, ttl time.Duration) {
	m.Called(ctx, schoolID, studentID, summary, ttl)
}

func (m *MockSummaryCache) InvalidateBalance(ctx context.Context, schoolID, studentID string) {
	m.Called(ctx, schoolID, studentID)
}

// --- Mock TaskDispatcher ---
type MockTaskDispatcher struct {
	mock.Mock
}

var _ portsplatform.TaskDispatcher = (*MockTaskDispatcher)(nil)

func (m *MockTaskDispatcher) EnqueueSchoolInvoiceGeneration(ctx context.Context, schoolID string, asOf time.Time, actorID string) error {
	args := m.Called(ctx, schoolID, asOf, actorID)
	return args.Error(0)
}

func (m *MockTaskDispatcher) EnqueueReconciliationRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
