package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mativs/mattilda/internal/core/domain"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/core/services"
	"github.com/mativs/mattilda/internal/dto"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	mockChargeRepo  *MockChargeRepository
	mockInvoiceRepo *MockInvoiceRepository
	mockPaymentRepo *MockPaymentRepository
	mockStudentRepo *MockStudentRepository
	mockLocker      *MockLocker
	mockCache       *MockSummaryCache
	service         portssvc.PaymentSvcFacade
	ctx             context.Context
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.mockChargeRepo = new(MockChargeRepository)
	s.mockInvoiceRepo = new(MockInvoiceRepository)
	s.mockPaymentRepo = new(MockPaymentRepository)
	s.mockStudentRepo = new(MockStudentRepository)
	s.mockLocker = new(MockLocker)
	s.mockCache = new(MockSummaryCache)
	s.service = services.NewPaymentService(
		s.mockChargeRepo,
		s.mockInvoiceRepo,
		s.mockPaymentRepo,
		s.mockStudentRepo,
		s.mockLocker,
		s.mockCache,
		30*time.Second,
	)
	s.ctx = context.Background()
}

func (s *PaymentServiceTestSuite) openInvoice() *domain.Invoice {
	return &domain.Invoice{
		InvoiceID: "invoice-1",
		SchoolID:  "school-1",
		StudentID: "student-1",
		Period:    "2024-03",
		DueDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.InvoiceStatusOpen,
	}
}

func (s *PaymentServiceTestSuite) paymentRequest(amount string) dto.CreatePaymentRequest {
	return dto.CreatePaymentRequest{
		StudentID: "student-1",
		InvoiceID: "invoice-1",
		Amount:    decimal.RequireFromString(amount),
		PaidAt:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Method:    "transfer",
	}
}

func (s *PaymentServiceTestSuite) TestCreatePaymentAllocatesAndClosesInvoice() {
	invoice := s.openInvoice()
	invoiceID := invoice.InvoiceID
	charges := []domain.Charge{{
		ChargeID:   "charge-1",
		SchoolID:   "school-1",
		StudentID:  "student-1",
		InvoiceID:  &invoiceID,
		Amount:     decimal.RequireFromString("80"),
		DueDate:    invoice.DueDate,
		ChargeType: domain.ChargeTypeFee,
		Status:     domain.ChargeStatusUnpaid,
	}}

	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1", SchoolID: "school-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)
	s.mockLocker.On("Acquire", s.ctx, "billing:allocation:school-1:invoice-1", 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, "billing:allocation:school-1:invoice-1", "token-1").Return(nil)
	s.mockChargeRepo.On("FindChargesByInvoiceID", s.ctx, "school-1", "invoice-1").Return(charges, nil)

	var saved domain.PaymentAllocation
	s.mockPaymentRepo.On("SavePaymentAllocation", s.ctx, mock.AnythingOfType("domain.PaymentAllocation")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.PaymentAllocation)
		}).Return(nil)
	s.mockCache.On("InvalidateBalance", s.ctx, "school-1", "student-1").Return()

	payment, result, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().NoError(err)
	s.Require().NotNil(payment)
	s.Require().NotNil(result)
	s.True(result.InvoiceClosed)
	s.Equal([]string{"charge-1"}, result.ChargesPaid)
	s.Require().NotNil(result.CreditCreated)
	s.True(result.CreditCreated.Equal(decimal.RequireFromString("20")))

	s.Equal("invoice-1", saved.CloseInvoiceID)
	s.Equal([]string{"charge-1"}, saved.PaidChargeIDs)
	s.Require().NotNil(saved.CreditCharge)
	s.True(saved.CreditCharge.Amount.Equal(decimal.RequireFromString("-20")))
	s.mockCache.AssertExpectations(s.T())
	s.mockLocker.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestCreatePaymentRejectsNonPositiveAmount() {
	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("0"), "actor-1")
	s.Require().ErrorIs(err, services.ErrInvalidAmount)

	_, _, err = s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("-10"), "actor-1")
	s.Require().ErrorIs(err, services.ErrInvalidAmount)
	s.mockStudentRepo.AssertNotCalled(s.T(), "FindStudentInSchool", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestCreatePaymentStudentMismatch() {
	invoice := s.openInvoice()
	invoice.StudentID = "student-2"
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)

	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().ErrorIs(err, services.ErrInvoiceStudentMismatch)
	s.mockLocker.AssertNotCalled(s.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestCreatePaymentInvoiceNotOpen() {
	invoice := s.openInvoice()
	invoice.Status = domain.InvoiceStatusClosed
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)

	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().ErrorIs(err, services.ErrInvoiceNotOpen)
}

func (s *PaymentServiceTestSuite) TestCreatePaymentInvoiceOverdue() {
	invoice := s.openInvoice()
	invoice.DueDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // before PaidAt
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)

	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().ErrorIs(err, services.ErrInvoiceOverdue)
	s.mockLocker.AssertNotCalled(s.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestCreatePaymentLockContentionFailsClosed() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(s.openInvoice(), nil)
	s.mockLocker.On("Acquire", s.ctx, "billing:allocation:school-1:invoice-1", 30*time.Second).
		Return("", errors.New("lock held"))

	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().ErrorIs(err, services.ErrLockContention)
	s.mockPaymentRepo.AssertNotCalled(s.T(), "SavePaymentAllocation", mock.Anything, mock.Anything)
	s.mockCache.AssertNotCalled(s.T(), "InvalidateBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestCreatePaymentRechecksInvoiceUnderLock() {
	// The invoice is open at the unlocked read, but a concurrent allocation
	// closes it before the lock is acquired. The stale precondition must not
	// let the payment through.
	closed := s.openInvoice()
	closed.Status = domain.InvoiceStatusClosed

	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(s.openInvoice(), nil).Once()
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(closed, nil).Once()
	s.mockLocker.On("Acquire", s.ctx, "billing:allocation:school-1:invoice-1", 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, "billing:allocation:school-1:invoice-1", "token-1").Return(nil)

	_, _, err := s.service.CreatePayment(s.ctx, "school-1", s.paymentRequest("100"), "actor-1")

	s.Require().ErrorIs(err, services.ErrInvoiceNotOpen)
	s.mockPaymentRepo.AssertNotCalled(s.T(), "SavePaymentAllocation", mock.Anything, mock.Anything)
	s.mockCache.AssertNotCalled(s.T(), "InvalidateBalance", mock.Anything, mock.Anything, mock.Anything)
	s.mockInvoiceRepo.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestRecordOverdueFundsRejectsNotOverdue() {
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(s.openInvoice(), nil)

	req := dto.RecordOverdueFundsRequest{
		Amount: decimal.RequireFromString("50"),
		PaidAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	_, err := s.service.RecordOverdueFunds(s.ctx, "school-1", "invoice-1", req, "actor-1")

	s.Require().ErrorIs(err, services.ErrInvoiceNotOverdue)
	s.mockChargeRepo.AssertNotCalled(s.T(), "SaveCharge", mock.Anything, mock.Anything)
}

func (s *PaymentServiceTestSuite) TestRecordOverdueFundsBooksCarryCredit() {
	invoice := s.openInvoice()
	invoice.DueDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)

	var saved domain.Charge
	s.mockChargeRepo.On("SaveCharge", s.ctx, mock.AnythingOfType("domain.Charge")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Charge)
		}).Return(nil)
	s.mockCache.On("InvalidateBalance", s.ctx, "school-1", "student-1").Return()

	req := dto.RecordOverdueFundsRequest{
		Amount: decimal.RequireFromString("50"),
		PaidAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	credit, err := s.service.RecordOverdueFunds(s.ctx, "school-1", "invoice-1", req, "actor-1")

	s.Require().NoError(err)
	s.Require().NotNil(credit)
	s.True(saved.Amount.Equal(decimal.RequireFromString("-50")))
	s.Equal(domain.ChargeTypePenalty, saved.ChargeType)
	s.Equal(domain.ChargeStatusUnpaid, saved.Status)
	s.Nil(saved.InvoiceID)
	s.Equal("Funds received for overdue invoice invoice-1", saved.Description)
	s.mockCache.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestListPaymentsByStudentAppliesDefaults() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockPaymentRepo.On("ListPaymentsByStudent", s.ctx, "school-1", "student-1", 50, 0).
		Return([]domain.Payment{{PaymentID: "payment-1"}}, nil)

	payments, err := s.service.ListPaymentsByStudent(s.ctx, "school-1", "student-1", dto.ListParams{})

	s.Require().NoError(err)
	s.Len(payments, 1)
	s.mockPaymentRepo.AssertExpectations(s.T())
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
