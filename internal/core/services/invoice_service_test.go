package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/core/services"
)

type InvoiceServiceTestSuite struct {
	suite.Suite
	mockChargeRepo  *MockChargeRepository
	mockInvoiceRepo *MockInvoiceRepository
	mockStudentRepo *MockStudentRepository
	mockLocker      *MockLocker
	service         portssvc.InvoiceSvcFacade
	ctx             context.Context
}

func (s *InvoiceServiceTestSuite) SetupTest() {
	s.mockChargeRepo = new(MockChargeRepository)
	s.mockInvoiceRepo = new(MockInvoiceRepository)
	s.mockStudentRepo = new(MockStudentRepository)
	s.mockLocker = new(MockLocker)
	s.service = services.NewInvoiceService(
		s.mockChargeRepo,
		s.mockInvoiceRepo,
		s.mockStudentRepo,
		s.mockLocker,
		decimal.RequireFromString("0.02"),
		30*time.Second,
	)
	s.ctx = context.Background()
}

func (s *InvoiceServiceTestSuite) student(studentID string) *domain.Student {
	return &domain.Student{StudentID: studentID, SchoolID: "school-1"}
}

func (s *InvoiceServiceTestSuite) TestGenerateRollsOverOpenInvoice() {
	asOf := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	unpaid := []domain.Charge{
		{
			ChargeID:   "charge-1",
			SchoolID:   "school-1",
			StudentID:  "student-1",
			Amount:     decimal.RequireFromString("300"),
			DueDate:    asOf.AddDate(0, 1, 0),
			ChargeType: domain.ChargeTypeFee,
			Status:     domain.ChargeStatusUnpaid,
		},
		{
			ChargeID:   "charge-2",
			SchoolID:   "school-1",
			StudentID:  "student-1",
			Amount:     decimal.RequireFromString("-50"),
			DueDate:    asOf.AddDate(0, -1, 0),
			ChargeType: domain.ChargeTypePenalty,
			Status:     domain.ChargeStatusUnpaid,
		},
	}

	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").Return(s.student("student-1"), nil)
	s.mockLocker.On("Acquire", s.ctx, "billing:generation:school-1:student-1", 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, "billing:generation:school-1:student-1", "token-1").Return(nil)
	s.mockChargeRepo.On("FindUnpaidChargesByStudent", s.ctx, "school-1", "student-1").Return(unpaid, nil)
	s.mockInvoiceRepo.On("FindOpenInvoiceByStudent", s.ctx, "school-1", "student-1").
		Return(&domain.Invoice{InvoiceID: "invoice-old", Status: domain.InvoiceStatusOpen}, nil)

	var saved domain.InvoiceRollover
	s.mockInvoiceRepo.On("SaveInvoiceRollover", s.ctx, mock.AnythingOfType("domain.InvoiceRollover")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.InvoiceRollover)
		}).Return(nil)

	invoice, err := s.service.Generate(s.ctx, "school-1", "student-1", asOf, "actor-1")

	s.Require().NoError(err)
	s.Require().NotNil(invoice)
	s.Equal("2024-03", invoice.Period)
	s.Equal(domain.InvoiceStatusOpen, invoice.Status)
	s.True(invoice.TotalAmount.Equal(decimal.RequireFromString("250")), "got %s", invoice.TotalAmount)
	s.Len(invoice.Items, 2)

	s.Equal([]string{"invoice-old"}, saved.CloseInvoiceIDs)
	s.ElementsMatch([]string{"charge-1", "charge-2"}, saved.BilledChargeIDs)
	s.Empty(saved.NewInterestCharges)
	s.mockInvoiceRepo.AssertExpectations(s.T())
	s.mockLocker.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestGenerateAccruesInterestOnOverdueFees() {
	asOf := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	unpaid := []domain.Charge{{
		ChargeID:   "charge-1",
		SchoolID:   "school-1",
		StudentID:  "student-1",
		Amount:     decimal.RequireFromString("1000"),
		DueDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), // 15 days overdue
		ChargeType: domain.ChargeTypeFee,
		Status:     domain.ChargeStatusUnpaid,
	}}

	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").Return(s.student("student-1"), nil)
	s.mockLocker.On("Acquire", s.ctx, mock.Anything, 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, mock.Anything, "token-1").Return(nil)
	s.mockChargeRepo.On("FindUnpaidChargesByStudent", s.ctx, "school-1", "student-1").Return(unpaid, nil)
	s.mockChargeRepo.On("FindInterestChargesByOrigins", s.ctx, "school-1", "student-1", []string{"charge-1"}).
		Return(map[string][]domain.Charge{}, nil)
	s.mockInvoiceRepo.On("FindOpenInvoiceByStudent", s.ctx, "school-1", "student-1").
		Return(nil, apperrors.ErrNotFound)

	var saved domain.InvoiceRollover
	s.mockInvoiceRepo.On("SaveInvoiceRollover", s.ctx, mock.AnythingOfType("domain.InvoiceRollover")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.InvoiceRollover)
		}).Return(nil)

	invoice, err := s.service.Generate(s.ctx, "school-1", "student-1", asOf, "actor-1")

	s.Require().NoError(err)
	// 1000 * 0.02 * 15/30 = 10 of fresh interest billed alongside the fee.
	s.Require().Len(saved.NewInterestCharges, 1)
	s.True(saved.NewInterestCharges[0].Amount.Equal(decimal.RequireFromString("10")))
	s.Equal("charge-1", *saved.NewInterestCharges[0].OriginChargeID)
	s.Empty(saved.CloseInvoiceIDs)
	s.True(invoice.TotalAmount.Equal(decimal.RequireFromString("1010")), "got %s", invoice.TotalAmount)
	s.mockChargeRepo.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestGenerateNoChargesToInvoice() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").Return(s.student("student-1"), nil)
	s.mockLocker.On("Acquire", s.ctx, mock.Anything, 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, mock.Anything, "token-1").Return(nil)
	s.mockChargeRepo.On("FindUnpaidChargesByStudent", s.ctx, "school-1", "student-1").Return([]domain.Charge{}, nil)

	invoice, err := s.service.Generate(s.ctx, "school-1", "student-1", time.Now().UTC(), "actor-1")

	s.Require().ErrorIs(err, services.ErrNoChargesToInvoice)
	s.Nil(invoice)
	s.mockInvoiceRepo.AssertNotCalled(s.T(), "SaveInvoiceRollover", mock.Anything, mock.Anything)
}

func (s *InvoiceServiceTestSuite) TestGenerateLockContentionFailsClosed() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").Return(s.student("student-1"), nil)
	s.mockLocker.On("Acquire", s.ctx, mock.Anything, 30*time.Second).Return("", errors.New("redis unreachable"))

	invoice, err := s.service.Generate(s.ctx, "school-1", "student-1", time.Now().UTC(), "actor-1")

	s.Require().ErrorIs(err, services.ErrLockContention)
	s.Nil(invoice)
	s.mockChargeRepo.AssertNotCalled(s.T(), "FindUnpaidChargesByStudent", mock.Anything, mock.Anything, mock.Anything)
	s.mockInvoiceRepo.AssertNotCalled(s.T(), "SaveInvoiceRollover", mock.Anything, mock.Anything)
}

func (s *InvoiceServiceTestSuite) TestGenerateStudentNotFound() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-x").Return(nil, apperrors.ErrNotFound)

	invoice, err := s.service.Generate(s.ctx, "school-1", "student-x", time.Now().UTC(), "actor-1")

	s.Require().ErrorIs(err, apperrors.ErrNotFound)
	s.Nil(invoice)
	s.mockLocker.AssertNotCalled(s.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (s *InvoiceServiceTestSuite) TestGenerateForSchoolIsolatesFailures() {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.mockStudentRepo.On("ListStudentIDsBySchool", s.ctx, "school-1").
		Return([]string{"student-1", "student-2", "student-3"}, nil)

	for _, studentID := range []string{"student-1", "student-2", "student-3"} {
		s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", studentID).Return(s.student(studentID), nil)
	}

	// student-1 generates an invoice.
	s.mockLocker.On("Acquire", s.ctx, "billing:generation:school-1:student-1", 30*time.Second).Return("token-1", nil)
	s.mockLocker.On("Release", mock.Anything, "billing:generation:school-1:student-1", "token-1").Return(nil)
	s.mockChargeRepo.On("FindUnpaidChargesByStudent", s.ctx, "school-1", "student-1").
		Return([]domain.Charge{{
			ChargeID:   "charge-1",
			Amount:     decimal.RequireFromString("100"),
			DueDate:    asOf.AddDate(0, 1, 0),
			ChargeType: domain.ChargeTypeFee,
			Status:     domain.ChargeStatusUnpaid,
		}}, nil)
	s.mockInvoiceRepo.On("FindOpenInvoiceByStudent", s.ctx, "school-1", "student-1").Return(nil, apperrors.ErrNotFound)
	s.mockInvoiceRepo.On("SaveInvoiceRollover", s.ctx, mock.AnythingOfType("domain.InvoiceRollover")).Return(nil)

	// student-2 has nothing to bill.
	s.mockLocker.On("Acquire", s.ctx, "billing:generation:school-1:student-2", 30*time.Second).Return("token-2", nil)
	s.mockLocker.On("Release", mock.Anything, "billing:generation:school-1:student-2", "token-2").Return(nil)
	s.mockChargeRepo.On("FindUnpaidChargesByStudent", s.ctx, "school-1", "student-2").Return([]domain.Charge{}, nil)

	// student-3 hits lock contention.
	s.mockLocker.On("Acquire", s.ctx, "billing:generation:school-1:student-3", 30*time.Second).
		Return("", errors.New("lock held"))

	summary, err := s.service.GenerateForSchool(s.ctx, "school-1", asOf, "actor-1")

	s.Require().NoError(err)
	s.Equal(3, summary.ProcessedStudents)
	s.Equal(1, summary.GeneratedStudents)
	s.Equal(1, summary.SkippedStudents)
	s.Equal(1, summary.FailedStudents)
	s.Require().Len(summary.Errors, 2)
	s.Equal("student-2", summary.Errors[0].StudentID)
	s.Equal("skipped", summary.Errors[0].Kind)
	s.Equal("student-3", summary.Errors[1].StudentID)
	s.Equal("failed", summary.Errors[1].Kind)
}

func (s *InvoiceServiceTestSuite) TestGetInvoiceByIDLoadsItems() {
	invoice := &domain.Invoice{InvoiceID: "invoice-1", SchoolID: "school-1", StudentID: "student-1"}
	items := []domain.InvoiceItem{{ItemID: "item-1", InvoiceID: "invoice-1", ChargeID: "charge-1"}}
	s.mockInvoiceRepo.On("FindInvoiceByID", s.ctx, "school-1", "invoice-1").Return(invoice, nil)
	s.mockInvoiceRepo.On("FindItemsByInvoiceID", s.ctx, "invoice-1").Return(items, nil)

	got, err := s.service.GetInvoiceByID(s.ctx, "school-1", "invoice-1")

	s.Require().NoError(err)
	s.Equal(items, got.Items)
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}
