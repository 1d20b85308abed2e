package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/core/services"
	"github.com/mativs/mattilda/internal/dto"
)

type ChargeServiceTestSuite struct {
	suite.Suite
	mockChargeRepo  *MockChargeRepository
	mockPaymentRepo *MockPaymentRepository
	mockStudentRepo *MockStudentRepository
	mockCache       *MockSummaryCache
	service         portssvc.ChargeSvcFacade
	ctx             context.Context
}

func (s *ChargeServiceTestSuite) SetupTest() {
	s.mockChargeRepo = new(MockChargeRepository)
	s.mockPaymentRepo = new(MockPaymentRepository)
	s.mockStudentRepo = new(MockStudentRepository)
	s.mockCache = new(MockSummaryCache)
	s.service = services.NewChargeService(
		s.mockChargeRepo,
		s.mockPaymentRepo,
		s.mockStudentRepo,
		s.mockCache,
		5*time.Minute,
	)
	s.ctx = context.Background()
}

func (s *ChargeServiceTestSuite) TestCreateCharge() {
	req := dto.CreateChargeRequest{
		StudentID:   "student-1",
		Description: "March tuition",
		Amount:      decimal.RequireFromString("350.50"),
		Period:      "2024-03",
		DueDate:     time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC),
		ChargeType:  domain.ChargeTypeFee,
	}
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1", SchoolID: "school-1"}, nil)

	var saved domain.Charge
	s.mockChargeRepo.On("SaveCharge", s.ctx, mock.AnythingOfType("domain.Charge")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Charge)
		}).Return(nil)
	s.mockCache.On("InvalidateBalance", s.ctx, "school-1", "student-1").Return()

	charge, err := s.service.CreateCharge(s.ctx, "school-1", req, "actor-1")

	s.Require().NoError(err)
	s.Require().NotNil(charge)
	s.NotEmpty(charge.ChargeID)
	s.Equal(domain.ChargeStatusUnpaid, saved.Status)
	// The due date is normalized to its UTC calendar day.
	s.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), saved.DueDate)
	s.Equal("actor-1", saved.CreatedBy)
	s.mockCache.AssertExpectations(s.T())
}

func (s *ChargeServiceTestSuite) TestCreateChargeRejectsZeroAmount() {
	req := dto.CreateChargeRequest{
		StudentID:  "student-1",
		Amount:     decimal.Zero,
		ChargeType: domain.ChargeTypeFee,
	}

	_, err := s.service.CreateCharge(s.ctx, "school-1", req, "actor-1")

	s.Require().ErrorIs(err, services.ErrZeroAmount)
	s.mockChargeRepo.AssertNotCalled(s.T(), "SaveCharge", mock.Anything, mock.Anything)
}

func (s *ChargeServiceTestSuite) TestCancelCharge() {
	charge := &domain.Charge{
		ChargeID:  "charge-1",
		SchoolID:  "school-1",
		StudentID: "student-1",
		Status:    domain.ChargeStatusUnpaid,
	}
	s.mockChargeRepo.On("FindChargeByID", s.ctx, "school-1", "charge-1").Return(charge, nil)
	s.mockChargeRepo.On("UpdateChargeStatus", s.ctx, "school-1", "charge-1",
		domain.ChargeStatusCancelled, "actor-1", mock.AnythingOfType("time.Time")).Return(nil)
	s.mockCache.On("InvalidateBalance", s.ctx, "school-1", "student-1").Return()

	err := s.service.CancelCharge(s.ctx, "school-1", "charge-1", "actor-1")

	s.Require().NoError(err)
	s.mockChargeRepo.AssertExpectations(s.T())
	s.mockCache.AssertExpectations(s.T())
}

func (s *ChargeServiceTestSuite) TestCancelChargeRejectsPaidCharge() {
	charge := &domain.Charge{
		ChargeID: "charge-1",
		SchoolID: "school-1",
		Status:   domain.ChargeStatusPaid,
	}
	s.mockChargeRepo.On("FindChargeByID", s.ctx, "school-1", "charge-1").Return(charge, nil)

	err := s.service.CancelCharge(s.ctx, "school-1", "charge-1", "actor-1")

	s.Require().ErrorIs(err, services.ErrChargeNotCancellable)
	s.mockChargeRepo.AssertNotCalled(s.T(), "UpdateChargeStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ChargeServiceTestSuite) TestCancelChargeNotFound() {
	s.mockChargeRepo.On("FindChargeByID", s.ctx, "school-1", "charge-x").Return(nil, apperrors.ErrNotFound)

	err := s.service.CancelCharge(s.ctx, "school-1", "charge-x", "actor-1")

	s.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ChargeServiceTestSuite) TestGetStudentBalanceServedFromCache() {
	cached := &domain.BalanceSummary{
		TotalCharged: decimal.RequireFromString("500"),
		TotalPaid:    decimal.RequireFromString("200"),
		TotalUnpaid:  decimal.RequireFromString("300"),
	}
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockCache.On("GetBalance", s.ctx, "school-1", "student-1").Return(cached)

	summary, err := s.service.GetStudentBalance(s.ctx, "school-1", "student-1")

	s.Require().NoError(err)
	s.Equal(cached, summary)
	s.mockChargeRepo.AssertNotCalled(s.T(), "GetStudentChargeTotals", mock.Anything, mock.Anything, mock.Anything)
	s.mockPaymentRepo.AssertNotCalled(s.T(), "SumPaymentsByStudent", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ChargeServiceTestSuite) TestGetStudentBalanceComputesOnCacheMiss() {
	s.mockStudentRepo.On("FindStudentInSchool", s.ctx, "school-1", "student-1").
		Return(&domain.Student{StudentID: "student-1"}, nil)
	s.mockCache.On("GetBalance", s.ctx, "school-1", "student-1").Return(nil)
	s.mockChargeRepo.On("GetStudentChargeTotals", s.ctx, "school-1", "student-1").
		Return(domain.ChargeTotals{
			Charged:      decimal.RequireFromString("500"),
			UnpaidNet:    decimal.RequireFromString("280"),
			UnpaidDebt:   decimal.RequireFromString("300"),
			UnpaidCredit: decimal.RequireFromString("20"),
		}, nil)
	s.mockPaymentRepo.On("SumPaymentsByStudent", s.ctx, "school-1", "student-1").
		Return(decimal.RequireFromString("200"), nil)
	s.mockCache.On("SetBalance", s.ctx, "school-1", "student-1",
		mock.AnythingOfType("*domain.BalanceSummary"), 5*time.Minute).Return()

	summary, err := s.service.GetStudentBalance(s.ctx, "school-1", "student-1")

	s.Require().NoError(err)
	s.True(summary.TotalCharged.Equal(decimal.RequireFromString("500")))
	s.True(summary.TotalPaid.Equal(decimal.RequireFromString("200")))
	s.True(summary.TotalUnpaid.Equal(decimal.RequireFromString("280")))
	s.True(summary.TotalUnpaidDebt.Equal(decimal.RequireFromString("300")))
	s.True(summary.TotalUnpaidCredit.Equal(decimal.RequireFromString("20")))
	s.mockCache.AssertExpectations(s.T())
}

func TestChargeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ChargeServiceTestSuite))
}
