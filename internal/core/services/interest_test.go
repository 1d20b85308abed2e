package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mativs/mattilda/internal/core/domain"
)

var testMonthlyRate = decimal.RequireFromString("0.02")

func feeCharge(id string, amount string, dueDate time.Time) domain.Charge {
	return domain.Charge{
		ChargeID:   id,
		SchoolID:   "school-1",
		StudentID:  "student-1",
		Amount:     decimal.RequireFromString(amount),
		Period:     "2024-01",
		DueDate:    dueDate,
		ChargeType: domain.ChargeTypeFee,
		Status:     domain.ChargeStatusUnpaid,
	}
}

func TestEntitledInterest(t *testing.T) {
	// 1000 * 0.02 * 15/30 = 10.00
	got := entitledInterest(decimal.NewFromInt(1000), testMonthlyRate, 15)
	assert.True(t, got.Equal(decimal.RequireFromString("10")), "got %s", got)

	// 1000 * 0.02 * 30/30 = one full month
	got = entitledInterest(decimal.NewFromInt(1000), testMonthlyRate, 30)
	assert.True(t, got.Equal(decimal.RequireFromString("20")), "got %s", got)

	// 100 * 0.02 * 7/30 = 0.4666... rounds half-even to 0.47
	got = entitledInterest(decimal.NewFromInt(100), testMonthlyRate, 7)
	assert.True(t, got.Equal(decimal.RequireFromString("0.47")), "got %s", got)
}

func TestEntitledInterestRoundsHalfEven(t *testing.T) {
	// 93.75 * 0.02 * 2/30 = 0.125 exactly; half-even rounds to 0.12, not 0.13
	got := entitledInterest(decimal.RequireFromString("93.75"), testMonthlyRate, 2)
	assert.True(t, got.Equal(decimal.RequireFromString("0.12")), "got %s", got)

	// 56.25 * 0.02 * 10/30 = 0.375 exactly; half-even rounds to 0.38
	got = entitledInterest(decimal.RequireFromString("56.25"), testMonthlyRate, 10)
	assert.True(t, got.Equal(decimal.RequireFromString("0.38")), "got %s", got)
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, 1, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, int64(1), daysBetween(from, to))
	assert.Equal(t, int64(-1), daysBetween(to, from))
	assert.Equal(t, int64(0), daysBetween(from, from))
}

func TestAccrueInterestCharges(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	dueDate := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) // 15 days overdue

	base := feeCharge("charge-1", "1000", dueDate)
	accrued := accrueInterestCharges([]domain.Charge{base}, nil, testMonthlyRate, asOf, now, "actor-1")

	require.Len(t, accrued, 1)
	interest := accrued[0]
	assert.True(t, interest.Amount.Equal(decimal.RequireFromString("10")), "got %s", interest.Amount)
	assert.Equal(t, domain.ChargeTypeInterest, interest.ChargeType)
	assert.Equal(t, domain.ChargeStatusUnpaid, interest.Status)
	require.NotNil(t, interest.OriginChargeID)
	assert.Equal(t, "charge-1", *interest.OriginChargeID)
	assert.Equal(t, "Interest for charge charge-1", interest.Description)
	assert.Equal(t, base.Period, interest.Period)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), interest.DueDate)
	assert.Nil(t, interest.InvoiceID)
}

func TestAccrueInterestChargesEmitsOnlyPositiveDelta(t *testing.T) {
	now := time.Now().UTC()
	dueDate := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	base := feeCharge("charge-1", "1000", dueDate)
	existing := map[string][]domain.Charge{
		"charge-1": {{
			ChargeID:   "interest-1",
			Amount:     decimal.RequireFromString("6"),
			ChargeType: domain.ChargeTypeInterest,
		}},
	}

	accrued := accrueInterestCharges([]domain.Charge{base}, existing, testMonthlyRate, asOf, now, "actor-1")
	require.Len(t, accrued, 1)
	assert.True(t, accrued[0].Amount.Equal(decimal.RequireFromString("4")), "got %s", accrued[0].Amount)
}

func TestAccrueInterestChargesIdempotentWithinSameDay(t *testing.T) {
	now := time.Now().UTC()
	dueDate := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	base := feeCharge("charge-1", "1000", dueDate)
	first := accrueInterestCharges([]domain.Charge{base}, nil, testMonthlyRate, asOf, now, "actor-1")
	require.Len(t, first, 1)

	// A second pass with the first interest charge already on the ledger
	// accrues nothing more for the same asOf day.
	existing := map[string][]domain.Charge{"charge-1": first}
	second := accrueInterestCharges([]domain.Charge{base}, existing, testMonthlyRate, asOf, now, "actor-1")
	assert.Empty(t, second)
}

func TestAccrueInterestChargesSkipsNonFeeAndNotOverdue(t *testing.T) {
	now := time.Now().UTC()
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	overdue := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	notDue := feeCharge("charge-future", "500", asOf.AddDate(0, 0, 10))
	dueToday := feeCharge("charge-today", "500", asOf)

	penalty := feeCharge("charge-penalty", "500", overdue)
	penalty.ChargeType = domain.ChargeTypePenalty

	interestDebt := feeCharge("charge-interest", "500", overdue)
	interestDebt.ChargeType = domain.ChargeTypeInterest

	credit := feeCharge("charge-credit", "-200", overdue)

	unpaid := []domain.Charge{notDue, dueToday, penalty, interestDebt, credit}
	accrued := accrueInterestCharges(unpaid, nil, testMonthlyRate, asOf, now, "actor-1")
	assert.Empty(t, accrued)
}
