package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mativs/mattilda/internal/core/domain"
)

var averageMonthDays = decimal.NewFromInt(30)

// utcDay truncates an instant to its UTC calendar day.
func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from one UTC day to another.
func daysBetween(from, to time.Time) int64 {
	return int64(utcDay(to).Sub(utcDay(from)).Hours() / 24)
}

// entitledInterest computes the total interest owed on a principal that has
// been overdue for the given number of days, at a monthly rate prorated over
// a 30-day month. Rounded half-even to currency precision.
func entitledInterest(principal decimal.Decimal, monthlyRate decimal.Decimal, overdueDays int64) decimal.Decimal {
	return principal.
		Mul(monthlyRate).
		Mul(decimal.NewFromInt(overdueDays)).
		Div(averageMonthDays).
		RoundBank(2)
}

// accrueInterestCharges emits at most one new interest charge per overdue fee
// charge: the delta between the interest entitled as of asOf and the interest
// already accrued against that fee. Only fee-type debt is a principal, so
// interest never compounds, and a re-run within an unchanged overdue window
// yields no new charges.
func accrueInterestCharges(
	unpaid []domain.Charge,
	interestByOrigin map[string][]domain.Charge,
	monthlyRate decimal.Decimal,
	asOf time.Time,
	now time.Time,
	actorID string,
) []domain.Charge {
	var accrued []domain.Charge
	for _, base := range unpaid {
		if base.ChargeType != domain.ChargeTypeFee || !base.IsDebt() {
			continue
		}
		overdueDays := daysBetween(base.DueDate, asOf)
		if overdueDays <= 0 {
			continue
		}
		entitled := entitledInterest(base.Amount, monthlyRate, overdueDays)

		alreadyAccrued := decimal.Zero
		for _, existing := range interestByOrigin[base.ChargeID] {
			alreadyAccrued = alreadyAccrued.Add(existing.Amount)
		}

		delta := entitled.Sub(alreadyAccrued).RoundBank(2)
		if !delta.IsPositive() {
			continue
		}

		originID := base.ChargeID
		accrued = append(accrued, domain.Charge{
			ChargeID:       uuid.NewString(),
			SchoolID:       base.SchoolID,
			StudentID:      base.StudentID,
			OriginChargeID: &originID,
			Description:    fmt.Sprintf("Interest for charge %s", base.ChargeID),
			Amount:         delta,
			Period:         base.Period,
			DebtCreatedAt:  now,
			DueDate:        utcDay(asOf),
			ChargeType:     domain.ChargeTypeInterest,
			Status:         domain.ChargeStatusUnpaid,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		})
	}
	return accrued
}
