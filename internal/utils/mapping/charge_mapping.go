package mapping

import (
	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/models"
)

// ToModelCharge converts a domain Charge to a model Charge
func ToModelCharge(d domain.Charge) models.Charge {
	return models.Charge{
		ChargeID:       d.ChargeID,
		SchoolID:       d.SchoolID,
		StudentID:      d.StudentID,
		InvoiceID:      d.InvoiceID,
		OriginChargeID: d.OriginChargeID,
		Description:    d.Description,
		Amount:         d.Amount,
		Period:         d.Period,
		DebtCreatedAt:  d.DebtCreatedAt,
		DueDate:        d.DueDate,
		ChargeType:     models.ChargeType(d.ChargeType),
		Status:         models.ChargeStatus(d.Status),
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCharge converts a model Charge to a domain Charge
func ToDomainCharge(m models.Charge) domain.Charge {
	return domain.Charge{
		ChargeID:       m.ChargeID,
		SchoolID:       m.SchoolID,
		StudentID:      m.StudentID,
		InvoiceID:      m.InvoiceID,
		OriginChargeID: m.OriginChargeID,
		Description:    m.Description,
		Amount:         m.Amount,
		Period:         m.Period,
		DebtCreatedAt:  m.DebtCreatedAt,
		DueDate:        m.DueDate,
		ChargeType:     domain.ChargeType(m.ChargeType),
		Status:         domain.ChargeStatus(m.Status),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainChargeSlice converts a slice of model Charges to domain Charges
func ToDomainChargeSlice(ms []models.Charge) []domain.Charge {
	ds := make([]domain.Charge, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCharge(m)
	}
	return ds
}
