package mapping

import (
	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:   d.PaymentID,
		SchoolID:    d.SchoolID,
		StudentID:   d.StudentID,
		InvoiceID:   d.InvoiceID,
		Amount:      d.Amount,
		PaidAt:      d.PaidAt,
		Method:      d.Method,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:   m.PaymentID,
		SchoolID:    m.SchoolID,
		StudentID:   m.StudentID,
		InvoiceID:   m.InvoiceID,
		Amount:      m.Amount,
		PaidAt:      m.PaidAt,
		Method:      m.Method,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model Payments to domain Payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
