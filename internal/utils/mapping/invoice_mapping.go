package mapping

import (
	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:   d.InvoiceID,
		SchoolID:    d.SchoolID,
		StudentID:   d.StudentID,
		Period:      d.Period,
		IssuedAt:    d.IssuedAt,
		DueDate:     d.DueDate,
		TotalAmount: d.TotalAmount,
		Status:      models.InvoiceStatus(d.Status),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:   m.InvoiceID,
		SchoolID:    m.SchoolID,
		StudentID:   m.StudentID,
		Period:      m.Period,
		IssuedAt:    m.IssuedAt,
		DueDate:     m.DueDate,
		TotalAmount: m.TotalAmount,
		Status:      domain.InvoiceStatus(m.Status),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInvoiceItem converts a domain InvoiceItem to a model InvoiceItem
func ToModelInvoiceItem(d domain.InvoiceItem) models.InvoiceItem {
	return models.InvoiceItem{
		ItemID:      d.ItemID,
		InvoiceID:   d.InvoiceID,
		ChargeID:    d.ChargeID,
		Description: d.Description,
		Amount:      d.Amount,
		ChargeType:  models.ChargeType(d.ChargeType),
		CreatedAt:   d.CreatedAt,
	}
}

// ToDomainInvoiceItem converts a model InvoiceItem to a domain InvoiceItem
func ToDomainInvoiceItem(m models.InvoiceItem) domain.InvoiceItem {
	return domain.InvoiceItem{
		ItemID:      m.ItemID,
		InvoiceID:   m.InvoiceID,
		ChargeID:    m.ChargeID,
		Description: m.Description,
		Amount:      m.Amount,
		ChargeType:  domain.ChargeType(m.ChargeType),
		CreatedAt:   m.CreatedAt,
	}
}

// ToDomainInvoiceItemSlice converts model InvoiceItems to domain InvoiceItems
func ToDomainInvoiceItemSlice(ms []models.InvoiceItem) []domain.InvoiceItem {
	ds := make([]domain.InvoiceItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInvoiceItem(m)
	}
	return ds
}
