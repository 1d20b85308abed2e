package mapping

import (
	"github.com/mativs/mattilda/internal/core/domain"
	"github.com/mativs/mattilda/internal/models"
)

func ToDomainStudent(m models.Student) domain.Student {
	return domain.Student{
		StudentID:   m.StudentID,
		SchoolID:    m.SchoolID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		ExternalID:  m.ExternalID,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
