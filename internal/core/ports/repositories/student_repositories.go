package repositories

import (
	"context"

	"github.com/mativs/mattilda/internal/core/domain"
)

// StudentReader defines read operations for student enrollment data.
// Students are managed upstream; the billing engine only reads them.
type StudentReader interface {
	// FindStudentInSchool retrieves a student enrolled in the school,
	// or apperrors.ErrNotFound.
	FindStudentInSchool(ctx context.Context, schoolID, studentID string) (*domain.Student, error)

	// ListStudentIDsBySchool retrieves the IDs of all enrolled students.
	ListStudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error)
}

// StudentRepositoryFacade is the student repository surface used by services.
type StudentRepositoryFacade interface {
	StudentReader
}
