package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	"github.com/mativs/mattilda/internal/models"
	"github.com/mativs/mattilda/internal/utils/mapping"
)

type PgxStudentRepository struct {
	BaseRepository
}

// newPgxStudentRepository creates a read-only repository for enrollment data.
func newPgxStudentRepository(pool *pgxpool.Pool) portsrepo.StudentRepositoryFacade {
	return &PgxStudentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StudentRepositoryFacade = (*PgxStudentRepository)(nil)

// FindStudentInSchool retrieves a student enrolled in the school.
func (r *PgxStudentRepository) FindStudentInSchool(ctx context.Context, schoolID, studentID string) (*domain.Student, error) {
	query := `
		SELECT student_id, school_id, first_name, last_name, external_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM students
		WHERE school_id = $1 AND student_id = $2;
	`
	var m models.Student
	err := r.Pool.QueryRow(ctx, query, schoolID, studentID).Scan(
		&m.StudentID,
		&m.SchoolID,
		&m.FirstName,
		&m.LastName,
		&m.ExternalID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find student "+studentID, err)
	}
	student := mapping.ToDomainStudent(m)
	return &student, nil
}

// ListStudentIDsBySchool retrieves the IDs of all enrolled students.
func (r *PgxStudentRepository) ListStudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	query := `SELECT student_id FROM students WHERE school_id = $1 ORDER BY student_id;`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list students for school "+schoolID, err)
	}
	defer rows.Close()

	var studentIDs []string
	for rows.Next() {
		var studentID string
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		studentIDs = append(studentIDs, studentID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return studentIDs, nil
}
