package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	"github.com/mativs/mattilda/internal/models"
	"github.com/mativs/mattilda/internal/utils/mapping"
)

type PgxChargeRepository struct {
	BaseRepository
}

// newPgxChargeRepository creates a new repository for charge data.
func newPgxChargeRepository(pool *pgxpool.Pool) portsrepo.ChargeRepositoryFacade {
	return &PgxChargeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ChargeRepositoryFacade = (*PgxChargeRepository)(nil)

const chargeColumns = `charge_id, school_id, student_id, invoice_id, origin_charge_id, description, amount, period,
       debt_created_at, due_date, charge_type, status, created_at, created_by, last_updated_at, last_updated_by`

func scanCharge(row pgx.Row) (models.Charge, error) {
	var m models.Charge
	var invoiceID, originChargeID sql.NullString
	err := row.Scan(
		&m.ChargeID,
		&m.SchoolID,
		&m.StudentID,
		&invoiceID,
		&originChargeID,
		&m.Description,
		&m.Amount,
		&m.Period,
		&m.DebtCreatedAt,
		&m.DueDate,
		&m.ChargeType,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return m, err
	}
	if invoiceID.Valid {
		m.InvoiceID = &invoiceID.String
	}
	if originChargeID.Valid {
		m.OriginChargeID = &originChargeID.String
	}
	return m, nil
}

func collectCharges(rows pgx.Rows) ([]domain.Charge, error) {
	defer rows.Close()
	var modelCharges []models.Charge
	for rows.Next() {
		m, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		modelCharges = append(modelCharges, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainChargeSlice(modelCharges), nil
}

// insertCharge writes one charge row through a pool or an open transaction.
func insertCharge(ctx context.Context, q execer, charge domain.Charge) error {
	m := mapping.ToModelCharge(charge)
	query := `
		INSERT INTO charges (` + chargeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := q.Exec(ctx, query,
		m.ChargeID,
		m.SchoolID,
		m.StudentID,
		m.InvoiceID,
		m.OriginChargeID,
		m.Description,
		m.Amount,
		m.Period,
		m.DebtCreatedAt,
		m.DueDate,
		m.ChargeType,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return err
}

// SaveCharge persists a new charge.
func (r *PgxChargeRepository) SaveCharge(ctx context.Context, charge domain.Charge) error {
	if err := insertCharge(ctx, r.Pool, charge); err != nil {
		return apperrors.NewAppError(500, "failed to insert charge "+charge.ChargeID, err)
	}
	return nil
}

// UpdateChargeStatus transitions a charge's status; the amount is immutable.
func (r *PgxChargeRepository) UpdateChargeStatus(ctx context.Context, schoolID, chargeID string, status domain.ChargeStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE charges
		SET status = $3, last_updated_by = $4, last_updated_at = $5
		WHERE school_id = $1 AND charge_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query, schoolID, chargeID, string(status), updatedBy, updatedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of charge "+chargeID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindChargeByID retrieves a charge scoped to a school.
func (r *PgxChargeRepository) FindChargeByID(ctx context.Context, schoolID, chargeID string) (*domain.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE school_id = $1 AND charge_id = $2;`
	m, err := scanCharge(r.Pool.QueryRow(ctx, query, schoolID, chargeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find charge by ID "+chargeID, err)
	}
	charge := mapping.ToDomainCharge(m)
	return &charge, nil
}

// FindUnpaidChargesByStudent retrieves every unpaid charge for a student,
// credits included, in stable ID order.
func (r *PgxChargeRepository) FindUnpaidChargesByStudent(ctx context.Context, schoolID, studentID string) ([]domain.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE school_id = $1 AND student_id = $2 AND status = 'unpaid'
		ORDER BY charge_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, studentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unpaid charges for student "+studentID, err)
	}
	return collectCharges(rows)
}

// FindInterestChargesByOrigins retrieves non-cancelled interest charges
// grouped by their origin fee charge.
func (r *PgxChargeRepository) FindInterestChargesByOrigins(ctx context.Context, schoolID, studentID string, originChargeIDs []string) (map[string][]domain.Charge, error) {
	grouped := make(map[string][]domain.Charge, len(originChargeIDs))
	if len(originChargeIDs) == 0 {
		return grouped, nil
	}
	query := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE school_id = $1 AND student_id = $2
		  AND charge_type = 'interest' AND status <> 'cancelled'
		  AND origin_charge_id = ANY($3)
		ORDER BY charge_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, studentID, originChargeIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query interest charges for student "+studentID, err)
	}
	charges, err := collectCharges(rows)
	if err != nil {
		return nil, err
	}
	for _, charge := range charges {
		if charge.OriginChargeID != nil {
			grouped[*charge.OriginChargeID] = append(grouped[*charge.OriginChargeID], charge)
		}
	}
	return grouped, nil
}

// FindChargesByInvoiceID retrieves the non-cancelled charges billed on an invoice.
func (r *PgxChargeRepository) FindChargesByInvoiceID(ctx context.Context, schoolID, invoiceID string) ([]domain.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE school_id = $1 AND invoice_id = $2 AND status <> 'cancelled'
		ORDER BY charge_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, invoiceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charges for invoice "+invoiceID, err)
	}
	return collectCharges(rows)
}

// ListChargesBySchool retrieves all charges of a school, cancelled included.
func (r *PgxChargeRepository) ListChargesBySchool(ctx context.Context, schoolID string) ([]domain.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE school_id = $1 ORDER BY charge_id;`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charges for school "+schoolID, err)
	}
	return collectCharges(rows)
}

// GetStudentChargeTotals aggregates a student's charge figures in one pass.
func (r *PgxChargeRepository) GetStudentChargeTotals(ctx context.Context, schoolID, studentID string) (domain.ChargeTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status <> 'cancelled' AND amount > 0), 0) AS charged,
			COALESCE(SUM(amount) FILTER (WHERE status = 'unpaid'), 0) AS unpaid_net,
			COALESCE(SUM(amount) FILTER (WHERE status = 'unpaid' AND amount > 0), 0) AS unpaid_debt,
			COALESCE(ABS(SUM(amount) FILTER (WHERE status = 'unpaid' AND amount < 0)), 0) AS unpaid_credit
		FROM charges
		WHERE school_id = $1 AND student_id = $2;
	`
	var totals domain.ChargeTotals
	err := r.Pool.QueryRow(ctx, query, schoolID, studentID).Scan(
		&totals.Charged,
		&totals.UnpaidNet,
		&totals.UnpaidDebt,
		&totals.UnpaidCredit,
	)
	if err != nil {
		return domain.ChargeTotals{}, apperrors.NewAppError(500, "failed to aggregate charges for student "+studentID, err)
	}
	return totals, nil
}
