package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	"github.com/mativs/mattilda/internal/models"
	"github.com/mativs/mattilda/internal/utils/mapping"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, school_id, student_id, invoice_id, amount, paid_at, method,
       created_at, created_by, last_updated_at, last_updated_by`

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()
	var modelPayments []models.Payment
	for rows.Next() {
		var m models.Payment
		err := rows.Scan(
			&m.PaymentID,
			&m.SchoolID,
			&m.StudentID,
			&m.InvoiceID,
			&m.Amount,
			&m.PaidAt,
			&m.Method,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, err
		}
		modelPayments = append(modelPayments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(modelPayments), nil
}

// SavePaymentAllocation persists one allocation pass atomically: the payment
// row, every settled charge, the optional carry credit, and the invoice
// closure commit together or not at all.
func (r *PgxPaymentRepository) SavePaymentAllocation(ctx context.Context, alloc domain.PaymentAllocation) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelPayment(alloc.Payment)
	paymentQuery := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, paymentQuery,
		m.PaymentID,
		m.SchoolID,
		m.StudentID,
		m.InvoiceID,
		m.Amount,
		m.PaidAt,
		m.Method,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert payment "+m.PaymentID, err)
	}

	if len(alloc.PaidChargeIDs) > 0 {
		settleQuery := `
			UPDATE charges
			SET status = 'paid', last_updated_by = $2, last_updated_at = $3
			WHERE charge_id = ANY($1) AND status = 'unpaid';
		`
		if _, err := tx.Exec(ctx, settleQuery, alloc.PaidChargeIDs, m.CreatedBy, m.CreatedAt); err != nil {
			return apperrors.NewAppError(500, "failed to settle charges for payment "+m.PaymentID, err)
		}
	}

	if alloc.CreditCharge != nil {
		if err := insertCharge(ctx, tx, *alloc.CreditCharge); err != nil {
			return apperrors.NewAppError(500, "failed to insert carry credit for payment "+m.PaymentID, err)
		}
	}

	closeQuery := `
		UPDATE invoices
		SET status = 'closed', last_updated_by = $2, last_updated_at = $3
		WHERE invoice_id = $1 AND status = 'open';
	`
	if _, err := tx.Exec(ctx, closeQuery, alloc.CloseInvoiceID, m.CreatedBy, m.CreatedAt); err != nil {
		return apperrors.NewAppError(500, "failed to close invoice "+alloc.CloseInvoiceID, err)
	}

	return r.Commit(ctx, tx)
}

// ListPaymentsByStudent retrieves a student's payments, newest first.
func (r *PgxPaymentRepository) ListPaymentsByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE school_id = $1 AND student_id = $2
		ORDER BY paid_at DESC, payment_id DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, studentID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list payments for student "+studentID, err)
	}
	return collectPayments(rows)
}

// ListPaymentsBySchool retrieves all payments of a school.
func (r *PgxPaymentRepository) ListPaymentsBySchool(ctx context.Context, schoolID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE school_id = $1 ORDER BY payment_id;`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list payments for school "+schoolID, err)
	}
	return collectPayments(rows)
}

// SumPaymentsByStudent totals a student's payments.
func (r *PgxPaymentRepository) SumPaymentsByStudent(ctx context.Context, schoolID, studentID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE school_id = $1 AND student_id = $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, schoolID, studentID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum payments for student "+studentID, err)
	}
	return total, nil
}
