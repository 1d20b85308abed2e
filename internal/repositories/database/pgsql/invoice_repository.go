package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	"github.com/mativs/mattilda/internal/models"
	"github.com/mativs/mattilda/internal/utils/mapping"
)

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoice and item data.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, school_id, student_id, period, issued_at, due_date, total_amount, status,
       created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.SchoolID,
		&m.StudentID,
		&m.Period,
		&m.IssuedAt,
		&m.DueDate,
		&m.TotalAmount,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectInvoices(rows pgx.Rows) ([]domain.Invoice, error) {
	defer rows.Close()
	var invoices []domain.Invoice
	for rows.Next() {
		m, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, mapping.ToDomainInvoice(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// SaveInvoiceRollover persists one generation pass atomically: new interest
// charges, closure of the prior open invoice, the new invoice with its item
// snapshots, and the linking of every billed charge.
func (r *PgxInvoiceRepository) SaveInvoiceRollover(ctx context.Context, rollover domain.InvoiceRollover) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	for _, charge := range rollover.NewInterestCharges {
		if err := insertCharge(ctx, tx, charge); err != nil {
			return apperrors.NewAppError(500, "failed to insert interest charge "+charge.ChargeID, err)
		}
	}

	modelInvoice := mapping.ToModelInvoice(rollover.Invoice)
	if len(rollover.CloseInvoiceIDs) > 0 {
		closeQuery := `
			UPDATE invoices
			SET status = 'closed', last_updated_by = $2, last_updated_at = $3
			WHERE invoice_id = ANY($1) AND status = 'open';
		`
		if _, err := tx.Exec(ctx, closeQuery, rollover.CloseInvoiceIDs, modelInvoice.CreatedBy, modelInvoice.CreatedAt); err != nil {
			return apperrors.NewAppError(500, "failed to close prior invoices", err)
		}
	}

	invoiceQuery := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, invoiceQuery,
		modelInvoice.InvoiceID,
		modelInvoice.SchoolID,
		modelInvoice.StudentID,
		modelInvoice.Period,
		modelInvoice.IssuedAt,
		modelInvoice.DueDate,
		modelInvoice.TotalAmount,
		modelInvoice.Status,
		modelInvoice.CreatedAt,
		modelInvoice.CreatedBy,
		modelInvoice.LastUpdatedAt,
		modelInvoice.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert invoice "+modelInvoice.InvoiceID, err)
	}

	batch := &pgx.Batch{}
	itemQuery := `
		INSERT INTO invoice_items (item_id, invoice_id, charge_id, description, amount, charge_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, item := range rollover.Items {
		m := mapping.ToModelInvoiceItem(item)
		batch.Queue(itemQuery, m.ItemID, m.InvoiceID, m.ChargeID, m.Description, m.Amount, m.ChargeType, m.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert items for invoice "+modelInvoice.InvoiceID, err)
	}

	if len(rollover.BilledChargeIDs) > 0 {
		linkQuery := `
			UPDATE charges
			SET invoice_id = $1, last_updated_by = $3, last_updated_at = $4
			WHERE charge_id = ANY($2);
		`
		if _, err := tx.Exec(ctx, linkQuery, modelInvoice.InvoiceID, rollover.BilledChargeIDs, modelInvoice.CreatedBy, modelInvoice.CreatedAt); err != nil {
			return apperrors.NewAppError(500, "failed to link billed charges to invoice "+modelInvoice.InvoiceID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindInvoiceByID retrieves an invoice scoped to a school.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, schoolID, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE school_id = $1 AND invoice_id = $2;`
	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, schoolID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice by ID "+invoiceID, err)
	}
	invoice := mapping.ToDomainInvoice(m)
	return &invoice, nil
}

// FindOpenInvoiceByStudent retrieves the student's open invoice. At most one
// exists; the unique index enforces it.
func (r *PgxInvoiceRepository) FindOpenInvoiceByStudent(ctx context.Context, schoolID, studentID string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE school_id = $1 AND student_id = $2 AND status = 'open'
		LIMIT 1;
	`
	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, schoolID, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find open invoice for student "+studentID, err)
	}
	invoice := mapping.ToDomainInvoice(m)
	return &invoice, nil
}

// FindItemsByInvoiceID retrieves the item snapshots of an invoice.
func (r *PgxInvoiceRepository) FindItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error) {
	query := `
		SELECT item_id, invoice_id, charge_id, description, amount, charge_type, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY item_id;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query items for invoice "+invoiceID, err)
	}
	return collectInvoiceItems(rows)
}

func collectInvoiceItems(rows pgx.Rows) ([]domain.InvoiceItem, error) {
	defer rows.Close()
	var modelItems []models.InvoiceItem
	for rows.Next() {
		var m models.InvoiceItem
		err := rows.Scan(&m.ItemID, &m.InvoiceID, &m.ChargeID, &m.Description, &m.Amount, &m.ChargeType, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		modelItems = append(modelItems, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainInvoiceItemSlice(modelItems), nil
}

// ListInvoicesByStudent retrieves a student's invoices, newest first.
func (r *PgxInvoiceRepository) ListInvoicesByStudent(ctx context.Context, schoolID, studentID string, limit, offset int) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE school_id = $1 AND student_id = $2
		ORDER BY issued_at DESC, invoice_id DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, studentID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list invoices for student "+studentID, err)
	}
	return collectInvoices(rows)
}

// ListInvoicesBySchool retrieves all invoices of a school.
func (r *PgxInvoiceRepository) ListInvoicesBySchool(ctx context.Context, schoolID string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE school_id = $1 ORDER BY invoice_id;`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list invoices for school "+schoolID, err)
	}
	return collectInvoices(rows)
}

// SumItemsBySchool aggregates item amounts per invoice across a school.
func (r *PgxInvoiceRepository) SumItemsBySchool(ctx context.Context, schoolID string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT ii.invoice_id, COALESCE(SUM(ii.amount), 0)
		FROM invoice_items ii
		JOIN invoices i ON i.invoice_id = ii.invoice_id
		WHERE i.school_id = $1
		GROUP BY ii.invoice_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum invoice items for school "+schoolID, err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var invoiceID string
		var total decimal.Decimal
		if err := rows.Scan(&invoiceID, &total); err != nil {
			return nil, err
		}
		totals[invoiceID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

// ListItemsBySchool retrieves all invoice items of a school.
func (r *PgxInvoiceRepository) ListItemsBySchool(ctx context.Context, schoolID string) ([]domain.InvoiceItem, error) {
	query := `
		SELECT ii.item_id, ii.invoice_id, ii.charge_id, ii.description, ii.amount, ii.charge_type, ii.created_at
		FROM invoice_items ii
		JOIN invoices i ON i.invoice_id = ii.invoice_id
		WHERE i.school_id = $1
		ORDER BY ii.item_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list invoice items for school "+schoolID, err)
	}
	return collectInvoiceItems(rows)
}
