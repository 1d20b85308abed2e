package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository onto one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ChargeRepo:         newPgxChargeRepository(dbPool),
		InvoiceRepo:        newPgxInvoiceRepository(dbPool),
		PaymentRepo:        newPgxPaymentRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
		StudentRepo:        newPgxStudentRepository(dbPool),
	}
}
