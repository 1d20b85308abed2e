package services

import (
	"time"

	"github.com/shopspring/decimal"

	portsplatform "github.com/mativs/mattilda/internal/core/ports/platform"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
)

// Settings carries the billing tunables the services need. Values come from
// platform config; services never read configuration themselves.
type Settings struct {
	MonthlyInterestRate    decimal.Decimal
	LockTTL                time.Duration
	BalanceCacheTTL        time.Duration
	DuplicatePaymentWindow time.Duration
}

// NewContainer creates a service container with properly initialized dependencies.
func NewContainer(
	repos *portsrepo.RepositoryProvider,
	locker portsplatform.Locker,
	cache portsplatform.SummaryCache,
	dispatcher portsplatform.TaskDispatcher,
	settings Settings,
) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Charge: NewChargeService(
			repos.ChargeRepo,
			repos.PaymentRepo,
			repos.StudentRepo,
			cache,
			settings.BalanceCacheTTL,
		),
		Invoice: NewInvoiceService(
			repos.ChargeRepo,
			repos.InvoiceRepo,
			repos.StudentRepo,
			locker,
			settings.MonthlyInterestRate,
			settings.LockTTL,
		),
		Payment: NewPaymentService(
			repos.ChargeRepo,
			repos.InvoiceRepo,
			repos.PaymentRepo,
			repos.StudentRepo,
			locker,
			cache,
			settings.LockTTL,
		),
		Reconciliation: NewReconciliationService(
			repos.ChargeRepo,
			repos.InvoiceRepo,
			repos.PaymentRepo,
			repos.ReconciliationRepo,
			dispatcher,
			settings.DuplicatePaymentWindow,
		),
	}
}
