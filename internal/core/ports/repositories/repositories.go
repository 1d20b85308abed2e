package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	ChargeRepo         ChargeRepositoryFacade
	InvoiceRepo        InvoiceRepositoryFacade
	PaymentRepo        PaymentRepositoryFacade
	ReconciliationRepo ReconciliationRepositoryFacade
	StudentRepo        StudentRepositoryFacade
}
