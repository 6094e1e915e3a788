package services

// ServiceContainer holds instances of all the application services.
// Handlers and workers reach services through it.
type ServiceContainer struct {
	Booking        BookingSvcFacade
	Deposit        DepositSvcFacade
	Wallet         WalletSvcFacade
	Reconciliation ReconciliationSvc
	Settlement     SettlementSvc
}
