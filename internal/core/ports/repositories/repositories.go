package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager      TransactionManager
	BookingRepo    BookingRepositoryFacade
	DepositRepo    DepositRepositoryFacade
	WalletRepo     WalletRepositoryFacade
	ReconciledRepo ReconciledEventRepository
	PolicyRepo     DepositPolicyRepository
	DisputeRepo    DisputeReader
	PayoutAccounts PayoutAccountReader
}
