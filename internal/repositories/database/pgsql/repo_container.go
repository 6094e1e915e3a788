package pgsql

import (
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	base := BaseRepository{Pool: dbPool}
	directoryRepo := newPgxDirectoryRepository(base)

	return portsrepo.RepositoryProvider{
		TxManager:      &base,
		BookingRepo:    newPgxBookingRepository(base),
		DepositRepo:    newPgxDepositRepository(base),
		WalletRepo:     newPgxWalletRepository(base),
		ReconciledRepo: newPgxReconciledEventRepository(base),
		PolicyRepo:     directoryRepo,
		DisputeRepo:    directoryRepo,
		PayoutAccounts: directoryRepo,
	}
}
