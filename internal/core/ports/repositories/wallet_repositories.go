package repositories

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// WalletReader defines read operations for wallet ledger data
type WalletReader interface {
	// FindEntryByCorrelation retrieves the entry recorded for a correlation ID and reason.
	FindEntryByCorrelation(ctx context.Context, correlationID string, reason domain.LedgerReason) (*domain.WalletLedgerEntry, error)

	// FindWalletSnapshot reads the cached wallet row and the sum of the host's
	// ledger entries in one statement. wallet is nil when no wallet row exists.
	FindWalletSnapshot(ctx context.Context, hostID string, currency domain.Currency) (wallet *domain.Wallet, ledgerSum int64, err error)

	// ListEntries retrieves entries newest first using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, hostID string, limit int, nextToken *string) ([]domain.WalletLedgerEntry, *string, error)
}

// WalletWriter defines write operations for wallet ledger data
type WalletWriter interface {
	// AppendEntry inserts the entry and applies its delta to the cached wallet atomically.
	// If an entry with the same correlation ID and reason exists, that entry is
	// returned with inserted=false and nothing is written.
	// Returns apperrors.ErrDataIntegrity if the wallet is frozen.
	AppendEntry(ctx context.Context, entry domain.WalletLedgerEntry) (stored domain.WalletLedgerEntry, inserted bool, err error)

	// FreezeWallet blocks further appends for a host's wallet.
	FreezeWallet(ctx context.Context, hostID string, currency domain.Currency, reason string) error
}

// WalletRepositoryFacade combines all wallet-related repository interfaces
type WalletRepositoryFacade interface {
	WalletReader
	WalletWriter
}
