package services

import (
	"context"
	"iter"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/dto"
)

// LedgerCredit describes one balance change. DeltaCents is signed.
type LedgerCredit struct {
	HostID        string
	Currency      domain.Currency
	DeltaCents    int64
	Reason        domain.LedgerReason
	CorrelationID string
	BookingID     string
	Description   string
}

// WalletReaderSvc defines read operations for host wallets
type WalletReaderSvc interface {
	// GetBalance returns the ledger sum after checking it against the cached wallet.
	GetBalance(ctx context.Context, hostID string, currency domain.Currency) (domain.WalletBalance, error)

	// ListRecent yields at most limit entries, newest first. Each range starts over.
	ListRecent(ctx context.Context, hostID string, limit int) iter.Seq2[domain.WalletLedgerEntry, error]

	// ListEntries returns one page of entries for the HTTP listing.
	ListEntries(ctx context.Context, hostID string, params dto.ListWalletEntriesParams) (*dto.ListWalletEntriesResponse, error)

	// FindEntryByCorrelation retrieves the entry posted for a correlation ID and reason.
	FindEntryByCorrelation(ctx context.Context, correlationID string, reason domain.LedgerReason) (*domain.WalletLedgerEntry, error)
}

// WalletWriterSvc defines write operations for host wallets
type WalletWriterSvc interface {
	// Credit appends a ledger entry unless one exists for the same correlation
	// ID and reason, in which case the existing entry is returned.
	Credit(ctx context.Context, credit LedgerCredit) (entry domain.WalletLedgerEntry, inserted bool, err error)
}

// WalletSvcFacade combines all wallet-related service interfaces
type WalletSvcFacade interface {
	WalletReaderSvc
	WalletWriterSvc
}
