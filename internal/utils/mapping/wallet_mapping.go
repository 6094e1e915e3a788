package mapping

import (
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/models"
)

// ToModelWalletEntry converts a domain.WalletLedgerEntry to its row model
func ToModelWalletEntry(d domain.WalletLedgerEntry) models.WalletLedgerEntry {
	return models.WalletLedgerEntry{
		EntryID:       d.EntryID,
		HostID:        d.HostID,
		CurrencyCode:  string(d.Currency),
		DeltaCents:    d.DeltaCents,
		Reason:        string(d.Reason),
		CorrelationID: d.CorrelationID,
		BookingID:     d.BookingID,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomainWalletEntry converts a ledger row to a domain.WalletLedgerEntry
func ToDomainWalletEntry(m models.WalletLedgerEntry) domain.WalletLedgerEntry {
	return domain.WalletLedgerEntry{
		EntryID:       m.EntryID,
		HostID:        m.HostID,
		Currency:      domain.Currency(m.CurrencyCode),
		DeltaCents:    m.DeltaCents,
		Reason:        domain.LedgerReason(m.Reason),
		CorrelationID: m.CorrelationID,
		BookingID:     m.BookingID,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}

// ToDomainWalletEntries converts a slice of ledger rows
func ToDomainWalletEntries(ms []models.WalletLedgerEntry) []domain.WalletLedgerEntry {
	ds := make([]domain.WalletLedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainWalletEntry(m)
	}
	return ds
}

// ToDomainWallet converts a wallet row to a domain.Wallet
func ToDomainWallet(m models.Wallet) domain.Wallet {
	return domain.Wallet{
		HostID:       m.HostID,
		Currency:     domain.Currency(m.CurrencyCode),
		BalanceCents: m.BalanceCents,
		Frozen:       m.Frozen,
		FrozenReason: m.FrozenReason,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ToDomainReconciledEvent converts a reconciled event row
func ToDomainReconciledEvent(m models.ReconciledEvent) domain.ReconciledEvent {
	return domain.ReconciledEvent{
		EventID:     m.EventID,
		EventType:   domain.EventType(m.EventType),
		Outcome:     domain.ReconciliationOutcome(m.Outcome),
		Detail:      m.Detail,
		ProcessedAt: m.ProcessedAt,
	}
}
