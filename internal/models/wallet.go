package models

import "time"

// WalletLedgerEntry is a row of the append-only wallet_ledger_entries table.
type WalletLedgerEntry struct {
	EntryID       string    `db:"entry_id"`
	HostID        string    `db:"host_id"`
	CurrencyCode  string    `db:"currency_code"`
	DeltaCents    int64     `db:"delta_cents"`
	Reason        string    `db:"reason"`
	CorrelationID string    `db:"correlation_id"`
	BookingID     string    `db:"booking_id"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}

// Wallet is a row of the wallets table holding the cached balance.
type Wallet struct {
	HostID       string    `db:"host_id"`
	CurrencyCode string    `db:"currency_code"`
	BalanceCents int64     `db:"balance_cents"`
	Frozen       bool      `db:"frozen"`
	FrozenReason string    `db:"frozen_reason"`
	UpdatedAt    time.Time `db:"updated_at"`
}
