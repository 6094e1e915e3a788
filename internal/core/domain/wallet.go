package domain

import "time"

// LedgerReason explains why a wallet balance changed.
type LedgerReason string

const (
	ReasonBookingPayout       LedgerReason = "BOOKING_PAYOUT"
	ReasonDepositCaptureShare LedgerReason = "DEPOSIT_CAPTURE_SHARE"
	ReasonAdjustment          LedgerReason = "ADJUSTMENT"
	ReasonWithdrawal          LedgerReason = "WITHDRAWAL"
)

// IsValid reports whether r is a known ledger reason.
func (r LedgerReason) IsValid() bool {
	switch r {
	case ReasonBookingPayout, ReasonDepositCaptureShare, ReasonAdjustment, ReasonWithdrawal:
		return true
	}
	return false
}

// WalletLedgerEntry is an immutable balance-changing event for a host.
type WalletLedgerEntry struct {
	EntryID       string       `json:"entryID"`
	HostID        string       `json:"hostID"`
	Currency      Currency     `json:"currency"`
	DeltaCents    int64        `json:"deltaCents"` // Signed
	Reason        LedgerReason `json:"reason"`
	CorrelationID string       `json:"correlationID"`
	BookingID     string       `json:"bookingID,omitempty"` // Booking the entry settles, if any
	Description   string       `json:"description"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Wallet is the cached running balance for one host and currency.
// The balance must always equal the sum of the host's ledger entries.
type Wallet struct {
	HostID       string    `json:"hostID"`
	Currency     Currency  `json:"currency"`
	BalanceCents int64     `json:"balanceCents"`
	Frozen       bool      `json:"frozen"`
	FrozenReason string    `json:"frozenReason,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// WalletBalance is a verified balance read.
type WalletBalance struct {
	HostID       string   `json:"hostID"`
	Currency     Currency `json:"currency"`
	BalanceCents int64    `json:"balanceCents"`
}
