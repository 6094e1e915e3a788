package models

import "time"

// SecurityDeposit is a row of the security_deposits table.
type SecurityDeposit struct {
	DepositID          string     `db:"deposit_id"`
	BookingID          string     `db:"booking_id"`
	AmountCents        int64      `db:"amount_cents"`
	CurrencyCode       string     `db:"currency_code"`
	Status             string     `db:"status"`
	CapturedCents      *int64     `db:"captured_cents"` // Nullable
	HoldReference      string     `db:"hold_reference"`
	PendingAction      string     `db:"pending_action"`
	PendingAmountCents int64      `db:"pending_amount_cents"`
	FailureReason      string     `db:"failure_reason"`
	DiscardedAt        *time.Time `db:"discarded_at"` // Nullable
	AuditFields
}

// DepositPolicy is a row of the listing_deposit_policies projection.
type DepositPolicy struct {
	ListingID    string `db:"listing_id"`
	Enabled      bool   `db:"enabled"`
	AmountCents  int64  `db:"amount_cents"`
	CurrencyCode string `db:"currency_code"`
}
