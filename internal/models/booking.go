package models

import "time"

// Booking is a row of the bookings table.
type Booking struct {
	BookingID        string    `db:"booking_id"`
	GuestID          string    `db:"guest_id"`
	HostID           string    `db:"host_id"`
	ListingID        string    `db:"listing_id"`
	CheckIn          time.Time `db:"check_in"`
	CheckOut         time.Time `db:"check_out"`
	CurrencyCode     string    `db:"currency_code"`
	GrossCents       int64     `db:"gross_cents"`
	HostFeeCents     int64     `db:"host_fee_cents"`
	PlatformNetCents int64     `db:"platform_net_cents"`
	Status           string    `db:"status"`
	PaymentReference string    `db:"payment_reference"`
	PayoutTransferID string    `db:"payout_transfer_id"`
	PaidOutCents     int64     `db:"paid_out_cents"`
	PayoutAttempts   int       `db:"payout_attempts"`
	AuditFields
}
