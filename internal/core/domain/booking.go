package domain

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

var bookingEdges = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted},
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the booking state machine allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsPayable reports whether deposits may still be attached to the booking.
func (s BookingStatus) IsPayable() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is the booking's price breakdown and status.
type Booking struct {
	BookingID        string        `json:"bookingID"`
	GuestID          string        `json:"guestID"`
	HostID           string        `json:"hostID"`
	ListingID        string        `json:"listingID"`
	CheckIn          time.Time     `json:"checkIn"`
	CheckOut         time.Time     `json:"checkOut"`
	Currency         Currency      `json:"currency"`
	GrossCents       int64         `json:"grossCents"`
	HostFeeCents     int64         `json:"hostFeeCents"`
	PlatformNetCents int64         `json:"platformNetCents"`
	Status           BookingStatus `json:"status"`
	PaymentReference string        `json:"paymentReference"` // Processor charge reference
	PayoutTransferID string        `json:"payoutTransferID"` // Latest recorded payout transfer, cleared when it fails
	PaidOutCents     int64         `json:"paidOutCents"`     // Sum of recorded transfers that have not failed
	PayoutAttempts   int           `json:"payoutAttempts"`   // Transfers recorded so far, each under its own key
	AuditFields
}

// Gross returns the gross amount as Money.
func (b Booking) Gross() Money {
	return Money{cents: b.GrossCents, currency: b.Currency}
}

// HostFee returns the platform's cut as Money.
func (b Booking) HostFee() Money {
	return Money{cents: b.HostFeeCents, currency: b.Currency}
}

// HostPayout is gross minus the host fee.
func (b Booking) HostPayout() Money {
	return Money{cents: b.GrossCents - b.HostFeeCents, currency: b.Currency}
}

// PayoutKey is the idempotency key of the next payout transfer. A retry
// after an unknown outcome reuses it; a recorded transfer moves it on.
func (b Booking) PayoutKey() string {
	if b.PayoutAttempts == 0 {
		return "payout:" + b.BookingID
	}
	return fmt.Sprintf("payout:%s:%d", b.BookingID, b.PayoutAttempts)
}

// IsParty reports whether the caller is the booking's guest or host.
func (b Booking) IsParty(c Caller) bool {
	return (c.Role == RoleGuest && c.ID == b.GuestID) || (c.Role == RoleHost && c.ID == b.HostID)
}

// IsOwningHost reports whether the caller is the host of the booked listing.
func (b Booking) IsOwningHost(c Caller) bool {
	return c.Role == RoleHost && c.ID == b.HostID
}
