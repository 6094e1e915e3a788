package dto

import (
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// CreateBookingRequest defines the data needed to request a reservation and pay for it.
// GuestID comes from the authenticated caller.
type CreateBookingRequest struct {
	ListingID  string    `json:"listingID" binding:"required"`
	HostID     string    `json:"hostID" binding:"required"`
	CheckIn    time.Time `json:"checkIn" binding:"required"`
	CheckOut   time.Time `json:"checkOut" binding:"required,gtfield=CheckIn"`
	GrossCents int64     `json:"grossCents" binding:"required,gt=0"`
	Currency   string    `json:"currency" binding:"required,len=3,iso_currency"`
}

// UpdateBookingStatusRequest carries a status decided by external policy.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,booking_status"`
}

// BookingResponse defines the data returned for a booking.
type BookingResponse struct {
	BookingID        string    `json:"bookingID"`
	GuestID          string    `json:"guestID"`
	HostID           string    `json:"hostID"`
	ListingID        string    `json:"listingID"`
	CheckIn          time.Time `json:"checkIn"`
	CheckOut         time.Time `json:"checkOut"`
	Currency         string    `json:"currency"`
	GrossCents       int64     `json:"grossCents"`
	HostFeeCents     int64     `json:"hostFeeCents"`
	HostPayoutCents  int64     `json:"hostPayoutCents"`
	PlatformNetCents int64     `json:"platformNetCents"`
	Gross            string    `json:"gross"` // Formatted, e.g. "100.00 EUR"
	Status           string    `json:"status"`
	PaymentReference string    `json:"paymentReference,omitempty"`
	PayoutTransferID string    `json:"payoutTransferID,omitempty"`
	PaidOutCents     int64     `json:"paidOutCents"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
}

// ToBookingResponse converts a domain.Booking to BookingResponse DTO.
func ToBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID:        b.BookingID,
		GuestID:          b.GuestID,
		HostID:           b.HostID,
		ListingID:        b.ListingID,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Currency:         string(b.Currency),
		GrossCents:       b.GrossCents,
		HostFeeCents:     b.HostFeeCents,
		HostPayoutCents:  b.HostPayout().Cents(),
		PlatformNetCents: b.PlatformNetCents,
		Gross:            b.Gross().String(),
		Status:           string(b.Status),
		PaymentReference: b.PaymentReference,
		PayoutTransferID: b.PayoutTransferID,
		PaidOutCents:     b.PaidOutCents,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt,
		LastUpdatedAt:    b.LastUpdatedAt,
	}
}

// PayoutResponse describes a host payout transfer for a booking.
type PayoutResponse struct {
	BookingID         string `json:"bookingID"`
	TransferReference string `json:"transferReference"`
	AmountCents       int64  `json:"amountCents"`
	Currency          string `json:"currency"`
}

// ToPayoutResponse builds the payout view of a paid-out booking. The amount
// covers every recorded transfer that has not failed.
func ToPayoutResponse(b *domain.Booking) PayoutResponse {
	return PayoutResponse{
		BookingID:         b.BookingID,
		TransferReference: b.PayoutTransferID,
		AmountCents:       b.PaidOutCents,
		Currency:          string(b.Currency),
	}
}
