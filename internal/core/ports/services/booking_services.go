package services

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/dto"
)

// BookingReaderSvc defines read operations for booking data
type BookingReaderSvc interface {
	// GetBookingByID retrieves a booking without permission checks.
	GetBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error)
}

// BookingWriterSvc defines write operations for booking data
type BookingWriterSvc interface {
	// CreateBooking prices and persists a new PENDING booking for the calling guest.
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest, caller domain.Caller) (*domain.Booking, error)

	// AttachPaymentReference stores the processor charge reference on a booking.
	AttachPaymentReference(ctx context.Context, bookingID string, paymentRef string) (*domain.Booking, error)

	// TransitionStatus moves a booking along the status machine and posts the
	// matching wallet entries in the same transaction. changed is false when
	// the booking already had the requested status.
	TransitionStatus(ctx context.Context, bookingID string, next domain.BookingStatus, caller domain.Caller) (booking *domain.Booking, changed bool, err error)

	// RecordPayout appends the WITHDRAWAL entry for a sent transfer and adds it
	// to the booking's paid-out total in one transaction. Recording the same
	// transfer twice changes nothing.
	RecordPayout(ctx context.Context, bookingID string, transferRef string, amount domain.Money, caller domain.Caller) (*domain.Booking, error)

	// ReversePayout credits back a withdrawal whose transfer the processor
	// returned and takes it off the booking's paid-out total, so the booking
	// can be paid out again under a new transfer key. reversed is false when
	// the withdrawal was already credited back.
	ReversePayout(ctx context.Context, withdrawal domain.WalletLedgerEntry, reason string) (reversed bool, err error)
}

// BookingSvcFacade combines all booking-related service interfaces
type BookingSvcFacade interface {
	BookingReaderSvc
	BookingWriterSvc
}
