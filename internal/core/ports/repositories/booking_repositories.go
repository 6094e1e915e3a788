package repositories

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// BookingReader defines read operations for booking data
type BookingReader interface {
	// FindBookingByID retrieves a booking by its ID.
	FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error)
}

// BookingWriter defines write operations for booking data
type BookingWriter interface {
	// SaveBooking persists a new booking.
	SaveBooking(ctx context.Context, booking domain.Booking) error

	// UpdateBooking writes the mutable fields of a booking if its stored version
	// still equals expectedVersion, and bumps the version.
	// Returns apperrors.ErrConcurrentModification when the version moved.
	UpdateBooking(ctx context.Context, booking domain.Booking, expectedVersion int64) error
}

// BookingRepositoryFacade combines all booking-related repository interfaces
type BookingRepositoryFacade interface {
	BookingReader
	BookingWriter
}
