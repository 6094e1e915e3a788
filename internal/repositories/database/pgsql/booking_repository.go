package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/SscSPs/booking_settlement/internal/models"
	"github.com/SscSPs/booking_settlement/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxBookingRepository struct {
	BaseRepository
}

// newPgxBookingRepository creates a new repository for booking data.
func newPgxBookingRepository(base BaseRepository) portsrepo.BookingRepositoryFacade {
	return &PgxBookingRepository{BaseRepository: base}
}

// Ensure PgxBookingRepository implements portsrepo.BookingRepositoryFacade
var _ portsrepo.BookingRepositoryFacade = (*PgxBookingRepository)(nil)

const bookingSelectQuery = `
SELECT
	booking_id, guest_id, host_id, listing_id, check_in, check_out, currency_code,
	gross_cents, host_fee_cents, platform_net_cents, status, payment_reference, payout_transfer_id,
	paid_out_cents, payout_attempts,
	created_at, created_by, last_updated_at, last_updated_by, version
FROM bookings
`

func (r *PgxBookingRepository) SaveBooking(ctx context.Context, booking domain.Booking) error {
	m := mapping.ToModelBooking(booking)
	query := `
		INSERT INTO bookings (
			booking_id, guest_id, host_id, listing_id, check_in, check_out, currency_code,
			gross_cents, host_fee_cents, platform_net_cents, status, payment_reference, payout_transfer_id,
			paid_out_cents, payout_attempts,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.BookingID, m.GuestID, m.HostID, m.ListingID, m.CheckIn, m.CheckOut, m.CurrencyCode,
		m.GrossCents, m.HostFeeCents, m.PlatformNetCents, m.Status, m.PaymentReference, m.PayoutTransferID,
		m.PaidOutCents, m.PayoutAttempts,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "booking "+booking.BookingID+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save booking "+booking.BookingID, err)
	}
	return nil
}

func (r *PgxBookingRepository) FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	rows, err := r.db(ctx).Query(ctx, bookingSelectQuery+`WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query booking "+bookingID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Booking])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("booking " + bookingID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to collect booking row", err)
	}
	booking := mapping.ToDomainBooking(m)
	return &booking, nil
}

func (r *PgxBookingRepository) UpdateBooking(ctx context.Context, booking domain.Booking, expectedVersion int64) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_reference = $2, payout_transfer_id = $3,
			paid_out_cents = $4, payout_attempts = $5,
			last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE booking_id = $8 AND version = $9;
	`
	result, err := r.db(ctx).Exec(ctx, query,
		booking.Status, booking.PaymentReference, booking.PayoutTransferID,
		booking.PaidOutCents, booking.PayoutAttempts,
		booking.LastUpdatedAt, booking.LastUpdatedBy,
		booking.BookingID, expectedVersion,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update booking "+booking.BookingID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConcurrentModification
	}
	return nil
}
