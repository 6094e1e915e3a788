package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// DepositReader defines read operations for security deposit data
type DepositReader interface {
	// FindDepositByID retrieves a deposit by its ID.
	FindDepositByID(ctx context.Context, depositID string) (*domain.SecurityDeposit, error)

	// FindActiveDepositByBookingID retrieves the non-discarded deposit of a booking.
	FindActiveDepositByBookingID(ctx context.Context, bookingID string) (*domain.SecurityDeposit, error)

	// ListStaleHolds lists HOLD_CREATED deposits last updated before the given time.
	ListStaleHolds(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error)

	// ListStalePendingActions lists deposits with a capture/release claim last updated before the given time.
	ListStalePendingActions(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error)

	// ListReleasableDeposits lists AUTHORIZED deposits without a pending action
	// whose booking checked out before the given time.
	ListReleasableDeposits(ctx context.Context, checkOutBefore time.Time, limit int) ([]domain.SecurityDeposit, error)
}

// DepositWriter defines write operations for security deposit data
type DepositWriter interface {
	// SaveDeposit persists a new deposit.
	// Returns apperrors.ErrDuplicateDeposit if the booking already has a non-discarded deposit.
	SaveDeposit(ctx context.Context, deposit domain.SecurityDeposit) error

	// UpdateDeposit writes the mutable fields of a deposit if its stored version
	// still equals expectedVersion, and bumps the version.
	// Returns apperrors.ErrConcurrentModification when the version moved.
	UpdateDeposit(ctx context.Context, deposit domain.SecurityDeposit, expectedVersion int64) error
}

// DepositRepositoryFacade combines all deposit-related repository interfaces
type DepositRepositoryFacade interface {
	DepositReader
	DepositWriter
}
