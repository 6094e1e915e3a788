package services

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// DepositReaderSvc defines read operations for security deposits
type DepositReaderSvc interface {
	GetDepositByID(ctx context.Context, depositID string) (*domain.SecurityDeposit, error)
	GetActiveDepositForBooking(ctx context.Context, bookingID string) (*domain.SecurityDeposit, error)
}

// DepositManagerSvc owns the deposit state machine and the hold capability calls.
type DepositManagerSvc interface {
	// CreateHold records a HOLD_CREATED deposit and places the hold with the processor.
	CreateHold(ctx context.Context, bookingID string, amount domain.Money, caller domain.Caller) (*domain.SecurityDeposit, error)

	// ConfirmAuthorization moves HOLD_CREATED to AUTHORIZED. Repeating it with the
	// same reference is a no-op reported with changed=false.
	ConfirmAuthorization(ctx context.Context, depositID string, holdRef string) (deposit *domain.SecurityDeposit, changed bool, err error)

	// Capture captures part or all of an AUTHORIZED hold and credits the host share.
	Capture(ctx context.Context, depositID string, amount domain.Money, caller domain.Caller) (*domain.SecurityDeposit, error)

	// Release returns an AUTHORIZED or HOLD_CREATED hold to the guest.
	Release(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error)

	// DiscardFailed retires a FAILED deposit so the booking can get a new one.
	DiscardFailed(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error)
}

// DepositReconcilerSvc applies processor-side facts to deposits.
type DepositReconcilerSvc interface {
	MarkHoldFailed(ctx context.Context, depositID string, reason string) (changed bool, err error)
	SettleCaptured(ctx context.Context, depositID string, capturedCents int64) (changed bool, err error)
	SettleReleased(ctx context.Context, depositID string) (changed bool, err error)

	// PollHold asks the processor for the state of a stale HOLD_CREATED deposit.
	PollHold(ctx context.Context, deposit domain.SecurityDeposit) error

	// ResumePendingAction finishes a capture or release whose outcome was unknown.
	ResumePendingAction(ctx context.Context, deposit domain.SecurityDeposit) error
}

// DepositSvcFacade combines all deposit-related service interfaces
type DepositSvcFacade interface {
	DepositReaderSvc
	DepositManagerSvc
	DepositReconcilerSvc
}
