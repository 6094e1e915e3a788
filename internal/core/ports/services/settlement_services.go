package services

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/dto"
)

// SettlementSvc is the permission-checked entry point used by handlers and workers.
type SettlementSvc interface {
	CreateBookingPayment(ctx context.Context, req dto.CreateBookingRequest, caller domain.Caller) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string, caller domain.Caller) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, caller domain.Caller) (*domain.Booking, error)

	CreateDeposit(ctx context.Context, bookingID string, caller domain.Caller) (*domain.SecurityDeposit, error)
	GetDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error)
	ConfirmDepositAuthorization(ctx context.Context, depositID string, holdRef string, caller domain.Caller) (*domain.SecurityDeposit, error)
	CaptureDeposit(ctx context.Context, depositID string, amountCents int64, caller domain.Caller) (*domain.SecurityDeposit, error)
	ReleaseDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error)
	DiscardFailedDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error)

	// TriggerPayout transfers what the booking still owes its host: the host
	// payout plus any captured deposit share, less what was already paid.
	// A fully paid booking is returned without a second transfer.
	TriggerPayout(ctx context.Context, bookingID string, caller domain.Caller) (*domain.Booking, error)
	GetWalletBalance(ctx context.Context, hostID string, currency string, caller domain.Caller) (domain.WalletBalance, error)
	ListWalletEntries(ctx context.Context, hostID string, params dto.ListWalletEntriesParams, caller domain.Caller) (*dto.ListWalletEntriesResponse, error)

	UpsertDepositPolicy(ctx context.Context, listingID string, req dto.UpsertDepositPolicyRequest, caller domain.Caller) (*domain.DepositPolicy, error)
}
