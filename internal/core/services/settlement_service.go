package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
)

type settlementService struct {
	BaseService
	bookings       portssvc.BookingSvcFacade
	deposits       portssvc.DepositSvcFacade
	wallet         portssvc.WalletSvcFacade
	policyRepo     portsrepo.DepositPolicyRepository
	disputeRepo    portsrepo.DisputeReader
	payoutAccounts portsrepo.PayoutAccountReader
	charges        gateways.PaymentChargeGateway
	transfers      gateways.PaymentTransferGateway
	settings       Settings
}

// NewSettlementService creates the settlement orchestrator.
func NewSettlementService(repos portsrepo.RepositoryProvider, bookings portssvc.BookingSvcFacade, deposits portssvc.DepositSvcFacade, wallet portssvc.WalletSvcFacade, processor gateways.PaymentProcessor, settings Settings, base BaseService) portssvc.SettlementSvc {
	return &settlementService{
		BaseService:    base,
		bookings:       bookings,
		deposits:       deposits,
		wallet:         wallet,
		policyRepo:     repos.PolicyRepo,
		disputeRepo:    repos.DisputeRepo,
		payoutAccounts: repos.PayoutAccounts,
		charges:        processor,
		transfers:      processor,
		settings:       settings,
	}
}

var _ portssvc.SettlementSvc = (*settlementService)(nil)

func (s *settlementService) CreateBookingPayment(ctx context.Context, req dto.CreateBookingRequest, caller domain.Caller) (*domain.Booking, error) {
	if caller.Role != domain.RoleGuest {
		return nil, fmt.Errorf("%w: only guests can book", apperrors.ErrNotAuthorized)
	}

	booking, err := s.bookings.CreateBooking(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.settings.processorContext(ctx)
	chargeRef, callErr := s.charges.CreateCharge(callCtx, booking.Gross(), map[string]string{
		"booking_id": booking.BookingID,
		"listing_id": booking.ListingID,
	}, "booking:"+booking.BookingID)
	cancel()

	if callErr != nil {
		logAttrs := []any{slog.String("booking_id", booking.BookingID), slog.String("gross", booking.Gross().String())}
		if isUnknownOutcome(callErr) {
			s.LogError(ctx, callErr, "Charge outcome unknown, booking left PENDING", logAttrs...)
			return nil, fmt.Errorf("%w: payment for booking %s is unconfirmed; check the booking status before paying again: %w",
				apperrors.ErrExternalCapability, booking.BookingID, callErr)
		}
		s.LogError(ctx, callErr, "Charge declined, cancelling booking", logAttrs...)
		if _, _, err := s.bookings.TransitionStatus(ctx, booking.BookingID, domain.BookingCancelled, domain.SystemCaller); err != nil {
			s.LogError(ctx, err, "Failed to cancel booking after declined charge", logAttrs...)
		}
		return nil, fmt.Errorf("%w: payment for booking %s failed: %w", apperrors.ErrExternalCapability, booking.BookingID, callErr)
	}

	// Confirmation arrives through the payment.succeeded event.
	return s.bookings.AttachPaymentReference(ctx, booking.BookingID, chargeRef)
}

func (s *settlementService) GetBooking(ctx context.Context, bookingID string, caller domain.Caller) (*domain.Booking, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged() && !booking.IsParty(caller) {
		return nil, fmt.Errorf("%w: booking %s", apperrors.ErrNotAuthorized, bookingID)
	}
	return booking, nil
}

func (s *settlementService) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, caller domain.Caller) (*domain.Booking, error) {
	if !caller.IsPrivileged() {
		return nil, fmt.Errorf("%w: only admins and system policy can change booking status", apperrors.ErrNotAuthorized)
	}
	if status != domain.BookingCancelled && status != domain.BookingCompleted {
		return nil, fmt.Errorf("%w: status %s is set by payment confirmation only", apperrors.ErrInvalidTransition, status)
	}

	booking, changed, err := s.bookings.TransitionStatus(ctx, bookingID, status, caller)
	if err != nil {
		return nil, err
	}

	if changed && status == domain.BookingCancelled {
		s.releaseDepositOfCancelled(ctx, bookingID)
	}
	return booking, nil
}

// releaseDepositOfCancelled returns the guest's hold when a booking is cancelled.
// Failures are left to the auto-releaser.
func (s *settlementService) releaseDepositOfCancelled(ctx context.Context, bookingID string) {
	deposit, err := s.deposits.GetActiveDepositForBooking(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up deposit of cancelled booking", slog.String("booking_id", bookingID))
		}
		return
	}
	if deposit.Status != domain.DepositAuthorized && deposit.Status != domain.DepositHoldCreated {
		return
	}
	if _, err := s.deposits.Release(ctx, deposit.DepositID, domain.SystemCaller); err != nil {
		s.LogError(ctx, err, "Failed to release deposit of cancelled booking",
			slog.String("booking_id", bookingID),
			slog.String("deposit_id", deposit.DepositID))
	}
}

func (s *settlementService) CreateDeposit(ctx context.Context, bookingID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleGuest || caller.ID != booking.GuestID {
		return nil, fmt.Errorf("%w: only the booking guest can place the deposit", apperrors.ErrNotAuthorized)
	}

	policy, err := s.policyRepo.FindDepositPolicy(ctx, booking.ListingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s has no deposit policy", apperrors.ErrPolicyDisabled, booking.ListingID)
		}
		return nil, err
	}
	if !policy.Enabled {
		return nil, fmt.Errorf("%w: listing %s", apperrors.ErrPolicyDisabled, booking.ListingID)
	}

	amount, err := domain.NewMoney(policy.AmountCents, string(policy.Currency))
	if err != nil {
		return nil, err
	}
	return s.deposits.CreateHold(ctx, bookingID, amount, caller)
}

func (s *settlementService) GetDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	deposit, err := s.deposits.GetDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if caller.IsPrivileged() {
		return deposit, nil
	}
	booking, err := s.bookings.GetBookingByID(ctx, deposit.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(caller) {
		return nil, fmt.Errorf("%w: deposit %s", apperrors.ErrNotAuthorized, depositID)
	}
	return deposit, nil
}

func (s *settlementService) ConfirmDepositAuthorization(ctx context.Context, depositID string, holdRef string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	if !caller.IsPrivileged() {
		return nil, fmt.Errorf("%w: only admins and the system can confirm holds", apperrors.ErrNotAuthorized)
	}
	deposit, _, err := s.deposits.ConfirmAuthorization(ctx, depositID, holdRef)
	return deposit, err
}

func (s *settlementService) CaptureDeposit(ctx context.Context, depositID string, amountCents int64, caller domain.Caller) (*domain.SecurityDeposit, error) {
	deposit, err := s.deposits.GetDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	amount, err := domain.NewMoney(amountCents, string(deposit.Currency))
	if err != nil {
		return nil, err
	}
	return s.deposits.Capture(ctx, depositID, amount, caller)
}

func (s *settlementService) ReleaseDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	return s.deposits.Release(ctx, depositID, caller)
}

func (s *settlementService) DiscardFailedDeposit(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	return s.deposits.DiscardFailed(ctx, depositID, caller)
}

func (s *settlementService) TriggerPayout(ctx context.Context, bookingID string, caller domain.Caller) (*domain.Booking, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && !booking.IsOwningHost(caller) {
		return nil, fmt.Errorf("%w: only the listing host or an admin can trigger a payout", apperrors.ErrNotAuthorized)
	}

	depositShare, err := s.depositShareOf(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	owedCents := booking.HostPayout().Cents() + depositShare - booking.PaidOutCents
	if owedCents <= 0 && booking.PaidOutCents > 0 {
		return booking, nil
	}

	payable := booking.Status == domain.BookingCompleted ||
		(s.settings.PayoutAllowConfirmed && booking.Status == domain.BookingConfirmed)
	if !payable {
		return nil, fmt.Errorf("%w: booking %s is %s and cannot be paid out", apperrors.ErrInvalidTransition, bookingID, booking.Status)
	}
	if owedCents <= 0 {
		return nil, fmt.Errorf("%w: booking %s has no host payout", apperrors.ErrInvalidAmount, bookingID)
	}
	payout, err := domain.NewMoney(owedCents, string(booking.Currency))
	if err != nil {
		return nil, err
	}

	open, err := s.disputeRepo.HasOpenDispute(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("%w: booking %s", apperrors.ErrDisputeOpen, bookingID)
	}

	balance, err := s.wallet.GetBalance(ctx, booking.HostID, booking.Currency)
	if err != nil {
		return nil, err
	}
	if balance.BalanceCents < payout.Cents() {
		return nil, fmt.Errorf("%w: balance %d is below payout %d", apperrors.ErrInsufficientFunds, balance.BalanceCents, payout.Cents())
	}

	account, err := s.payoutAccounts.FindPayoutAccount(ctx, booking.HostID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: host %s has no payout account", apperrors.ErrValidation, booking.HostID)
		}
		return nil, err
	}

	key := booking.PayoutKey()
	logAttrs := []any{
		slog.String("booking_id", bookingID),
		slog.String("host_id", booking.HostID),
		slog.String("amount", payout.String()),
		slog.String("idempotency_key", key),
	}

	callCtx, cancel := s.settings.processorContext(ctx)
	transferRef, callErr := s.transfers.Transfer(callCtx, account, payout, key)
	cancel()
	if callErr != nil {
		s.LogError(ctx, callErr, "Payout transfer failed", logAttrs...)
		if isUnknownOutcome(callErr) {
			return nil, fmt.Errorf("%w: payout for booking %s has an unknown outcome; retrying is safe and reuses the same transfer: %w",
				apperrors.ErrExternalCapability, bookingID, callErr)
		}
		return nil, fmt.Errorf("%w: payout for booking %s failed: %w", apperrors.ErrExternalCapability, bookingID, callErr)
	}

	paid, err := s.bookings.RecordPayout(ctx, bookingID, transferRef, payout, caller)
	if err != nil {
		s.LogError(ctx, err, "Transfer sent but not recorded; retry records it", append(logAttrs, slog.String("transfer_reference", transferRef))...)
		return nil, err
	}

	s.LogInfo(ctx, "Payout sent", append(logAttrs, slog.String("transfer_reference", transferRef))...)
	return paid, nil
}

// depositShareOf returns the host share credited for the booking's captured
// deposit, or zero when nothing was captured.
func (s *settlementService) depositShareOf(ctx context.Context, bookingID string) (int64, error) {
	deposit, err := s.deposits.GetActiveDepositForBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if deposit.Status != domain.DepositCaptured {
		return 0, nil
	}
	share, err := s.wallet.FindEntryByCorrelation(ctx, deposit.DepositID, domain.ReasonDepositCaptureShare)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return share.DeltaCents, nil
}

func (s *settlementService) GetWalletBalance(ctx context.Context, hostID string, currency string, caller domain.Caller) (domain.WalletBalance, error) {
	if err := authorizeWalletAccess(hostID, caller); err != nil {
		return domain.WalletBalance{}, err
	}
	code, err := domain.ParseCurrency(currency)
	if err != nil {
		return domain.WalletBalance{}, err
	}
	return s.wallet.GetBalance(ctx, hostID, code)
}

func (s *settlementService) ListWalletEntries(ctx context.Context, hostID string, params dto.ListWalletEntriesParams, caller domain.Caller) (*dto.ListWalletEntriesResponse, error) {
	if err := authorizeWalletAccess(hostID, caller); err != nil {
		return nil, err
	}
	return s.wallet.ListEntries(ctx, hostID, params)
}

func (s *settlementService) UpsertDepositPolicy(ctx context.Context, listingID string, req dto.UpsertDepositPolicyRequest, caller domain.Caller) (*domain.DepositPolicy, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can change deposit policies", apperrors.ErrNotAuthorized)
	}
	amount, err := domain.NewMoney(req.AmountCents, req.Currency)
	if err != nil {
		return nil, err
	}
	if req.Enabled && amount.IsZero() {
		return nil, fmt.Errorf("%w: an enabled policy needs a positive amount", apperrors.ErrInvalidAmount)
	}

	policy := domain.DepositPolicy{
		ListingID:   listingID,
		Enabled:     req.Enabled,
		AmountCents: amount.Cents(),
		Currency:    amount.Currency(),
	}
	if err := s.policyRepo.SaveDepositPolicy(ctx, policy); err != nil {
		s.LogError(ctx, err, "Failed to save deposit policy", slog.String("listing_id", listingID))
		return nil, err
	}
	return &policy, nil
}

func authorizeWalletAccess(hostID string, caller domain.Caller) error {
	if caller.Role == domain.RoleAdmin || (caller.Role == domain.RoleHost && caller.ID == hostID) {
		return nil
	}
	return fmt.Errorf("%w: wallet of host %s", apperrors.ErrNotAuthorized, hostID)
}
