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
	"github.com/google/uuid"
)

const (
	actionCapture = "capture"
	actionRelease = "release"
)

type depositService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	depositRepo portsrepo.DepositRepositoryFacade
	bookingRepo portsrepo.BookingReader
	policyRepo  portsrepo.DepositPolicyRepository
	holds       gateways.PaymentHoldGateway
	wallet      portssvc.WalletWriterSvc
	settings    Settings
}

// NewDepositService creates the security deposit manager.
func NewDepositService(repos portsrepo.RepositoryProvider, holds gateways.PaymentHoldGateway, wallet portssvc.WalletWriterSvc, settings Settings, base BaseService) portssvc.DepositSvcFacade {
	return &depositService{
		BaseService: base,
		txManager:   repos.TxManager,
		depositRepo: repos.DepositRepo,
		bookingRepo: repos.BookingRepo,
		policyRepo:  repos.PolicyRepo,
		holds:       holds,
		wallet:      wallet,
		settings:    settings,
	}
}

var _ portssvc.DepositSvcFacade = (*depositService)(nil)

func (s *depositService) GetDepositByID(ctx context.Context, depositID string) (*domain.SecurityDeposit, error) {
	deposit, err := s.depositRepo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, fmt.Errorf("deposit %s: %w", depositID, err)
	}
	return deposit, nil
}

func (s *depositService) GetActiveDepositForBooking(ctx context.Context, bookingID string) (*domain.SecurityDeposit, error) {
	deposit, err := s.depositRepo.FindActiveDepositByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("deposit for booking %s: %w", bookingID, err)
	}
	return deposit, nil
}

func (s *depositService) CreateHold(ctx context.Context, bookingID string, amount domain.Money, caller domain.Caller) (*domain.SecurityDeposit, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}
	if !booking.Status.IsPayable() {
		return nil, fmt.Errorf("%w: booking %s is %s", apperrors.ErrBookingNotPayable, bookingID, booking.Status)
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
	if amount.Currency() != booking.Currency {
		return nil, fmt.Errorf("%w: deposit in %s for booking in %s", apperrors.ErrCurrencyMismatch, amount.Currency(), booking.Currency)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", apperrors.ErrInvalidAmount)
	}

	existing, err := s.depositRepo.FindActiveDepositByBookingID(ctx, bookingID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: deposit %s is %s", apperrors.ErrDuplicateDeposit, existing.DepositID, existing.Status)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	now := s.now()
	deposit := domain.SecurityDeposit{
		DepositID:   uuid.NewString(),
		BookingID:   bookingID,
		AmountCents: amount.Cents(),
		Currency:    amount.Currency(),
		Status:      domain.DepositHoldCreated,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     caller.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: caller.ID,
			Version:       1,
		},
	}

	// The local row exists before the processor is asked, so a hold can never
	// exist at the processor without a record here.
	if err := s.depositRepo.SaveDeposit(ctx, deposit); err != nil {
		s.LogError(ctx, err, "Failed to save deposit", slog.String("booking_id", bookingID))
		return nil, err
	}

	logAttrs := []any{
		slog.String("booking_id", bookingID),
		slog.String("deposit_id", deposit.DepositID),
		slog.String("amount", amount.String()),
	}

	callCtx, cancel := s.settings.processorContext(ctx)
	holdRef, callErr := s.holds.CreateHold(callCtx, amount, map[string]string{
		"booking_id": bookingID,
		"deposit_id": deposit.DepositID,
	}, deposit.IdempotencyKey(""))
	cancel()

	if callErr != nil {
		if isUnknownOutcome(callErr) {
			s.LogError(ctx, callErr, "Hold creation outcome unknown, deposit left HOLD_CREATED", logAttrs...)
			return nil, fmt.Errorf("%w: hold for deposit %s may or may not exist; check the deposit status before retrying: %w",
				apperrors.ErrExternalCapability, deposit.DepositID, callErr)
		}

		s.LogError(ctx, callErr, "Hold creation failed", logAttrs...)
		holdErr := fmt.Errorf("%w: hold for deposit %s failed: %w", apperrors.ErrExternalCapability, deposit.DepositID, callErr)
		deposit.Status = domain.DepositFailed
		deposit.FailureReason = callErr.Error()
		deposit.LastUpdatedAt = s.now()
		if err := s.depositRepo.UpdateDeposit(ctx, deposit, deposit.Version); err != nil {
			// The deposit stays HOLD_CREATED and blocks a new hold until the
			// resolver marks it FAILED.
			s.LogError(ctx, err, "Failed to mark deposit FAILED", logAttrs...)
			return nil, errors.Join(holdErr, fmt.Errorf("deposit %s left HOLD_CREATED: %w", deposit.DepositID, err))
		}
		return nil, holdErr
	}

	expected := deposit.Version
	deposit.HoldReference = holdRef
	deposit.LastUpdatedAt = s.now()
	if err := s.depositRepo.UpdateDeposit(ctx, deposit, expected); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			// A webhook confirmed the hold first; its state wins.
			return s.GetDepositByID(ctx, deposit.DepositID)
		}
		s.LogError(ctx, err, "Failed to store hold reference", append(logAttrs, slog.String("hold_reference", holdRef))...)
		return nil, err
	}
	deposit.Version = expected + 1

	s.LogInfo(ctx, "Deposit hold placed", append(logAttrs, slog.String("hold_reference", holdRef))...)
	return &deposit, nil
}

func (s *depositService) ConfirmAuthorization(ctx context.Context, depositID string, holdRef string) (*domain.SecurityDeposit, bool, error) {
	if holdRef == "" {
		return nil, false, fmt.Errorf("%w: hold reference is required", apperrors.ErrValidation)
	}

	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return nil, false, err
	}

	switch deposit.Status {
	case domain.DepositAuthorized:
		if deposit.HoldReference == holdRef {
			return deposit, false, nil
		}
		return nil, false, fmt.Errorf("%w: deposit %s is authorized with hold %s, not %s",
			apperrors.ErrInvalidTransition, depositID, deposit.HoldReference, holdRef)
	case domain.DepositHoldCreated:
		if deposit.HoldReference != "" && deposit.HoldReference != holdRef {
			return nil, false, fmt.Errorf("%w: deposit %s has hold %s, not %s",
				apperrors.ErrInvalidTransition, depositID, deposit.HoldReference, holdRef)
		}
	default:
		return nil, false, fmt.Errorf("%w: deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
	}

	expected := deposit.Version
	deposit.Status = domain.DepositAuthorized
	deposit.HoldReference = holdRef
	deposit.LastUpdatedAt = s.now()
	deposit.LastUpdatedBy = domain.SystemCaller.ID
	if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
		return nil, false, err
	}
	deposit.Version = expected + 1

	s.LogInfo(ctx, "Deposit authorized",
		slog.String("deposit_id", depositID),
		slog.String("booking_id", deposit.BookingID),
		slog.String("hold_reference", holdRef))
	return deposit, true, nil
}

func (s *depositService) Capture(ctx context.Context, depositID string, amount domain.Money, caller domain.Caller) (*domain.SecurityDeposit, error) {
	deposit, booking, err := s.loadWithBooking(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && !booking.IsOwningHost(caller) {
		return nil, fmt.Errorf("%w: only the listing host or an admin can capture deposit %s", apperrors.ErrNotAuthorized, depositID)
	}
	if deposit.Status != domain.DepositAuthorized {
		return nil, fmt.Errorf("%w: deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
	}
	if deposit.HasPendingAction() {
		return nil, fmt.Errorf("%w: deposit %s has a %s in progress", apperrors.ErrInvalidTransition, depositID, deposit.PendingAction)
	}
	if amount.Currency() != deposit.Currency {
		return nil, fmt.Errorf("%w: capture in %s for deposit in %s", apperrors.ErrCurrencyMismatch, amount.Currency(), deposit.Currency)
	}
	exceeds, err := amount.GreaterThan(deposit.Amount())
	if err != nil {
		return nil, err
	}
	if amount.IsZero() || exceeds {
		return nil, fmt.Errorf("%w: capture of %s must be positive and at most %s", apperrors.ErrInvalidAmount, amount, deposit.Amount())
	}

	if err := s.claim(ctx, deposit, domain.PendingCapture, amount.Cents(), caller); err != nil {
		return nil, err
	}

	callCtx, cancel := s.settings.processorContext(ctx)
	callErr := s.holds.CaptureHold(callCtx, deposit.HoldReference, amount, deposit.IdempotencyKey(actionCapture))
	cancel()
	if callErr != nil {
		return nil, s.actionFailed(ctx, deposit, callErr)
	}

	captured, _, err := s.finalizeCapture(ctx, depositID, amount.Cents(), caller)
	if err != nil {
		s.LogError(ctx, err, "Capture succeeded at processor but local finalize failed; left for reconciliation",
			slog.String("deposit_id", depositID),
			slog.String("booking_id", deposit.BookingID),
			slog.String("hold_reference", deposit.HoldReference))
		return nil, err
	}
	return captured, nil
}

func (s *depositService) Release(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	deposit, booking, err := s.loadWithBooking(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged() && !booking.IsOwningHost(caller) {
		return nil, fmt.Errorf("%w: only the listing host, an admin or auto-expiry can release deposit %s", apperrors.ErrNotAuthorized, depositID)
	}
	if deposit.Status != domain.DepositAuthorized && deposit.Status != domain.DepositHoldCreated {
		return nil, fmt.Errorf("%w: deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
	}
	if deposit.HasPendingAction() {
		return nil, fmt.Errorf("%w: deposit %s has a %s in progress", apperrors.ErrInvalidTransition, depositID, deposit.PendingAction)
	}

	if deposit.HoldReference == "" {
		hold, err := s.lookupHold(ctx, deposit)
		switch {
		case errors.Is(err, gateways.ErrHoldNotFound):
			// Nothing was ever placed, so there is nothing to return to the guest.
			released, _, err := s.finalizeRelease(ctx, depositID, caller)
			return released, err
		case err != nil:
			return nil, fmt.Errorf("%w: could not look up hold for deposit %s: %w", apperrors.ErrExternalCapability, depositID, err)
		}
		deposit.HoldReference = hold.Reference
	}

	if err := s.claim(ctx, deposit, domain.PendingRelease, 0, caller); err != nil {
		return nil, err
	}

	callCtx, cancel := s.settings.processorContext(ctx)
	callErr := s.holds.ReleaseHold(callCtx, deposit.HoldReference, deposit.IdempotencyKey(actionRelease))
	cancel()
	if callErr != nil {
		return nil, s.actionFailed(ctx, deposit, callErr)
	}

	released, _, err := s.finalizeRelease(ctx, depositID, caller)
	if err != nil {
		s.LogError(ctx, err, "Release succeeded at processor but local finalize failed; left for reconciliation",
			slog.String("deposit_id", depositID),
			slog.String("hold_reference", deposit.HoldReference))
		return nil, err
	}
	return released, nil
}

func (s *depositService) DiscardFailed(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only an admin can discard deposit %s", apperrors.ErrNotAuthorized, depositID)
	}
	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if deposit.Status != domain.DepositFailed {
		return nil, fmt.Errorf("%w: only FAILED deposits can be discarded, deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
	}
	if deposit.DiscardedAt != nil {
		return deposit, nil
	}

	expected := deposit.Version
	now := s.now()
	deposit.DiscardedAt = &now
	deposit.LastUpdatedAt = now
	deposit.LastUpdatedBy = caller.ID
	if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
		return nil, err
	}
	deposit.Version = expected + 1

	s.LogInfo(ctx, "Failed deposit discarded", slog.String("deposit_id", depositID), slog.String("booking_id", deposit.BookingID))
	return deposit, nil
}

func (s *depositService) MarkHoldFailed(ctx context.Context, depositID string, reason string) (bool, error) {
	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return false, err
	}
	switch deposit.Status {
	case domain.DepositFailed:
		return false, nil
	case domain.DepositHoldCreated:
	default:
		return false, fmt.Errorf("%w: hold failure for deposit %s which is already %s", apperrors.ErrOutOfOrderEvent, depositID, deposit.Status)
	}

	expected := deposit.Version
	deposit.Status = domain.DepositFailed
	deposit.FailureReason = reason
	deposit.PendingAction = domain.PendingNone
	deposit.PendingAmountCents = 0
	deposit.LastUpdatedAt = s.now()
	deposit.LastUpdatedBy = domain.SystemCaller.ID
	if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
		return false, err
	}

	s.LogInfo(ctx, "Deposit hold failed",
		slog.String("deposit_id", depositID),
		slog.String("booking_id", deposit.BookingID),
		slog.String("reason", reason))
	return true, nil
}

func (s *depositService) SettleCaptured(ctx context.Context, depositID string, capturedCents int64) (bool, error) {
	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return false, err
	}
	switch deposit.Status {
	case domain.DepositCaptured:
		return false, nil
	case domain.DepositAuthorized:
	default:
		return false, fmt.Errorf("%w: capture reported for deposit %s which is %s", apperrors.ErrOutOfOrderEvent, depositID, deposit.Status)
	}

	if capturedCents == 0 && deposit.PendingAction == domain.PendingCapture {
		capturedCents = deposit.PendingAmountCents
	}
	_, changed, err := s.finalizeCapture(ctx, depositID, capturedCents, domain.SystemCaller)
	return changed, err
}

func (s *depositService) SettleReleased(ctx context.Context, depositID string) (bool, error) {
	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return false, err
	}
	switch deposit.Status {
	case domain.DepositReleased:
		return false, nil
	case domain.DepositAuthorized, domain.DepositHoldCreated:
	default:
		return false, fmt.Errorf("%w: release reported for deposit %s which is %s", apperrors.ErrOutOfOrderEvent, depositID, deposit.Status)
	}
	_, changed, err := s.finalizeRelease(ctx, depositID, domain.SystemCaller)
	return changed, err
}

func (s *depositService) PollHold(ctx context.Context, deposit domain.SecurityDeposit) error {
	hold, err := s.lookupHold(ctx, &deposit)
	if errors.Is(err, gateways.ErrHoldNotFound) {
		_, err = s.MarkHoldFailed(ctx, deposit.DepositID, "hold not found at processor")
		return err
	}
	if err != nil {
		return err
	}

	switch hold.State {
	case gateways.HoldStatePending:
		s.LogDebug(ctx, "Hold still pending at processor", slog.String("deposit_id", deposit.DepositID))
		return nil
	case gateways.HoldStateAuthorized:
		_, _, err = s.ConfirmAuthorization(ctx, deposit.DepositID, hold.Reference)
		return err
	case gateways.HoldStateFailed:
		_, err = s.MarkHoldFailed(ctx, deposit.DepositID, hold.FailureReason)
		return err
	case gateways.HoldStateReleased:
		_, err = s.SettleReleased(ctx, deposit.DepositID)
		return err
	case gateways.HoldStateCaptured:
		if _, _, err := s.ConfirmAuthorization(ctx, deposit.DepositID, hold.Reference); err != nil {
			return err
		}
		_, err = s.SettleCaptured(ctx, deposit.DepositID, hold.CapturedCents)
		return err
	}
	return fmt.Errorf("unknown hold state %q for deposit %s", hold.State, deposit.DepositID)
}

func (s *depositService) ResumePendingAction(ctx context.Context, deposit domain.SecurityDeposit) error {
	if !deposit.HasPendingAction() {
		return nil
	}
	logAttrs := []any{
		slog.String("deposit_id", deposit.DepositID),
		slog.String("booking_id", deposit.BookingID),
		slog.String("pending_action", string(deposit.PendingAction)),
		slog.String("hold_reference", deposit.HoldReference),
	}

	hold, err := s.lookupHold(ctx, &deposit)
	if errors.Is(err, gateways.ErrHoldNotFound) {
		if deposit.PendingAction == domain.PendingRelease {
			_, _, err = s.finalizeRelease(ctx, deposit.DepositID, domain.SystemCaller)
			return err
		}
		s.LogError(ctx, err, "Pending capture has no hold at processor", logAttrs...)
		return s.clearClaim(ctx, &deposit)
	}
	if err != nil {
		return err
	}

	switch hold.State {
	case gateways.HoldStateCaptured:
		_, err = s.SettleCaptured(ctx, deposit.DepositID, hold.CapturedCents)
		return err
	case gateways.HoldStateReleased:
		_, err = s.SettleReleased(ctx, deposit.DepositID)
		return err
	case gateways.HoldStateAuthorized:
	default:
		return fmt.Errorf("hold of deposit %s is %s while a %s is pending", deposit.DepositID, hold.State, deposit.PendingAction)
	}

	// The earlier call never landed. Reissue it with the same idempotency key.
	callCtx, cancel := s.settings.processorContext(ctx)
	defer cancel()
	switch deposit.PendingAction {
	case domain.PendingCapture:
		amount, err := domain.NewMoney(deposit.PendingAmountCents, string(deposit.Currency))
		if err != nil {
			return err
		}
		if err := s.holds.CaptureHold(callCtx, hold.Reference, amount, deposit.IdempotencyKey(actionCapture)); err != nil {
			return s.actionFailed(ctx, &deposit, err)
		}
		_, _, err = s.finalizeCapture(ctx, deposit.DepositID, deposit.PendingAmountCents, domain.SystemCaller)
		return err
	case domain.PendingRelease:
		if err := s.holds.ReleaseHold(callCtx, hold.Reference, deposit.IdempotencyKey(actionRelease)); err != nil {
			return s.actionFailed(ctx, &deposit, err)
		}
		_, _, err = s.finalizeRelease(ctx, deposit.DepositID, domain.SystemCaller)
		return err
	}
	return nil
}

func (s *depositService) loadWithBooking(ctx context.Context, depositID string) (*domain.SecurityDeposit, *domain.Booking, error) {
	deposit, err := s.GetDepositByID(ctx, depositID)
	if err != nil {
		return nil, nil, err
	}
	booking, err := s.bookingRepo.FindBookingByID(ctx, deposit.BookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("booking %s: %w", deposit.BookingID, err)
	}
	return deposit, booking, nil
}

func (s *depositService) lookupHold(ctx context.Context, deposit *domain.SecurityDeposit) (*gateways.Hold, error) {
	callCtx, cancel := s.settings.processorContext(ctx)
	defer cancel()
	return s.holds.LookupHold(callCtx, deposit.IdempotencyKey(""))
}

// claim marks the deposit with a pending action. Only one caller can win the
// version check, so at most one capture or release reaches the processor.
func (s *depositService) claim(ctx context.Context, deposit *domain.SecurityDeposit, action domain.PendingAction, amountCents int64, caller domain.Caller) error {
	expected := deposit.Version
	deposit.PendingAction = action
	deposit.PendingAmountCents = amountCents
	deposit.LastUpdatedAt = s.now()
	deposit.LastUpdatedBy = caller.ID
	if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
		s.LogInfo(ctx, "Lost deposit claim",
			slog.String("deposit_id", deposit.DepositID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return err
	}
	deposit.Version = expected + 1
	return nil
}

func (s *depositService) clearClaim(ctx context.Context, deposit *domain.SecurityDeposit) error {
	expected := deposit.Version
	deposit.PendingAction = domain.PendingNone
	deposit.PendingAmountCents = 0
	deposit.LastUpdatedAt = s.now()
	if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
		return err
	}
	deposit.Version = expected + 1
	return nil
}

// actionFailed handles a failed capture/release call. A decline means nothing
// moved and the claim is dropped; any other failure keeps the claim so the
// resolver can find out what happened.
func (s *depositService) actionFailed(ctx context.Context, deposit *domain.SecurityDeposit, callErr error) error {
	action := deposit.PendingAction
	logAttrs := []any{
		slog.String("deposit_id", deposit.DepositID),
		slog.String("booking_id", deposit.BookingID),
		slog.String("hold_reference", deposit.HoldReference),
		slog.String("action", string(action)),
	}

	if isUnknownOutcome(callErr) {
		s.LogError(ctx, callErr, "Deposit action outcome unknown, left pending", logAttrs...)
		return fmt.Errorf("%w: %s of deposit %s has an unknown outcome and is pending reconciliation; check the deposit status before retrying: %w",
			apperrors.ErrExternalCapability, action, deposit.DepositID, callErr)
	}

	s.LogError(ctx, callErr, "Deposit action declined by processor", logAttrs...)
	if err := s.clearClaim(ctx, deposit); err != nil {
		s.LogError(ctx, err, "Failed to clear declined deposit claim", logAttrs...)
	}
	return fmt.Errorf("%w: %s of deposit %s failed: %w", apperrors.ErrExternalCapability, action, deposit.DepositID, callErr)
}

// finalizeCapture sets CAPTURED and credits the host share in one transaction.
func (s *depositService) finalizeCapture(ctx context.Context, depositID string, capturedCents int64, caller domain.Caller) (*domain.SecurityDeposit, bool, error) {
	var result *domain.SecurityDeposit
	changed := false
	err := retryOnConflict(ctx, func() error {
		return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			deposit, booking, err := s.loadWithBooking(txCtx, depositID)
			if err != nil {
				return err
			}
			if deposit.Status == domain.DepositCaptured {
				result = deposit
				changed = false
				return nil
			}
			if !deposit.Status.CanTransitionTo(domain.DepositCaptured) {
				return fmt.Errorf("%w: deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
			}
			if capturedCents <= 0 || capturedCents > deposit.AmountCents {
				return fmt.Errorf("%w: captured %d of a %d deposit", apperrors.ErrInvalidAmount, capturedCents, deposit.AmountCents)
			}

			expected := deposit.Version
			captured := capturedCents
			deposit.Status = domain.DepositCaptured
			deposit.CapturedCents = &captured
			deposit.PendingAction = domain.PendingNone
			deposit.PendingAmountCents = 0
			deposit.LastUpdatedAt = s.now()
			deposit.LastUpdatedBy = caller.ID
			if err := s.depositRepo.UpdateDeposit(txCtx, *deposit, expected); err != nil {
				return err
			}
			deposit.Version = expected + 1

			capturedMoney, err := domain.NewMoney(captured, string(deposit.Currency))
			if err != nil {
				return err
			}
			_, hostShare, err := capturedMoney.SplitFee(s.settings.DepositFeeRate)
			if err != nil {
				return err
			}
			if !hostShare.IsZero() {
				_, _, err = s.wallet.Credit(txCtx, portssvc.LedgerCredit{
					HostID:        booking.HostID,
					Currency:      deposit.Currency,
					DeltaCents:    hostShare.Cents(),
					Reason:        domain.ReasonDepositCaptureShare,
					CorrelationID: deposit.DepositID,
					BookingID:     booking.BookingID,
					Description:   "Host share of captured deposit for booking " + booking.BookingID,
				})
				if err != nil {
					return err
				}
			}

			result = deposit
			changed = true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.LogInfo(ctx, "Deposit captured",
			slog.String("deposit_id", depositID),
			slog.String("booking_id", result.BookingID),
			slog.String("hold_reference", result.HoldReference),
			slog.Int64("captured_cents", capturedCents))
	}
	return result, changed, nil
}

// finalizeRelease sets RELEASED. No wallet entry is written.
func (s *depositService) finalizeRelease(ctx context.Context, depositID string, caller domain.Caller) (*domain.SecurityDeposit, bool, error) {
	var result *domain.SecurityDeposit
	changed := false
	err := retryOnConflict(ctx, func() error {
		deposit, err := s.GetDepositByID(ctx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status == domain.DepositReleased {
			result = deposit
			changed = false
			return nil
		}
		if !deposit.Status.CanTransitionTo(domain.DepositReleased) {
			return fmt.Errorf("%w: deposit %s is %s", apperrors.ErrInvalidTransition, depositID, deposit.Status)
		}

		expected := deposit.Version
		deposit.Status = domain.DepositReleased
		deposit.PendingAction = domain.PendingNone
		deposit.PendingAmountCents = 0
		deposit.LastUpdatedAt = s.now()
		deposit.LastUpdatedBy = caller.ID
		if err := s.depositRepo.UpdateDeposit(ctx, *deposit, expected); err != nil {
			return err
		}
		deposit.Version = expected + 1
		result = deposit
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.LogInfo(ctx, "Deposit released",
			slog.String("deposit_id", depositID),
			slog.String("booking_id", result.BookingID),
			slog.String("hold_reference", result.HoldReference))
	}
	return result, changed, nil
}

func isUnknownOutcome(err error) bool {
	return errors.Is(err, gateways.ErrProcessorUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
