package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/google/uuid"
)

type bookingService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	bookingRepo portsrepo.BookingRepositoryFacade
	wallet      portssvc.WalletWriterSvc
	settings    Settings
}

// NewBookingService creates a new booking service
func NewBookingService(txManager portsrepo.TransactionManager, bookingRepo portsrepo.BookingRepositoryFacade, wallet portssvc.WalletWriterSvc, settings Settings, base BaseService) portssvc.BookingSvcFacade {
	return &bookingService{
		BaseService: base,
		txManager:   txManager,
		bookingRepo: bookingRepo,
		wallet:      wallet,
		settings:    settings,
	}
}

var _ portssvc.BookingSvcFacade = (*bookingService)(nil)

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}
	return booking, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest, caller domain.Caller) (*domain.Booking, error) {
	gross, err := domain.NewMoney(req.GrossCents, req.Currency)
	if err != nil {
		return nil, err
	}
	if gross.IsZero() {
		return nil, fmt.Errorf("%w: gross amount must be positive", apperrors.ErrInvalidAmount)
	}
	if !req.CheckOut.After(req.CheckIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", apperrors.ErrValidation)
	}

	hostFee, _, err := gross.SplitFee(s.settings.HostFeeRate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := domain.Booking{
		BookingID:        uuid.NewString(),
		GuestID:          caller.ID,
		HostID:           req.HostID,
		ListingID:        req.ListingID,
		CheckIn:          req.CheckIn.UTC(),
		CheckOut:         req.CheckOut.UTC(),
		Currency:         gross.Currency(),
		GrossCents:       gross.Cents(),
		HostFeeCents:     hostFee.Cents(),
		PlatformNetCents: hostFee.Cents(),
		Status:           domain.BookingPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     caller.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: caller.ID,
			Version:       1,
		},
	}

	if err := s.bookingRepo.SaveBooking(ctx, booking); err != nil {
		s.LogError(ctx, err, "Failed to save booking", slog.String("booking_id", booking.BookingID))
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.LogInfo(ctx, "Booking created",
		slog.String("booking_id", booking.BookingID),
		slog.String("gross", gross.String()),
		slog.Int64("host_fee_cents", booking.HostFeeCents))
	return &booking, nil
}

func (s *bookingService) AttachPaymentReference(ctx context.Context, bookingID string, paymentRef string) (*domain.Booking, error) {
	booking, err := s.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentReference == paymentRef {
		return booking, nil
	}

	expected := booking.Version
	booking.PaymentReference = paymentRef
	booking.LastUpdatedAt = s.now()
	booking.LastUpdatedBy = domain.SystemCaller.ID
	if err := s.bookingRepo.UpdateBooking(ctx, *booking, expected); err != nil {
		s.LogError(ctx, err, "Failed to store payment reference",
			slog.String("booking_id", bookingID),
			slog.String("payment_reference", paymentRef))
		return nil, err
	}
	booking.Version = expected + 1
	return booking, nil
}

func (s *bookingService) TransitionStatus(ctx context.Context, bookingID string, next domain.BookingStatus, caller domain.Caller) (*domain.Booking, bool, error) {
	if !next.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown booking status %q", apperrors.ErrValidation, next)
	}

	var result *domain.Booking
	changed := false
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		booking, err := s.GetBookingByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == next {
			result = booking
			return nil
		}
		if !booking.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: booking %s cannot move from %s to %s", apperrors.ErrInvalidTransition, bookingID, booking.Status, next)
		}
		if next == domain.BookingCancelled && booking.PaidOutCents > 0 {
			return fmt.Errorf("%w: booking %s was already paid out", apperrors.ErrInvalidTransition, bookingID)
		}

		previous := booking.Status
		expected := booking.Version
		booking.Status = next
		booking.LastUpdatedAt = s.now()
		booking.LastUpdatedBy = caller.ID
		if err := s.bookingRepo.UpdateBooking(txCtx, *booking, expected); err != nil {
			return err
		}
		booking.Version = expected + 1

		if err := s.postStatusEntries(txCtx, booking, previous); err != nil {
			return err
		}

		result = booking
		changed = true
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Booking status transition failed",
			slog.String("booking_id", bookingID),
			slog.String("target_status", string(next)),
			slog.String("caller_id", caller.ID))
		return nil, false, err
	}

	if changed {
		s.LogInfo(ctx, "Booking status changed",
			slog.String("booking_id", bookingID),
			slog.String("status", string(result.Status)),
			slog.String("caller_id", caller.ID))
	}
	return result, changed, nil
}

// postStatusEntries writes the wallet side of a status change: the host payout
// is credited on confirmation and reversed if a confirmed booking is cancelled.
func (s *bookingService) postStatusEntries(ctx context.Context, booking *domain.Booking, previous domain.BookingStatus) error {
	payout := booking.HostPayout()
	if payout.IsZero() {
		return nil
	}

	var credit portssvc.LedgerCredit
	switch {
	case previous == domain.BookingPending && booking.Status == domain.BookingConfirmed:
		credit = portssvc.LedgerCredit{
			DeltaCents:  payout.Cents(),
			Reason:      domain.ReasonBookingPayout,
			Description: "Host payout for booking " + booking.BookingID,
		}
	case previous == domain.BookingConfirmed && booking.Status == domain.BookingCancelled:
		credit = portssvc.LedgerCredit{
			DeltaCents:  -payout.Cents(),
			Reason:      domain.ReasonAdjustment,
			Description: "Reversal of host payout for cancelled booking " + booking.BookingID,
		}
	default:
		return nil
	}

	credit.HostID = booking.HostID
	credit.Currency = booking.Currency
	credit.CorrelationID = booking.BookingID
	credit.BookingID = booking.BookingID
	_, _, err := s.wallet.Credit(ctx, credit)
	return err
}

func (s *bookingService) RecordPayout(ctx context.Context, bookingID string, transferRef string, amount domain.Money, caller domain.Caller) (*domain.Booking, error) {
	var result *domain.Booking
	err := retryOnConflict(ctx, func() error {
		return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			booking, err := s.GetBookingByID(txCtx, bookingID)
			if err != nil {
				return err
			}
			if amount.Currency() != booking.Currency {
				return fmt.Errorf("%w: payout in %s for booking in %s", apperrors.ErrCurrencyMismatch, amount.Currency(), booking.Currency)
			}

			_, inserted, err := s.wallet.Credit(txCtx, portssvc.LedgerCredit{
				HostID:        booking.HostID,
				Currency:      booking.Currency,
				DeltaCents:    -amount.Cents(),
				Reason:        domain.ReasonWithdrawal,
				CorrelationID: transferRef,
				BookingID:     bookingID,
				Description:   "Payout transfer for booking " + bookingID,
			})
			if err != nil {
				return err
			}
			if !inserted {
				// Already recorded, possibly already returned as well.
				result = booking
				return nil
			}

			expected := booking.Version
			booking.PayoutTransferID = transferRef
			booking.PaidOutCents += amount.Cents()
			booking.PayoutAttempts++
			booking.LastUpdatedAt = s.now()
			booking.LastUpdatedBy = caller.ID
			if err := s.bookingRepo.UpdateBooking(txCtx, *booking, expected); err != nil {
				return err
			}
			booking.Version = expected + 1
			result = booking
			return nil
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record payout",
			slog.String("booking_id", bookingID),
			slog.String("transfer_reference", transferRef))
		return nil, err
	}
	return result, nil
}

func (s *bookingService) ReversePayout(ctx context.Context, withdrawal domain.WalletLedgerEntry, reason string) (bool, error) {
	if withdrawal.Reason != domain.ReasonWithdrawal {
		return false, fmt.Errorf("%w: entry %s is a %s, not a withdrawal", apperrors.ErrValidation, withdrawal.EntryID, withdrawal.Reason)
	}
	transferRef := withdrawal.CorrelationID

	reversed := false
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		_, inserted, err := s.wallet.Credit(txCtx, portssvc.LedgerCredit{
			HostID:        withdrawal.HostID,
			Currency:      withdrawal.Currency,
			DeltaCents:    -withdrawal.DeltaCents,
			Reason:        domain.ReasonAdjustment,
			CorrelationID: transferRef,
			BookingID:     withdrawal.BookingID,
			Description:   "Returned payout transfer: " + reason,
		})
		if err != nil || !inserted {
			return err
		}
		reversed = true
		if withdrawal.BookingID == "" {
			return nil
		}

		booking, err := s.GetBookingByID(txCtx, withdrawal.BookingID)
		if err != nil {
			return err
		}
		returned := -withdrawal.DeltaCents
		if booking.PaidOutCents < returned {
			return fmt.Errorf("%w: booking %s has %d paid out but transfer %s returned %d",
				apperrors.ErrDataIntegrity, booking.BookingID, booking.PaidOutCents, transferRef, returned)
		}

		expected := booking.Version
		booking.PaidOutCents -= returned
		if booking.PayoutTransferID == transferRef {
			booking.PayoutTransferID = ""
		}
		booking.LastUpdatedAt = s.now()
		booking.LastUpdatedBy = domain.SystemCaller.ID
		if err := s.bookingRepo.UpdateBooking(txCtx, *booking, expected); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse payout",
			slog.String("booking_id", withdrawal.BookingID),
			slog.String("transfer_reference", transferRef))
		return false, err
	}
	if reversed {
		s.LogInfo(ctx, "Payout reversed, booking can be paid out again",
			slog.String("booking_id", withdrawal.BookingID),
			slog.String("transfer_reference", transferRef),
			slog.Int64("returned_cents", -withdrawal.DeltaCents))
	}
	return reversed, nil
}
