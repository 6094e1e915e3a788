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
)

// errEventClaimed means another delivery of the same event holds the claim.
var errEventClaimed = errors.New("event already claimed")

type reconciliationService struct {
	BaseService
	txManager      portsrepo.TransactionManager
	reconciledRepo portsrepo.ReconciledEventRepository
	bookingRepo    portsrepo.BookingReader
	bookings       portssvc.BookingWriterSvc
	deposits       portssvc.DepositSvcFacade
	wallet         portssvc.WalletSvcFacade
	alerts         gateways.AlertPublisher
}

// NewReconciliationService creates the processor event reconciler.
func NewReconciliationService(repos portsrepo.RepositoryProvider, bookings portssvc.BookingWriterSvc, deposits portssvc.DepositSvcFacade, wallet portssvc.WalletSvcFacade, alerts gateways.AlertPublisher, base BaseService) portssvc.ReconciliationSvc {
	return &reconciliationService{
		BaseService:    base,
		txManager:      repos.TxManager,
		reconciledRepo: repos.ReconciledRepo,
		bookingRepo:    repos.BookingRepo,
		bookings:       bookings,
		deposits:       deposits,
		wallet:         wallet,
		alerts:         alerts,
	}
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

func (s *reconciliationService) Process(ctx context.Context, event domain.ProcessorEvent) (domain.ReconciledEvent, error) {
	logger := s.GetLogger(ctx).With(
		slog.String("event_id", event.EventID()),
		slog.String("event_type", string(event.Type())))

	if event.EventID() == "" {
		return domain.ReconciledEvent{}, fmt.Errorf("%w: event ID is required", apperrors.ErrValidation)
	}

	stored, err := s.reconciledRepo.FindReconciledEvent(ctx, event.EventID())
	if err == nil {
		logger.Info("Event already reconciled", slog.String("outcome", string(stored.Outcome)))
		return *stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return domain.ReconciledEvent{}, err
	}

	record := domain.ReconciledEvent{
		EventID:     event.EventID(),
		EventType:   event.Type(),
		ProcessedAt: s.now(),
	}

	err = retryOnConflict(ctx, func() error {
		return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			// The claim row is written with the final outcome in the same
			// transaction; a rollback removes it.
			claim := record
			claim.Outcome = domain.OutcomeApplied
			inserted, err := s.reconciledRepo.InsertReconciledEvent(txCtx, claim)
			if err != nil {
				return err
			}
			if !inserted {
				return errEventClaimed
			}

			applied, detail, err := s.apply(txCtx, event)
			if err != nil {
				return err
			}

			record.Outcome = domain.OutcomeIgnored
			if applied {
				record.Outcome = domain.OutcomeApplied
			}
			record.Detail = detail
			return s.reconciledRepo.UpdateReconciledEventOutcome(txCtx, record.EventID, record.Outcome, record.Detail)
		})
	})

	switch {
	case err == nil:
		logger.Info("Event reconciled", slog.String("outcome", string(record.Outcome)), slog.String("detail", record.Detail))
		if record.Outcome == domain.OutcomeApplied && event.Type() == domain.EventTransferFailed {
			s.alert(ctx, record)
		}
		return record, nil
	case errors.Is(err, errEventClaimed):
		winner, findErr := s.reconciledRepo.FindReconciledEvent(ctx, event.EventID())
		if findErr != nil {
			return domain.ReconciledEvent{}, findErr
		}
		logger.Info("Event reconciled by a concurrent delivery", slog.String("outcome", string(winner.Outcome)))
		return *winner, nil
	}

	return s.recordFailure(ctx, logger, record, err)
}

// recordFailure stores a non-applied outcome outside the rolled back
// transaction so redeliveries return it instead of retrying forever.
func (s *reconciliationService) recordFailure(ctx context.Context, logger *slog.Logger, record domain.ReconciledEvent, cause error) (domain.ReconciledEvent, error) {
	record.Outcome = domain.OutcomeFailed
	if errors.Is(cause, apperrors.ErrOutOfOrderEvent) || errors.Is(cause, apperrors.ErrInvalidTransition) {
		record.Outcome = domain.OutcomeAnomaly
	}
	record.Detail = cause.Error()

	inserted, err := s.reconciledRepo.InsertReconciledEvent(ctx, record)
	if err != nil {
		logger.Error("Failed to record event failure", slog.String("error", err.Error()), slog.String("cause", cause.Error()))
		return domain.ReconciledEvent{}, err
	}
	if !inserted {
		winner, err := s.reconciledRepo.FindReconciledEvent(ctx, record.EventID)
		if err != nil {
			return domain.ReconciledEvent{}, err
		}
		return *winner, nil
	}

	logger.Error("Event not applied", slog.String("outcome", string(record.Outcome)), slog.String("error", cause.Error()))
	s.alert(ctx, record)
	return record, nil
}

func (s *reconciliationService) alert(ctx context.Context, record domain.ReconciledEvent) {
	if s.alerts == nil {
		return
	}
	err := s.alerts.Publish(ctx, gateways.Alert{
		Kind:    "reconciliation." + string(record.Outcome),
		Message: record.Detail,
		Attributes: map[string]string{
			"event_id":   record.EventID,
			"event_type": string(record.EventType),
		},
		RaisedAt: s.now(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to publish reconciliation alert", slog.String("event_id", record.EventID))
	}
}

// apply dispatches the event to its transition. applied is false when the
// event was valid but there was nothing left to change.
func (s *reconciliationService) apply(ctx context.Context, event domain.ProcessorEvent) (applied bool, detail string, err error) {
	switch ev := event.(type) {
	case domain.PaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, ev)
	case domain.PaymentFailed:
		return s.applyPaymentFailed(ctx, ev)
	case domain.DepositHoldConfirmed:
		_, changed, err := s.deposits.ConfirmAuthorization(ctx, ev.DepositID, ev.HoldReference)
		if err != nil {
			return false, "", err
		}
		return changed, describe(changed, "deposit "+ev.DepositID+" authorized", "deposit "+ev.DepositID+" already authorized"), nil
	case domain.DepositHoldFailed:
		changed, err := s.deposits.MarkHoldFailed(ctx, ev.DepositID, ev.Reason)
		if err != nil {
			return false, "", err
		}
		return changed, describe(changed, "deposit "+ev.DepositID+" failed", "deposit "+ev.DepositID+" already failed"), nil
	case domain.DepositCapturedEvent:
		if err := s.checkHoldReference(ctx, ev.DepositID, ev.HoldReference); err != nil {
			return false, "", err
		}
		changed, err := s.deposits.SettleCaptured(ctx, ev.DepositID, ev.AmountCents)
		if err != nil {
			return false, "", err
		}
		return changed, describe(changed, "deposit "+ev.DepositID+" captured", "deposit "+ev.DepositID+" already captured"), nil
	case domain.DepositReleasedEvent:
		if err := s.checkHoldReference(ctx, ev.DepositID, ev.HoldReference); err != nil {
			return false, "", err
		}
		changed, err := s.deposits.SettleReleased(ctx, ev.DepositID)
		if err != nil {
			return false, "", err
		}
		return changed, describe(changed, "deposit "+ev.DepositID+" released", "deposit "+ev.DepositID+" already released"), nil
	case domain.TransferCompleted:
		return false, "transfer " + ev.TransferReference + " completed", nil
	case domain.TransferFailed:
		return s.applyTransferFailed(ctx, ev)
	}
	return false, "", fmt.Errorf("%w: unsupported event type %s", apperrors.ErrValidation, event.Type())
}

func (s *reconciliationService) applyPaymentSucceeded(ctx context.Context, ev domain.PaymentSucceeded) (bool, string, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, ev.BookingID)
	if err != nil {
		return false, "", fmt.Errorf("booking %s: %w", ev.BookingID, err)
	}
	switch booking.Status {
	case domain.BookingConfirmed, domain.BookingCompleted:
		return false, "booking " + ev.BookingID + " already " + string(booking.Status), nil
	case domain.BookingCancelled:
		return false, "", fmt.Errorf("%w: payment succeeded for cancelled booking %s", apperrors.ErrOutOfOrderEvent, ev.BookingID)
	}

	if ev.PaymentReference != "" && booking.PaymentReference == "" {
		if _, err := s.bookings.AttachPaymentReference(ctx, ev.BookingID, ev.PaymentReference); err != nil {
			return false, "", err
		}
	}
	if _, _, err := s.bookings.TransitionStatus(ctx, ev.BookingID, domain.BookingConfirmed, domain.SystemCaller); err != nil {
		return false, "", err
	}
	return true, "booking " + ev.BookingID + " confirmed", nil
}

func (s *reconciliationService) applyPaymentFailed(ctx context.Context, ev domain.PaymentFailed) (bool, string, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, ev.BookingID)
	if err != nil {
		return false, "", fmt.Errorf("booking %s: %w", ev.BookingID, err)
	}
	switch booking.Status {
	case domain.BookingCancelled:
		return false, "booking " + ev.BookingID + " already cancelled", nil
	case domain.BookingConfirmed, domain.BookingCompleted:
		return false, "", fmt.Errorf("%w: payment failed for %s booking %s", apperrors.ErrOutOfOrderEvent, booking.Status, ev.BookingID)
	}
	if _, _, err := s.bookings.TransitionStatus(ctx, ev.BookingID, domain.BookingCancelled, domain.SystemCaller); err != nil {
		return false, "", err
	}
	return true, "booking " + ev.BookingID + " cancelled: " + ev.Reason, nil
}

// applyTransferFailed credits back a withdrawal the processor returned and
// reopens the booking for payout.
func (s *reconciliationService) applyTransferFailed(ctx context.Context, ev domain.TransferFailed) (bool, string, error) {
	withdrawal, err := s.wallet.FindEntryByCorrelation(ctx, ev.TransferReference, domain.ReasonWithdrawal)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, "", fmt.Errorf("%w: no withdrawal recorded for transfer %s", apperrors.ErrOutOfOrderEvent, ev.TransferReference)
		}
		return false, "", err
	}

	reversed, err := s.bookings.ReversePayout(ctx, *withdrawal, ev.Reason)
	if err != nil {
		return false, "", err
	}
	return reversed, describe(reversed, "withdrawal "+ev.TransferReference+" reversed", "withdrawal "+ev.TransferReference+" already reversed"), nil
}

// checkHoldReference rejects settlement events for a different hold than ours.
func (s *reconciliationService) checkHoldReference(ctx context.Context, depositID, holdRef string) error {
	if holdRef == "" {
		return nil
	}
	deposit, err := s.deposits.GetDepositByID(ctx, depositID)
	if err != nil {
		return err
	}
	if deposit.HoldReference != "" && deposit.HoldReference != holdRef {
		return fmt.Errorf("%w: event for hold %s but deposit %s has hold %s", apperrors.ErrInvalidTransition, holdRef, depositID, deposit.HoldReference)
	}
	return nil
}

func describe(changed bool, appliedMsg, ignoredMsg string) string {
	if changed {
		return appliedMsg
	}
	return ignoredMsg
}
