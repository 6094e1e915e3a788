package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/booking_settlement/internal/adapters/processor"
	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/core/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var (
	guest      = domain.Caller{ID: "guest-1", Role: domain.RoleGuest}
	otherGuest = domain.Caller{ID: "guest-2", Role: domain.RoleGuest}
	host       = domain.Caller{ID: "host-1", Role: domain.RoleHost}
	otherHost  = domain.Caller{ID: "host-2", Role: domain.RoleHost}
	admin      = domain.Caller{ID: "admin-1", Role: domain.RoleAdmin}
)

const listingID = "listing-1"

type SettlementFlowTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memStore
	stub      *processor.StubProcessor
	alerts    *recordingAlerts
	clock     *testClock
	settings  services.Settings
	container *portssvc.ServiceContainer
	worker    *services.DepositWorker
}

func (suite *SettlementFlowTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = newMemStore()
	suite.stub = processor.NewStubProcessor()
	suite.alerts = &recordingAlerts{}
	suite.clock = newTestClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	suite.settings = services.DefaultSettings()

	suite.container = services.NewServiceContainer(suite.settings, suite.store.provider(), suite.stub, suite.alerts, suite.clock)
	suite.worker = services.NewDepositWorker(slog.New(slog.NewTextHandler(io.Discard, nil)), suite.store, suite.container.Deposit,
		suite.settings, time.Minute, services.BaseService{Clock: suite.clock})
}

func TestSettlementFlowTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementFlowTestSuite))
}

// --- Helpers ---

func (suite *SettlementFlowTestSuite) createBooking() *domain.Booking {
	now := suite.clock.Now()
	booking, err := suite.container.Settlement.CreateBookingPayment(suite.ctx, dto.CreateBookingRequest{
		ListingID:  listingID,
		HostID:     host.ID,
		CheckIn:    now.Add(24 * time.Hour),
		CheckOut:   now.Add(72 * time.Hour),
		GrossCents: 10000,
		Currency:   "EUR",
	}, guest)
	suite.Require().NoError(err)
	return booking
}

func (suite *SettlementFlowTestSuite) process(event domain.ProcessorEvent) domain.ReconciledEvent {
	record, err := suite.container.Reconciliation.Process(suite.ctx, event)
	suite.Require().NoError(err)
	return record
}

func (suite *SettlementFlowTestSuite) confirmedBooking() *domain.Booking {
	booking := suite.createBooking()
	record := suite.process(domain.PaymentSucceeded{
		EventMeta: domain.EventMeta{ID: "evt_pay_" + booking.BookingID},
		BookingID: booking.BookingID,
	})
	suite.Require().Equal(domain.OutcomeApplied, record.Outcome)

	confirmed, err := suite.container.Booking.GetBookingByID(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Require().Equal(domain.BookingConfirmed, confirmed.Status)
	return confirmed
}

func (suite *SettlementFlowTestSuite) enableDeposits(amountCents int64) {
	suite.Require().NoError(suite.store.SaveDepositPolicy(suite.ctx, domain.DepositPolicy{
		ListingID:   listingID,
		Enabled:     true,
		AmountCents: amountCents,
		Currency:    "EUR",
	}))
}

func (suite *SettlementFlowTestSuite) authorizedDeposit(bookingID string) *domain.SecurityDeposit {
	deposit, err := suite.container.Settlement.CreateDeposit(suite.ctx, bookingID, guest)
	suite.Require().NoError(err)
	suite.Require().Equal(domain.DepositHoldCreated, deposit.Status)
	suite.Require().NotEmpty(deposit.HoldReference)

	record := suite.process(domain.DepositHoldConfirmed{
		EventMeta:     domain.EventMeta{ID: "evt_hold_" + deposit.DepositID},
		DepositID:     deposit.DepositID,
		HoldReference: deposit.HoldReference,
	})
	suite.Require().Equal(domain.OutcomeApplied, record.Outcome)

	authorized, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Require().Equal(domain.DepositAuthorized, authorized.Status)
	return authorized
}

func (suite *SettlementFlowTestSuite) balance() int64 {
	b, err := suite.container.Wallet.GetBalance(suite.ctx, host.ID, "EUR")
	suite.Require().NoError(err)
	return b.BalanceCents
}

// --- Booking payment ---

func (suite *SettlementFlowTestSuite) TestCreateBookingPayment_SplitsFee() {
	booking := suite.createBooking()

	suite.Equal(domain.BookingPending, booking.Status)
	suite.Equal(int64(10000), booking.GrossCents)
	suite.Equal(int64(1500), booking.HostFeeCents)
	suite.Equal(int64(1500), booking.PlatformNetCents)
	suite.Equal(int64(8500), booking.HostPayout().Cents())
	suite.NotEmpty(booking.PaymentReference)
	suite.Equal(1, suite.stub.Calls("CreateCharge"))
	suite.Empty(suite.store.entriesFor(host.ID), "nothing is credited before confirmation")
}

func (suite *SettlementFlowTestSuite) TestCreateBookingPayment_OnlyGuests() {
	_, err := suite.container.Settlement.CreateBookingPayment(suite.ctx, dto.CreateBookingRequest{
		ListingID: listingID, HostID: host.ID, GrossCents: 10000, Currency: "EUR",
	}, host)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)
}

func (suite *SettlementFlowTestSuite) TestCreateBookingPayment_DeclinedChargeCancels() {
	suite.stub.DeclineAmountCents = 10000
	now := suite.clock.Now()

	_, err := suite.container.Settlement.CreateBookingPayment(suite.ctx, dto.CreateBookingRequest{
		ListingID:  listingID,
		HostID:     host.ID,
		CheckIn:    now,
		CheckOut:   now.Add(48 * time.Hour),
		GrossCents: 10000,
		Currency:   "EUR",
	}, guest)

	suite.ErrorIs(err, apperrors.ErrExternalCapability)
	suite.ErrorIs(err, gateways.ErrProcessorDeclined)
	suite.Len(suite.store.bookingsWithStatus(domain.BookingCancelled), 1)
}

func (suite *SettlementFlowTestSuite) TestPaymentSucceeded_TripleDeliveryConfirmsOnce() {
	booking := suite.createBooking()
	event := domain.PaymentSucceeded{EventMeta: domain.EventMeta{ID: "evt_1"}, BookingID: booking.BookingID}

	first := suite.process(event)
	second := suite.process(event)
	third := suite.process(event)

	suite.Equal(domain.OutcomeApplied, first.Outcome)
	suite.Equal(first, second)
	suite.Equal(first, third)

	payouts := suite.store.entriesWithReason(host.ID, domain.ReasonBookingPayout)
	suite.Require().Len(payouts, 1)
	suite.Equal(int64(8500), payouts[0].DeltaCents)
	suite.Equal(booking.BookingID, payouts[0].CorrelationID)
	suite.Equal(int64(8500), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestPaymentSucceeded_ConcurrentDeliveries() {
	booking := suite.createBooking()
	event := domain.PaymentSucceeded{EventMeta: domain.EventMeta{ID: "evt_concurrent"}, BookingID: booking.BookingID}

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.container.Reconciliation.Process(suite.ctx, event)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		suite.NoError(err)
	}
	suite.Len(suite.store.entriesWithReason(host.ID, domain.ReasonBookingPayout), 1)
	suite.Equal(int64(8500), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestPaymentFailed_CancelsBooking() {
	booking := suite.createBooking()

	record := suite.process(domain.PaymentFailed{
		EventMeta: domain.EventMeta{ID: "evt_fail"},
		BookingID: booking.BookingID,
		Reason:    "card declined",
	})
	suite.Equal(domain.OutcomeApplied, record.Outcome)

	cancelled, err := suite.container.Booking.GetBookingByID(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Equal(domain.BookingCancelled, cancelled.Status)

	late := suite.process(domain.PaymentSucceeded{EventMeta: domain.EventMeta{ID: "evt_late"}, BookingID: booking.BookingID})
	suite.Equal(domain.OutcomeAnomaly, late.Outcome)
	suite.Empty(suite.store.entriesFor(host.ID))
	suite.Contains(suite.alerts.kinds(), "reconciliation.ANOMALY")
}

func (suite *SettlementFlowTestSuite) TestGetBooking_Permissions() {
	booking := suite.createBooking()

	_, err := suite.container.Settlement.GetBooking(suite.ctx, booking.BookingID, guest)
	suite.NoError(err)
	_, err = suite.container.Settlement.GetBooking(suite.ctx, booking.BookingID, host)
	suite.NoError(err)
	_, err = suite.container.Settlement.GetBooking(suite.ctx, booking.BookingID, otherGuest)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)
}

func (suite *SettlementFlowTestSuite) TestUpdateBookingStatus_CancelReversesPayoutAndReleasesDeposit() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)
	suite.Equal(int64(8500), suite.balance())

	_, err := suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCancelled, host)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	cancelled, err := suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCancelled, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.BookingCancelled, cancelled.Status)
	suite.Equal(int64(0), suite.balance())

	released, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositReleased, released.Status)

	_, err = suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCompleted, admin)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *SettlementFlowTestSuite) TestUpdateBookingStatus_ConfirmOnlyThroughPayment() {
	booking := suite.createBooking()

	_, err := suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingConfirmed, admin)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

// --- Deposits ---

func (suite *SettlementFlowTestSuite) TestCreateDeposit_PolicyDisabled() {
	booking := suite.createBooking()

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrPolicyDisabled)

	suite.Require().NoError(suite.store.SaveDepositPolicy(suite.ctx, domain.DepositPolicy{ListingID: listingID, Enabled: false, AmountCents: 20000, Currency: "EUR"}))
	_, err = suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrPolicyDisabled)
}

func (suite *SettlementFlowTestSuite) TestCreateDeposit_OnlyBookingGuest() {
	suite.enableDeposits(20000)
	booking := suite.createBooking()

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, otherGuest)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)
}

func (suite *SettlementFlowTestSuite) TestCreateDeposit_Duplicate() {
	suite.enableDeposits(20000)
	booking := suite.createBooking()

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)

	_, err = suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrDuplicateDeposit)
	suite.Equal(1, suite.stub.Calls("CreateHold"))
}

func (suite *SettlementFlowTestSuite) TestCreateDeposit_NotPayableBooking() {
	suite.enableDeposits(20000)
	booking := suite.createBooking()
	suite.process(domain.PaymentFailed{EventMeta: domain.EventMeta{ID: "evt_fail"}, BookingID: booking.BookingID})

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrBookingNotPayable)
}

func (suite *SettlementFlowTestSuite) TestDeposit_CaptureCreditsHostShareOnce() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	captured, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositCaptured, captured.Status)
	suite.Require().NotNil(captured.CapturedCents)
	suite.Equal(int64(5000), *captured.CapturedCents)
	suite.False(captured.HasPendingAction())

	shares := suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare)
	suite.Require().Len(shares, 1)
	suite.Equal(int64(5000), shares[0].DeltaCents)
	suite.Equal(deposit.DepositID, shares[0].CorrelationID)
	suite.Equal(int64(13500), suite.balance())

	// The processor's own capture notice arrives afterwards.
	record := suite.process(domain.DepositCapturedEvent{
		EventMeta:     domain.EventMeta{ID: "evt_captured"},
		DepositID:     deposit.DepositID,
		HoldReference: deposit.HoldReference,
		AmountCents:   5000,
	})
	suite.Equal(domain.OutcomeIgnored, record.Outcome)
	suite.Len(suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare), 1)
}

func (suite *SettlementFlowTestSuite) TestDeposit_CaptureWithFeeRoundsHalfAway() {
	suite.settings.DepositFeeRate = decimal.RequireFromString("0.10")
	suite.container = services.NewServiceContainer(suite.settings, suite.store.provider(), suite.stub, suite.alerts, suite.clock)
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5005, host)
	suite.Require().NoError(err)

	// 10% of 5005 is 500.5, rounded to 501.
	shares := suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare)
	suite.Require().Len(shares, 1)
	suite.Equal(int64(4504), shares[0].DeltaCents)
	suite.Equal(booking.BookingID, shares[0].BookingID)
	suite.Equal(int64(8500+4504), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestDeposit_CaptureValidation() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 20001, host)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, guest)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, otherHost)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	suite.Equal(0, suite.stub.Calls("CaptureHold"))
}

func (suite *SettlementFlowTestSuite) TestDeposit_CaptureBeforeAuthorization() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *SettlementFlowTestSuite) TestDeposit_ConcurrentCapturesSingleSuccess() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		lost := errors.Is(err, apperrors.ErrConcurrentModification) || errors.Is(err, apperrors.ErrInvalidTransition)
		suite.Truef(lost, "unexpected error: %v", err)
	}

	suite.Equal(1, successes)
	suite.Equal(1, suite.stub.Calls("CaptureHold"))
	suite.Len(suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare), 1)
	suite.Equal(int64(13500), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestDeposit_TerminalStatesRejectTransitions() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.Require().NoError(err)

	_, err = suite.container.Settlement.ReleaseDeposit(suite.ctx, deposit.DepositID, host)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 1000, host)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = suite.container.Settlement.ConfirmDepositAuthorization(suite.ctx, deposit.DepositID, deposit.HoldReference, admin)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	record := suite.process(domain.DepositReleasedEvent{
		EventMeta:     domain.EventMeta{ID: "evt_released_late"},
		DepositID:     deposit.DepositID,
		HoldReference: deposit.HoldReference,
	})
	suite.Equal(domain.OutcomeAnomaly, record.Outcome)

	stored, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositCaptured, stored.Status)
	suite.Equal(0, suite.stub.Calls("ReleaseHold"))
}

func (suite *SettlementFlowTestSuite) TestDeposit_ReleaseWritesNoWalletEntry() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	released, err := suite.container.Settlement.ReleaseDeposit(suite.ctx, deposit.DepositID, host)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositReleased, released.Status)
	suite.Nil(released.CapturedCents)
	suite.Empty(suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare))
	suite.Equal(int64(8500), suite.balance())

	again, err := suite.container.Deposit.SettleReleased(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.False(again)
}

func (suite *SettlementFlowTestSuite) TestDeposit_ReleaseByGuestNotAllowed() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	_, err := suite.container.Settlement.ReleaseDeposit(suite.ctx, deposit.DepositID, guest)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)
}

func (suite *SettlementFlowTestSuite) TestDeposit_HoldConfirmedRedeliveryIsNoop() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	record := suite.process(domain.DepositHoldConfirmed{
		EventMeta:     domain.EventMeta{ID: "evt_hold_again"},
		DepositID:     deposit.DepositID,
		HoldReference: deposit.HoldReference,
	})
	suite.Equal(domain.OutcomeIgnored, record.Outcome)

	mismatch := suite.process(domain.DepositHoldConfirmed{
		EventMeta:     domain.EventMeta{ID: "evt_hold_other"},
		DepositID:     deposit.DepositID,
		HoldReference: "hold_somebody_else",
	})
	suite.Equal(domain.OutcomeAnomaly, mismatch.Outcome)
}

func (suite *SettlementFlowTestSuite) TestDeposit_DeclinedHoldReportsFailedUpdate() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	suite.stub.DeclineAmountCents = 20000
	errStore := errors.New("store unavailable")
	suite.store.failDepositUpdates(errStore)

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrExternalCapability)
	suite.ErrorIs(err, gateways.ErrProcessorDeclined)
	suite.ErrorIs(err, errStore)

	suite.store.failDepositUpdates(nil)
	left, err := suite.container.Deposit.GetActiveDepositForBooking(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositHoldCreated, left.Status)
}

func (suite *SettlementFlowTestSuite) TestDeposit_DeclinedHoldCanBeDiscardedAndRetried() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	suite.stub.DeclineAmountCents = 20000

	_, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrExternalCapability)

	failed, err := suite.container.Deposit.GetActiveDepositForBooking(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositFailed, failed.Status)
	suite.NotEmpty(failed.FailureReason)

	_, err = suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.ErrorIs(err, apperrors.ErrDuplicateDeposit)

	_, err = suite.container.Settlement.DiscardFailedDeposit(suite.ctx, failed.DepositID, host)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	discarded, err := suite.container.Settlement.DiscardFailedDeposit(suite.ctx, failed.DepositID, admin)
	suite.Require().NoError(err)
	suite.NotNil(discarded.DiscardedAt)

	suite.stub.DeclineAmountCents = 0
	retried, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)
	suite.NotEqual(failed.DepositID, retried.DepositID)
	suite.Equal(domain.DepositHoldCreated, retried.Status)
}

func (suite *SettlementFlowTestSuite) TestDeposit_UnknownCaptureOutcomeResolvedByWorker() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	suite.stub.FailWith = fmt.Errorf("%w: read timeout", gateways.ErrProcessorUnavailable)
	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.ErrorIs(err, apperrors.ErrExternalCapability)
	suite.ErrorIs(err, gateways.ErrProcessorUnavailable)

	pending, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositAuthorized, pending.Status)
	suite.Equal(domain.PendingCapture, pending.PendingAction)
	suite.Equal(int64(5000), pending.PendingAmountCents)

	_, err = suite.container.Settlement.ReleaseDeposit(suite.ctx, deposit.DepositID, host)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	suite.stub.FailWith = nil
	suite.clock.Advance(suite.settings.HoldStaleAfter + time.Minute)

	handled, err := suite.worker.ResolvePendingActions(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(1, handled)

	captured, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositCaptured, captured.Status)
	suite.Require().NotNil(captured.CapturedCents)
	suite.Equal(int64(5000), *captured.CapturedCents)
	suite.Len(suite.store.entriesWithReason(host.ID, domain.ReasonDepositCaptureShare), 1)
}

func (suite *SettlementFlowTestSuite) TestDeposit_DeclinedCaptureClearsClaim() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	suite.stub.DeclineAmountCents = 7000
	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 7000, host)
	suite.ErrorIs(err, gateways.ErrProcessorDeclined)

	stored, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositAuthorized, stored.Status)
	suite.False(stored.HasPendingAction())

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.NoError(err)
}

// --- Workers ---

func (suite *SettlementFlowTestSuite) TestWorker_PollStaleHoldsConfirmsAuthorized() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)

	handled, err := suite.worker.PollStaleHolds(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(0, handled, "fresh holds are left for the webhook")

	suite.clock.Advance(suite.settings.HoldStaleAfter + time.Minute)
	handled, err = suite.worker.PollStaleHolds(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(1, handled)

	polled, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositAuthorized, polled.Status)
	suite.Equal(deposit.HoldReference, polled.HoldReference)
}

func (suite *SettlementFlowTestSuite) TestWorker_PollStaleHoldsSkipsClaimedDeposits() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)

	claimed := suite.store.deposits[deposit.DepositID]
	claimed.PendingAction = domain.PendingRelease
	suite.store.deposits[deposit.DepositID] = claimed

	suite.clock.Advance(suite.settings.HoldStaleAfter + time.Minute)
	handled, err := suite.worker.PollStaleHolds(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(0, handled, "claimed deposits belong to the pending-action resolver")

	stored, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositHoldCreated, stored.Status)
	suite.Equal(0, suite.stub.Calls("LookupHold"))
}

func (suite *SettlementFlowTestSuite) TestWorker_ReleaseExpiredDeposits() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)

	handled, err := suite.worker.ReleaseExpiredDeposits(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(0, handled)

	suite.clock.Advance(72*time.Hour + suite.settings.DepositClaimWindow + time.Hour)
	handled, err = suite.worker.ReleaseExpiredDeposits(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(1, handled)

	released, err := suite.container.Deposit.GetDepositByID(suite.ctx, deposit.DepositID)
	suite.Require().NoError(err)
	suite.Equal(domain.DepositReleased, released.Status)
	suite.Equal(domain.SystemCaller.ID, released.LastUpdatedBy)
}

// --- Payouts ---

func (suite *SettlementFlowTestSuite) completedBooking() *domain.Booking {
	booking := suite.confirmedBooking()
	completed, err := suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCompleted, admin)
	suite.Require().NoError(err)
	suite.store.setPayoutAccount(host.ID, "acct_host_1")
	return completed
}

func (suite *SettlementFlowTestSuite) TestTriggerPayout_Idempotent() {
	booking := suite.completedBooking()

	paid, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.NotEmpty(paid.PayoutTransferID)
	suite.Equal(int64(8500), paid.PaidOutCents)
	suite.Equal(1, paid.PayoutAttempts)

	again, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.Equal(paid.PayoutTransferID, again.PayoutTransferID)

	suite.Equal(1, suite.stub.Calls("Transfer"))
	withdrawals := suite.store.entriesWithReason(host.ID, domain.ReasonWithdrawal)
	suite.Require().Len(withdrawals, 1)
	suite.Equal(int64(-8500), withdrawals[0].DeltaCents)
	suite.Equal(booking.BookingID, withdrawals[0].BookingID)
	suite.Equal(int64(0), suite.balance())

	_, err = suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCancelled, admin)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *SettlementFlowTestSuite) TestTriggerPayout_Preconditions() {
	confirmed := suite.confirmedBooking()
	suite.store.setPayoutAccount(host.ID, "acct_host_1")

	_, err := suite.container.Settlement.TriggerPayout(suite.ctx, confirmed.BookingID, host)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = suite.container.Settlement.TriggerPayout(suite.ctx, confirmed.BookingID, otherHost)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	_, err = suite.container.Settlement.UpdateBookingStatus(suite.ctx, confirmed.BookingID, domain.BookingCompleted, admin)
	suite.Require().NoError(err)

	suite.store.setDispute(confirmed.BookingID, true)
	_, err = suite.container.Settlement.TriggerPayout(suite.ctx, confirmed.BookingID, admin)
	suite.ErrorIs(err, apperrors.ErrDisputeOpen)
	suite.Equal(0, suite.stub.Calls("Transfer"))
}

func (suite *SettlementFlowTestSuite) TestTriggerPayout_InsufficientBalance() {
	booking := suite.completedBooking()
	_, _, err := suite.container.Wallet.Credit(suite.ctx, portssvc.LedgerCredit{
		HostID:        host.ID,
		Currency:      "EUR",
		DeltaCents:    -1000,
		Reason:        domain.ReasonAdjustment,
		CorrelationID: "chargeback-1",
	})
	suite.Require().NoError(err)

	_, err = suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *SettlementFlowTestSuite) TestTransferFailed_ReversesWithdrawalOnce() {
	booking := suite.completedBooking()
	paid, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)

	record := suite.process(domain.TransferFailed{
		EventMeta:         domain.EventMeta{ID: "evt_tr_fail"},
		TransferReference: paid.PayoutTransferID,
		Reason:            "account closed",
	})
	suite.Equal(domain.OutcomeApplied, record.Outcome)
	suite.Equal(int64(8500), suite.balance())
	suite.Contains(suite.alerts.kinds(), "reconciliation.APPLIED")

	again := suite.process(domain.TransferFailed{
		EventMeta:         domain.EventMeta{ID: "evt_tr_fail_resent"},
		TransferReference: paid.PayoutTransferID,
	})
	suite.Equal(domain.OutcomeIgnored, again.Outcome)
	suite.Equal(int64(8500), suite.balance())

	unknown := suite.process(domain.TransferFailed{
		EventMeta:         domain.EventMeta{ID: "evt_tr_unknown"},
		TransferReference: "tr_nobody",
	})
	suite.Equal(domain.OutcomeAnomaly, unknown.Outcome)
}

func (suite *SettlementFlowTestSuite) TestTransferFailed_PayoutRetriesUnderNewKey() {
	booking := suite.completedBooking()
	first, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	firstRef := first.PayoutTransferID

	record := suite.process(domain.TransferFailed{
		EventMeta:         domain.EventMeta{ID: "evt_tr_returned"},
		TransferReference: firstRef,
		Reason:            "account closed",
	})
	suite.Require().Equal(domain.OutcomeApplied, record.Outcome)

	reopened, err := suite.container.Booking.GetBookingByID(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Empty(reopened.PayoutTransferID)
	suite.Equal(int64(0), reopened.PaidOutCents)
	suite.Equal(fmt.Sprintf("payout:%s:1", booking.BookingID), reopened.PayoutKey())

	second, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.NotEqual(firstRef, second.PayoutTransferID)
	suite.Equal(int64(8500), second.PaidOutCents)
	suite.Equal(2, suite.stub.Calls("Transfer"))

	withdrawals := suite.store.entriesWithReason(host.ID, domain.ReasonWithdrawal)
	suite.Require().Len(withdrawals, 2)
	for _, w := range withdrawals {
		suite.Equal(int64(-8500), w.DeltaCents)
	}
	suite.Len(suite.store.entriesWithReason(host.ID, domain.ReasonAdjustment), 1)
	suite.Equal(int64(0), suite.balance())

	_, err = suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.Equal(2, suite.stub.Calls("Transfer"))
}

func (suite *SettlementFlowTestSuite) TestTransferFailed_StaleTransferKeepsNewerPayout() {
	booking := suite.completedBooking()
	first, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	firstRef := first.PayoutTransferID
	suite.process(domain.TransferFailed{EventMeta: domain.EventMeta{ID: "evt_tr_a"}, TransferReference: firstRef})
	second, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)

	// A redelivery of the first failure under a new event ID changes nothing.
	record := suite.process(domain.TransferFailed{EventMeta: domain.EventMeta{ID: "evt_tr_a_again"}, TransferReference: firstRef})
	suite.Equal(domain.OutcomeIgnored, record.Outcome)

	current, err := suite.container.Booking.GetBookingByID(suite.ctx, booking.BookingID)
	suite.Require().NoError(err)
	suite.Equal(second.PayoutTransferID, current.PayoutTransferID)
	suite.Equal(int64(8500), current.PaidOutCents)
	suite.Equal(int64(0), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestTriggerPayout_IncludesCapturedDepositShare() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)
	_, err := suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 5000, host)
	suite.Require().NoError(err)
	_, err = suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCompleted, admin)
	suite.Require().NoError(err)
	suite.store.setPayoutAccount(host.ID, "acct_host_1")

	paid, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)

	suite.Equal(int64(13500), paid.PaidOutCents)
	withdrawals := suite.store.entriesWithReason(host.ID, domain.ReasonWithdrawal)
	suite.Require().Len(withdrawals, 1)
	suite.Equal(int64(-13500), withdrawals[0].DeltaCents)
	suite.Equal(int64(0), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestTriggerPayout_PaysShareCapturedAfterPayout() {
	suite.enableDeposits(20000)
	booking := suite.confirmedBooking()
	deposit := suite.authorizedDeposit(booking.BookingID)
	_, err := suite.container.Settlement.UpdateBookingStatus(suite.ctx, booking.BookingID, domain.BookingCompleted, admin)
	suite.Require().NoError(err)
	suite.store.setPayoutAccount(host.ID, "acct_host_1")

	first, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.Equal(int64(8500), first.PaidOutCents)

	_, err = suite.container.Settlement.CaptureDeposit(suite.ctx, deposit.DepositID, 3000, host)
	suite.Require().NoError(err)
	suite.Equal(int64(3000), suite.balance())

	second, err := suite.container.Settlement.TriggerPayout(suite.ctx, booking.BookingID, host)
	suite.Require().NoError(err)
	suite.Equal(int64(11500), second.PaidOutCents)
	suite.NotEqual(first.PayoutTransferID, second.PayoutTransferID)
	suite.Equal(2, suite.stub.Calls("Transfer"))

	withdrawals := suite.store.entriesWithReason(host.ID, domain.ReasonWithdrawal)
	suite.Require().Len(withdrawals, 2)
	suite.Equal(int64(0), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestTransferCompleted_IsRecordedOnly() {
	record := suite.process(domain.TransferCompleted{EventMeta: domain.EventMeta{ID: "evt_tr_ok"}, TransferReference: "tr_1"})
	suite.Equal(domain.OutcomeIgnored, record.Outcome)
	suite.Equal(domain.EventTransferCompleted, record.EventType)
}

// --- Wallet ---

func (suite *SettlementFlowTestSuite) TestWalletBalance_MismatchFreezesAndAlerts() {
	suite.confirmedBooking()
	suite.store.shiftBalance(host.ID, "EUR", 1)

	_, err := suite.container.Settlement.GetWalletBalance(suite.ctx, host.ID, "EUR", host)
	suite.ErrorIs(err, apperrors.ErrDataIntegrity)
	suite.True(suite.store.wallet(host.ID, "EUR").Frozen)
	suite.Equal(int64(8501), suite.store.wallet(host.ID, "EUR").BalanceCents, "the balance is never corrected silently")
	suite.Contains(suite.alerts.kinds(), string(apperrors.KindDataIntegrity))

	next := suite.createBooking()
	record := suite.process(domain.PaymentSucceeded{EventMeta: domain.EventMeta{ID: "evt_frozen"}, BookingID: next.BookingID})
	suite.Equal(domain.OutcomeFailed, record.Outcome)

	stillPending, err := suite.container.Booking.GetBookingByID(suite.ctx, next.BookingID)
	suite.Require().NoError(err)
	suite.Equal(domain.BookingPending, stillPending.Status)
}

func (suite *SettlementFlowTestSuite) TestWalletBalance_Permissions() {
	suite.confirmedBooking()

	b, err := suite.container.Settlement.GetWalletBalance(suite.ctx, host.ID, "eur", admin)
	suite.Require().NoError(err)
	suite.Equal(int64(8500), b.BalanceCents)

	_, err = suite.container.Settlement.GetWalletBalance(suite.ctx, host.ID, "EUR", otherHost)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)
	_, err = suite.container.Settlement.GetWalletBalance(suite.ctx, host.ID, "EUR", guest)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	empty, err := suite.container.Settlement.GetWalletBalance(suite.ctx, otherHost.ID, "EUR", otherHost)
	suite.Require().NoError(err)
	suite.Equal(int64(0), empty.BalanceCents)
}

func (suite *SettlementFlowTestSuite) TestWalletCredit_RejectsZeroAndDuplicates() {
	credit := portssvc.LedgerCredit{HostID: host.ID, Currency: "EUR", DeltaCents: 0, Reason: domain.ReasonAdjustment, CorrelationID: "adj-0"}
	_, _, err := suite.container.Wallet.Credit(suite.ctx, credit)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)

	credit.DeltaCents = 250
	first, inserted, err := suite.container.Wallet.Credit(suite.ctx, credit)
	suite.Require().NoError(err)
	suite.True(inserted)

	credit.DeltaCents = 999
	second, inserted, err := suite.container.Wallet.Credit(suite.ctx, credit)
	suite.Require().NoError(err)
	suite.False(inserted)
	suite.Equal(first.EntryID, second.EntryID)
	suite.Equal(int64(250), suite.balance())
}

func (suite *SettlementFlowTestSuite) TestListRecent_NewestFirstWithLimit() {
	for i := range 120 {
		_, _, err := suite.container.Wallet.Credit(suite.ctx, portssvc.LedgerCredit{
			HostID:        host.ID,
			Currency:      "EUR",
			DeltaCents:    1,
			Reason:        domain.ReasonAdjustment,
			CorrelationID: fmt.Sprintf("adj-%d", i),
		})
		suite.Require().NoError(err)
	}

	var got []domain.WalletLedgerEntry
	for entry, err := range suite.container.Wallet.ListRecent(suite.ctx, host.ID, 75) {
		suite.Require().NoError(err)
		got = append(got, entry)
	}
	suite.Require().Len(got, 75)
	suite.Equal("adj-119", got[0].CorrelationID)
	suite.Equal("adj-45", got[74].CorrelationID)

	count := 0
	for range suite.container.Wallet.ListRecent(suite.ctx, host.ID, 100) {
		count++
		if count == 3 {
			break
		}
	}
	suite.Equal(3, count)

	all := 0
	for _, err := range suite.container.Wallet.ListRecent(suite.ctx, host.ID, 500) {
		suite.Require().NoError(err)
		all++
	}
	suite.Equal(120, all)

	none := 0
	for range suite.container.Wallet.ListRecent(suite.ctx, host.ID, 0) {
		none++
	}
	suite.Equal(0, none)
}

func (suite *SettlementFlowTestSuite) TestListWalletEntries_Pages() {
	for i := range 5 {
		_, _, err := suite.container.Wallet.Credit(suite.ctx, portssvc.LedgerCredit{
			HostID: host.ID, Currency: "EUR", DeltaCents: 10, Reason: domain.ReasonAdjustment, CorrelationID: fmt.Sprintf("p-%d", i),
		})
		suite.Require().NoError(err)
	}

	page, err := suite.container.Settlement.ListWalletEntries(suite.ctx, host.ID, dto.ListWalletEntriesParams{Limit: 3}, host)
	suite.Require().NoError(err)
	suite.Len(page.Entries, 3)
	suite.Require().NotNil(page.NextToken)

	rest, err := suite.container.Settlement.ListWalletEntries(suite.ctx, host.ID, dto.ListWalletEntriesParams{Limit: 3, NextToken: page.NextToken}, host)
	suite.Require().NoError(err)
	suite.Len(rest.Entries, 2)
	suite.Nil(rest.NextToken)
}

// --- Admin ---

func (suite *SettlementFlowTestSuite) TestUpsertDepositPolicy() {
	_, err := suite.container.Settlement.UpsertDepositPolicy(suite.ctx, listingID, dto.UpsertDepositPolicyRequest{Enabled: true, AmountCents: 20000, Currency: "EUR"}, host)
	suite.ErrorIs(err, apperrors.ErrNotAuthorized)

	_, err = suite.container.Settlement.UpsertDepositPolicy(suite.ctx, listingID, dto.UpsertDepositPolicyRequest{Enabled: true, AmountCents: 0, Currency: "EUR"}, admin)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)

	policy, err := suite.container.Settlement.UpsertDepositPolicy(suite.ctx, listingID, dto.UpsertDepositPolicyRequest{Enabled: true, AmountCents: 20000, Currency: "eur"}, admin)
	suite.Require().NoError(err)
	suite.Equal(domain.Currency("EUR"), policy.Currency)

	booking := suite.createBooking()
	deposit, err := suite.container.Settlement.CreateDeposit(suite.ctx, booking.BookingID, guest)
	suite.Require().NoError(err)
	suite.Equal(int64(20000), deposit.AmountCents)
}
