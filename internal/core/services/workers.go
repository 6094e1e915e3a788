package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/middleware"
)

// DepositWorker runs the background passes that settle deposits the request
// path could not finish: stale holds, unknown-outcome actions and expired holds.
type DepositWorker struct {
	BaseService
	logger      *slog.Logger
	depositRepo portsrepo.DepositReader
	deposits    portssvc.DepositSvcFacade
	settings    Settings
	interval    time.Duration
}

// NewDepositWorker constructs the worker loop with sane defaults.
func NewDepositWorker(logger *slog.Logger, depositRepo portsrepo.DepositReader, deposits portssvc.DepositSvcFacade, settings Settings, interval time.Duration, base BaseService) *DepositWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if settings.WorkerBatchSize <= 0 {
		settings.WorkerBatchSize = 50
	}
	return &DepositWorker{
		BaseService: base,
		logger:      logger.With(slog.String("component", "deposit_worker")),
		depositRepo: depositRepo,
		deposits:    deposits,
		settings:    settings,
		interval:    interval,
	}
}

// Run executes the periodic passes until context cancellation.
func (w *DepositWorker) Run(ctx context.Context) error {
	ctx = middleware.WithLogger(ctx, w.logger)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes every pass one time.
func (w *DepositWorker) RunOnce(ctx context.Context) {
	passes := []struct {
		name string
		fn   func(context.Context) (int, error)
	}{
		{"poll_stale_holds", w.PollStaleHolds},
		{"resolve_pending_actions", w.ResolvePendingActions},
		{"release_expired_deposits", w.ReleaseExpiredDeposits},
	}
	for _, p := range passes {
		handled, err := p.fn(ctx)
		if err != nil {
			w.LogError(ctx, err, "Deposit worker pass failed", slog.String("pass", p.name))
			continue
		}
		if handled > 0 {
			w.LogInfo(ctx, "Deposit worker pass finished", slog.String("pass", p.name), slog.Int("handled", handled))
		}
	}
}

// PollStaleHolds asks the processor about holds stuck in HOLD_CREATED.
func (w *DepositWorker) PollStaleHolds(ctx context.Context) (int, error) {
	stale, err := w.depositRepo.ListStaleHolds(ctx, w.now().Add(-w.settings.HoldStaleAfter), w.settings.WorkerBatchSize)
	if err != nil {
		return 0, err
	}
	return w.each(ctx, stale, w.deposits.PollHold), nil
}

// ResolvePendingActions settles captures and releases whose outcome was unknown.
func (w *DepositWorker) ResolvePendingActions(ctx context.Context) (int, error) {
	pending, err := w.depositRepo.ListStalePendingActions(ctx, w.now().Add(-w.settings.HoldStaleAfter), w.settings.WorkerBatchSize)
	if err != nil {
		return 0, err
	}
	return w.each(ctx, pending, w.deposits.ResumePendingAction), nil
}

// ReleaseExpiredDeposits releases holds once the claim window after check-out has passed.
func (w *DepositWorker) ReleaseExpiredDeposits(ctx context.Context) (int, error) {
	expired, err := w.depositRepo.ListReleasableDeposits(ctx, w.now().Add(-w.settings.DepositClaimWindow), w.settings.WorkerBatchSize)
	if err != nil {
		return 0, err
	}
	return w.each(ctx, expired, func(ctx context.Context, d domain.SecurityDeposit) error {
		_, err := w.deposits.Release(ctx, d.DepositID, domain.SystemCaller)
		return err
	}), nil
}

func (w *DepositWorker) each(ctx context.Context, deposits []domain.SecurityDeposit, fn func(context.Context, domain.SecurityDeposit) error) int {
	handled := 0
	for _, d := range deposits {
		if ctx.Err() != nil {
			break
		}
		if err := fn(ctx, d); err != nil {
			w.LogError(ctx, err, "Deposit worker item failed",
				slog.String("deposit_id", d.DepositID),
				slog.String("booking_id", d.BookingID),
				slog.String("status", string(d.Status)))
			continue
		}
		handled++
	}
	return handled
}
