package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/google/uuid"
)

const (
	defaultWalletPageSize = 20
	walletIterPageSize    = 50
)

type walletService struct {
	BaseService
	walletRepo portsrepo.WalletRepositoryFacade
	alerts     gateways.AlertPublisher
}

// NewWalletService creates a new wallet service
func NewWalletService(walletRepo portsrepo.WalletRepositoryFacade, alerts gateways.AlertPublisher, base BaseService) portssvc.WalletSvcFacade {
	return &walletService{
		BaseService: base,
		walletRepo:  walletRepo,
		alerts:      alerts,
	}
}

var _ portssvc.WalletSvcFacade = (*walletService)(nil)

func (s *walletService) Credit(ctx context.Context, credit portssvc.LedgerCredit) (domain.WalletLedgerEntry, bool, error) {
	if credit.HostID == "" || credit.CorrelationID == "" {
		return domain.WalletLedgerEntry{}, false, fmt.Errorf("%w: host ID and correlation ID are required", apperrors.ErrValidation)
	}
	if !credit.Reason.IsValid() {
		return domain.WalletLedgerEntry{}, false, fmt.Errorf("%w: unknown ledger reason %q", apperrors.ErrValidation, credit.Reason)
	}
	if credit.DeltaCents == 0 {
		return domain.WalletLedgerEntry{}, false, fmt.Errorf("%w: ledger delta must not be zero", apperrors.ErrInvalidAmount)
	}
	if _, err := domain.ParseCurrency(string(credit.Currency)); err != nil {
		return domain.WalletLedgerEntry{}, false, err
	}

	entry := domain.WalletLedgerEntry{
		EntryID:       uuid.NewString(),
		HostID:        credit.HostID,
		Currency:      credit.Currency,
		DeltaCents:    credit.DeltaCents,
		Reason:        credit.Reason,
		CorrelationID: credit.CorrelationID,
		BookingID:     credit.BookingID,
		Description:   credit.Description,
		CreatedAt:     s.now(),
	}

	stored, inserted, err := s.walletRepo.AppendEntry(ctx, entry)
	if err != nil {
		s.LogError(ctx, err, "Failed to append wallet entry",
			slog.String("host_id", credit.HostID),
			slog.String("reason", string(credit.Reason)),
			slog.String("correlation_id", credit.CorrelationID),
			slog.Int64("delta_cents", credit.DeltaCents))
		return domain.WalletLedgerEntry{}, false, err
	}

	if !inserted {
		s.LogInfo(ctx, "Wallet entry already recorded",
			slog.String("entry_id", stored.EntryID),
			slog.String("reason", string(credit.Reason)),
			slog.String("correlation_id", credit.CorrelationID))
		return stored, false, nil
	}

	s.LogInfo(ctx, "Wallet entry appended",
		slog.String("entry_id", stored.EntryID),
		slog.String("host_id", stored.HostID),
		slog.String("reason", string(stored.Reason)),
		slog.String("correlation_id", stored.CorrelationID),
		slog.Int64("delta_cents", stored.DeltaCents))
	return stored, true, nil
}

func (s *walletService) GetBalance(ctx context.Context, hostID string, currency domain.Currency) (domain.WalletBalance, error) {
	wallet, ledgerSum, err := s.walletRepo.FindWalletSnapshot(ctx, hostID, currency)
	if err != nil {
		s.LogError(ctx, err, "Failed to read wallet snapshot", slog.String("host_id", hostID), slog.String("currency", string(currency)))
		return domain.WalletBalance{}, err
	}

	balance := domain.WalletBalance{HostID: hostID, Currency: currency, BalanceCents: ledgerSum}

	if wallet == nil {
		if ledgerSum != 0 {
			return domain.WalletBalance{}, s.integrityFailure(ctx, hostID, currency, 0, ledgerSum)
		}
		return balance, nil
	}

	if wallet.BalanceCents != ledgerSum {
		return domain.WalletBalance{}, s.integrityFailure(ctx, hostID, currency, wallet.BalanceCents, ledgerSum)
	}

	if wallet.Frozen {
		return domain.WalletBalance{}, fmt.Errorf("%w: wallet of host %s in %s is frozen: %s", apperrors.ErrDataIntegrity, hostID, currency, wallet.FrozenReason)
	}

	return balance, nil
}

// integrityFailure freezes the wallet, alerts operators and returns the error.
// The balance is never corrected here.
func (s *walletService) integrityFailure(ctx context.Context, hostID string, currency domain.Currency, cached, ledgerSum int64) error {
	reason := fmt.Sprintf("cached balance %d does not match ledger sum %d", cached, ledgerSum)
	err := fmt.Errorf("%w: wallet of host %s in %s: %s", apperrors.ErrDataIntegrity, hostID, currency, reason)

	s.LogError(ctx, err, "Wallet balance mismatch",
		slog.String("host_id", hostID),
		slog.String("currency", string(currency)),
		slog.Int64("cached_cents", cached),
		slog.Int64("ledger_sum_cents", ledgerSum))

	if freezeErr := s.walletRepo.FreezeWallet(ctx, hostID, currency, reason); freezeErr != nil {
		s.LogError(ctx, freezeErr, "Failed to freeze wallet", slog.String("host_id", hostID))
	}

	if s.alerts != nil {
		alertErr := s.alerts.Publish(ctx, gateways.Alert{
			Kind:    string(apperrors.KindDataIntegrity),
			Message: reason,
			Attributes: map[string]string{
				"host_id":  hostID,
				"currency": string(currency),
			},
			RaisedAt: s.now(),
		})
		if alertErr != nil {
			s.LogError(ctx, alertErr, "Failed to publish wallet integrity alert", slog.String("host_id", hostID))
		}
	}

	return err
}

func (s *walletService) ListRecent(ctx context.Context, hostID string, limit int) iter.Seq2[domain.WalletLedgerEntry, error] {
	return func(yield func(domain.WalletLedgerEntry, error) bool) {
		if limit <= 0 {
			return
		}

		var token *string
		remaining := limit
		for remaining > 0 {
			pageSize := min(remaining, walletIterPageSize)
			entries, next, err := s.walletRepo.ListEntries(ctx, hostID, pageSize, token)
			if err != nil {
				yield(domain.WalletLedgerEntry{}, err)
				return
			}
			for _, e := range entries {
				if !yield(e, nil) {
					return
				}
				remaining--
				if remaining == 0 {
					return
				}
			}
			if next == nil || len(entries) == 0 {
				return
			}
			token = next
		}
	}
}

func (s *walletService) ListEntries(ctx context.Context, hostID string, params dto.ListWalletEntriesParams) (*dto.ListWalletEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultWalletPageSize
	}

	entries, next, err := s.walletRepo.ListEntries(ctx, hostID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list wallet entries", slog.String("host_id", hostID))
		return nil, err
	}

	return &dto.ListWalletEntriesResponse{
		Entries:   dto.ToWalletEntryResponses(entries),
		NextToken: next,
	}, nil
}

func (s *walletService) FindEntryByCorrelation(ctx context.Context, correlationID string, reason domain.LedgerReason) (*domain.WalletLedgerEntry, error) {
	entry, err := s.walletRepo.FindEntryByCorrelation(ctx, correlationID, reason)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find wallet entry", slog.String("correlation_id", correlationID))
		}
		return nil, err
	}
	return entry, nil
}
