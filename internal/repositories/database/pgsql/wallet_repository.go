package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/SscSPs/booking_settlement/internal/models"
	"github.com/SscSPs/booking_settlement/internal/utils/mapping"
	"github.com/SscSPs/booking_settlement/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

type PgxWalletRepository struct {
	BaseRepository
}

// newPgxWalletRepository creates a new repository for the wallet ledger.
func newPgxWalletRepository(base BaseRepository) portsrepo.WalletRepositoryFacade {
	return &PgxWalletRepository{BaseRepository: base}
}

// Ensure PgxWalletRepository implements portsrepo.WalletRepositoryFacade
var _ portsrepo.WalletRepositoryFacade = (*PgxWalletRepository)(nil)

const walletEntrySelectQuery = `
SELECT entry_id, host_id, currency_code, delta_cents, reason, correlation_id, booking_id, description, created_at
FROM wallet_ledger_entries
`

func (r *PgxWalletRepository) FindEntryByCorrelation(ctx context.Context, correlationID string, reason domain.LedgerReason) (*domain.WalletLedgerEntry, error) {
	rows, err := r.db(ctx).Query(ctx, walletEntrySelectQuery+`WHERE correlation_id = $1 AND reason = $2`, correlationID, reason)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query wallet entry "+correlationID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.WalletLedgerEntry])
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("wallet entry %s/%s", reason, correlationID))
	}
	entry := mapping.ToDomainWalletEntry(m)
	return &entry, nil
}

func (r *PgxWalletRepository) AppendEntry(ctx context.Context, entry domain.WalletLedgerEntry) (domain.WalletLedgerEntry, bool, error) {
	var stored domain.WalletLedgerEntry
	var inserted bool
	err := r.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := r.FindEntryByCorrelation(ctx, entry.CorrelationID, entry.Reason)
		if err == nil {
			stored = *existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// Lock the wallet row so appends for one host are serialized.
		frozen, err := r.lockWallet(ctx, entry.HostID, entry.Currency, entry.CreatedAt)
		if err != nil {
			return err
		}
		if frozen {
			return fmt.Errorf("%w: wallet %s/%s is frozen", apperrors.ErrDataIntegrity, entry.HostID, entry.Currency)
		}

		m := mapping.ToModelWalletEntry(entry)
		insertQuery := `
			INSERT INTO wallet_ledger_entries (
				entry_id, host_id, currency_code, delta_cents, reason, correlation_id, booking_id, description, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (correlation_id, reason) DO NOTHING;
		`
		result, err := r.db(ctx).Exec(ctx, insertQuery,
			m.EntryID, m.HostID, m.CurrencyCode, m.DeltaCents, m.Reason, m.CorrelationID, m.BookingID, m.Description, m.CreatedAt,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to append wallet entry "+entry.EntryID, err)
		}
		if result.RowsAffected() == 0 {
			// Lost a race with a concurrent append of the same correlation.
			existing, err := r.FindEntryByCorrelation(ctx, entry.CorrelationID, entry.Reason)
			if err != nil {
				return err
			}
			stored = *existing
			return nil
		}

		updateQuery := `
			UPDATE wallets
			SET balance_cents = balance_cents + $1, updated_at = $2
			WHERE host_id = $3 AND currency_code = $4;
		`
		if _, err := r.db(ctx).Exec(ctx, updateQuery, m.DeltaCents, m.CreatedAt, m.HostID, m.CurrencyCode); err != nil {
			return apperrors.NewAppError(500, "failed to update wallet balance for host "+entry.HostID, err)
		}
		stored = entry
		inserted = true
		return nil
	})
	if err != nil {
		return domain.WalletLedgerEntry{}, false, err
	}
	return stored, inserted, nil
}

// lockWallet creates the wallet row if needed and locks it for the current transaction.
func (r *PgxWalletRepository) lockWallet(ctx context.Context, hostID string, currency domain.Currency, now time.Time) (bool, error) {
	ensureQuery := `
		INSERT INTO wallets (host_id, currency_code, balance_cents, frozen, frozen_reason, updated_at)
		VALUES ($1, $2, 0, false, '', $3)
		ON CONFLICT (host_id, currency_code) DO NOTHING;
	`
	if _, err := r.db(ctx).Exec(ctx, ensureQuery, hostID, currency, now); err != nil {
		return false, apperrors.NewAppError(500, "failed to create wallet for host "+hostID, err)
	}

	var frozen bool
	lockQuery := `SELECT frozen FROM wallets WHERE host_id = $1 AND currency_code = $2 FOR UPDATE;`
	if err := r.db(ctx).QueryRow(ctx, lockQuery, hostID, currency).Scan(&frozen); err != nil {
		return false, notFoundOr(err, "wallet for host "+hostID)
	}
	return frozen, nil
}

func (r *PgxWalletRepository) FindWalletSnapshot(ctx context.Context, hostID string, currency domain.Currency) (*domain.Wallet, int64, error) {
	// One statement, so the cached balance and the ledger sum come from the same snapshot.
	query := `
		SELECT
			(SELECT COALESCE(SUM(e.delta_cents), 0)::bigint
			 FROM wallet_ledger_entries e
			 WHERE e.host_id = $1 AND e.currency_code = $2) AS ledger_sum,
			w.balance_cents, w.frozen, w.frozen_reason, w.updated_at
		FROM (SELECT 1) AS one
		LEFT JOIN wallets w ON w.host_id = $1 AND w.currency_code = $2;
	`
	var (
		ledgerSum    int64
		balanceCents *int64
		frozen       *bool
		frozenReason *string
		updatedAt    *time.Time
	)
	err := r.db(ctx).QueryRow(ctx, query, hostID, currency).Scan(&ledgerSum, &balanceCents, &frozen, &frozenReason, &updatedAt)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to read wallet snapshot for host "+hostID, err)
	}
	if balanceCents == nil {
		return nil, ledgerSum, nil
	}

	m := models.Wallet{
		HostID:       hostID,
		CurrencyCode: string(currency),
		BalanceCents: *balanceCents,
	}
	if frozen != nil {
		m.Frozen = *frozen
	}
	if frozenReason != nil {
		m.FrozenReason = *frozenReason
	}
	if updatedAt != nil {
		m.UpdatedAt = *updatedAt
	}
	wallet := mapping.ToDomainWallet(m)
	return &wallet, ledgerSum, nil
}

func (r *PgxWalletRepository) ListEntries(ctx context.Context, hostID string, limit int, nextToken *string) ([]domain.WalletLedgerEntry, *string, error) {
	args := []any{hostID}
	filter := `WHERE host_id = $1`
	if nextToken != nil && *nextToken != "" {
		createdAt, entryID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter += ` AND (created_at, entry_id) < ($2, $3)`
		args = append(args, createdAt, entryID)
	}
	// Fetch one extra row to know whether another page exists.
	filter += fmt.Sprintf(` ORDER BY created_at DESC, entry_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.db(ctx).Query(ctx, walletEntrySelectQuery+filter, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query wallet entries for host "+hostID, err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.WalletLedgerEntry])
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to collect wallet entry rows", err)
	}

	var next *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[len(ms)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		next = &token
	}
	return mapping.ToDomainWalletEntries(ms), next, nil
}

func (r *PgxWalletRepository) FreezeWallet(ctx context.Context, hostID string, currency domain.Currency, reason string) error {
	query := `
		INSERT INTO wallets (host_id, currency_code, balance_cents, frozen, frozen_reason, updated_at)
		VALUES ($1, $2, 0, true, $3, NOW())
		ON CONFLICT (host_id, currency_code) DO UPDATE
		SET frozen = true, frozen_reason = EXCLUDED.frozen_reason, updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.db(ctx).Exec(ctx, query, hostID, currency, reason); err != nil {
		return apperrors.NewAppError(500, "failed to freeze wallet for host "+hostID, err)
	}
	return nil
}
