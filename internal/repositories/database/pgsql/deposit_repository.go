package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/SscSPs/booking_settlement/internal/models"
	"github.com/SscSPs/booking_settlement/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxDepositRepository struct {
	BaseRepository
}

// newPgxDepositRepository creates a new repository for security deposit data.
func newPgxDepositRepository(base BaseRepository) portsrepo.DepositRepositoryFacade {
	return &PgxDepositRepository{BaseRepository: base}
}

// Ensure PgxDepositRepository implements portsrepo.DepositRepositoryFacade
var _ portsrepo.DepositRepositoryFacade = (*PgxDepositRepository)(nil)

const depositSelectQuery = `
SELECT
	d.deposit_id, d.booking_id, d.amount_cents, d.currency_code, d.status, d.captured_cents,
	d.hold_reference, d.pending_action, d.pending_amount_cents, d.failure_reason, d.discarded_at,
	d.created_at, d.created_by, d.last_updated_at, d.last_updated_by, d.version
FROM security_deposits d
`

// getDeposits runs the deposit select with the given filter.
func (r *PgxDepositRepository) getDeposits(ctx context.Context, filterQuery string, args ...any) ([]domain.SecurityDeposit, error) {
	rows, err := r.db(ctx).Query(ctx, depositSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query security deposits", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.SecurityDeposit])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect security deposit rows", err)
	}
	return mapping.ToDomainDeposits(ms), nil
}

func (r *PgxDepositRepository) findOne(ctx context.Context, notFound string, filterQuery string, args ...any) (*domain.SecurityDeposit, error) {
	deposits, err := r.getDeposits(ctx, filterQuery, args...)
	if err != nil {
		return nil, err
	}
	if len(deposits) == 0 {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	return &deposits[0], nil
}

func (r *PgxDepositRepository) SaveDeposit(ctx context.Context, deposit domain.SecurityDeposit) error {
	m := mapping.ToModelDeposit(deposit)
	query := `
		INSERT INTO security_deposits (
			deposit_id, booking_id, amount_cents, currency_code, status, captured_cents,
			hold_reference, pending_action, pending_amount_cents, failure_reason, discarded_at,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.DepositID, m.BookingID, m.AmountCents, m.CurrencyCode, m.Status, m.CapturedCents,
		m.HoldReference, m.PendingAction, m.PendingAmountCents, m.FailureReason, m.DiscardedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// uq_security_deposits_active_booking: one live deposit per booking
			return apperrors.ErrDuplicateDeposit
		}
		return apperrors.NewAppError(500, "failed to save security deposit "+deposit.DepositID, err)
	}
	return nil
}

func (r *PgxDepositRepository) FindDepositByID(ctx context.Context, depositID string) (*domain.SecurityDeposit, error) {
	return r.findOne(ctx, "security deposit "+depositID+" not found", `WHERE d.deposit_id = $1`, depositID)
}

func (r *PgxDepositRepository) FindActiveDepositByBookingID(ctx context.Context, bookingID string) (*domain.SecurityDeposit, error) {
	return r.findOne(ctx, "no security deposit for booking "+bookingID,
		`WHERE d.booking_id = $1 AND d.discarded_at IS NULL`, bookingID)
}

func (r *PgxDepositRepository) ListStaleHolds(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	return r.getDeposits(ctx, `
		WHERE d.status = $1 AND d.pending_action = '' AND d.discarded_at IS NULL AND d.last_updated_at < $2
		ORDER BY d.last_updated_at
		LIMIT $3`, domain.DepositHoldCreated, updatedBefore, limit)
}

func (r *PgxDepositRepository) ListStalePendingActions(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	return r.getDeposits(ctx, `
		WHERE d.pending_action <> '' AND d.last_updated_at < $1
		ORDER BY d.last_updated_at
		LIMIT $2`, updatedBefore, limit)
}

func (r *PgxDepositRepository) ListReleasableDeposits(ctx context.Context, checkOutBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	return r.getDeposits(ctx, `
		JOIN bookings b ON b.booking_id = d.booking_id
		WHERE d.status = $1 AND d.pending_action = '' AND b.check_out < $2
		ORDER BY b.check_out
		LIMIT $3`, domain.DepositAuthorized, checkOutBefore, limit)
}

func (r *PgxDepositRepository) UpdateDeposit(ctx context.Context, deposit domain.SecurityDeposit, expectedVersion int64) error {
	m := mapping.ToModelDeposit(deposit)
	query := `
		UPDATE security_deposits
		SET status = $1, captured_cents = $2, hold_reference = $3, pending_action = $4,
			pending_amount_cents = $5, failure_reason = $6, discarded_at = $7,
			last_updated_at = $8, last_updated_by = $9, version = version + 1
		WHERE deposit_id = $10 AND version = $11;
	`
	result, err := r.db(ctx).Exec(ctx, query,
		m.Status, m.CapturedCents, m.HoldReference, m.PendingAction,
		m.PendingAmountCents, m.FailureReason, m.DiscardedAt,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.DepositID, expectedVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateDeposit
		}
		return apperrors.NewAppError(500, "failed to update security deposit "+deposit.DepositID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConcurrentModification
	}
	return nil
}
