package pgsql

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/SscSPs/booking_settlement/internal/models"
	"github.com/SscSPs/booking_settlement/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxDirectoryRepository reads the listing, dispute and payout account
// projections maintained by other services.
type PgxDirectoryRepository struct {
	BaseRepository
}

func newPgxDirectoryRepository(base BaseRepository) *PgxDirectoryRepository {
	return &PgxDirectoryRepository{BaseRepository: base}
}

var (
	_ portsrepo.DepositPolicyRepository = (*PgxDirectoryRepository)(nil)
	_ portsrepo.DisputeReader           = (*PgxDirectoryRepository)(nil)
	_ portsrepo.PayoutAccountReader     = (*PgxDirectoryRepository)(nil)
)

func (r *PgxDirectoryRepository) FindDepositPolicy(ctx context.Context, listingID string) (*domain.DepositPolicy, error) {
	query := `
		SELECT listing_id, enabled, amount_cents, currency_code
		FROM listing_deposit_policies
		WHERE listing_id = $1;
	`
	rows, err := r.db(ctx).Query(ctx, query, listingID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query deposit policy for listing "+listingID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.DepositPolicy])
	if err != nil {
		return nil, notFoundOr(err, "deposit policy for listing "+listingID)
	}
	policy := mapping.ToDomainDepositPolicy(m)
	return &policy, nil
}

func (r *PgxDirectoryRepository) SaveDepositPolicy(ctx context.Context, policy domain.DepositPolicy) error {
	query := `
		INSERT INTO listing_deposit_policies (listing_id, enabled, amount_cents, currency_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (listing_id) DO UPDATE
		SET enabled = EXCLUDED.enabled, amount_cents = EXCLUDED.amount_cents, currency_code = EXCLUDED.currency_code;
	`
	_, err := r.db(ctx).Exec(ctx, query, policy.ListingID, policy.Enabled, policy.AmountCents, policy.Currency)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save deposit policy for listing "+policy.ListingID, err)
	}
	return nil
}

func (r *PgxDirectoryRepository) HasOpenDispute(ctx context.Context, bookingID string) (bool, error) {
	var open bool
	query := `SELECT EXISTS (SELECT 1 FROM booking_disputes WHERE booking_id = $1 AND resolved_at IS NULL);`
	if err := r.db(ctx).QueryRow(ctx, query, bookingID).Scan(&open); err != nil {
		return false, apperrors.NewAppError(500, "failed to check disputes for booking "+bookingID, err)
	}
	return open, nil
}

func (r *PgxDirectoryRepository) FindPayoutAccount(ctx context.Context, hostID string) (string, error) {
	var account string
	query := `SELECT account_reference FROM host_payout_accounts WHERE host_id = $1;`
	if err := r.db(ctx).QueryRow(ctx, query, hostID).Scan(&account); err != nil {
		return "", notFoundOr(err, "payout account for host "+hostID)
	}
	return account, nil
}
