package repositories

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// Projections of data owned by other services. This module only reads them,
// except for the admin policy upsert used to seed listings.

// DepositPolicyRepository reads and writes listing deposit policies.
type DepositPolicyRepository interface {
	FindDepositPolicy(ctx context.Context, listingID string) (*domain.DepositPolicy, error)
	SaveDepositPolicy(ctx context.Context, policy domain.DepositPolicy) error
}

// DisputeReader reports whether a booking has an unresolved dispute.
type DisputeReader interface {
	HasOpenDispute(ctx context.Context, bookingID string) (bool, error)
}

// PayoutAccountReader resolves a host's external payout account.
type PayoutAccountReader interface {
	FindPayoutAccount(ctx context.Context, hostID string) (string, error)
}
