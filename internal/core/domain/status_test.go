package domain_test

import (
	"testing"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := map[domain.BookingStatus][]domain.BookingStatus{
		domain.BookingPending:   {domain.BookingConfirmed, domain.BookingCancelled},
		domain.BookingConfirmed: {domain.BookingCancelled, domain.BookingCompleted},
	}
	all := []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed, domain.BookingCancelled, domain.BookingCompleted}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_IsValid(t *testing.T) {
	assert.True(t, domain.BookingCompleted.IsValid())
	assert.False(t, domain.BookingStatus("REFUNDED").IsValid())
	assert.True(t, domain.BookingPending.IsPayable())
	assert.False(t, domain.BookingCancelled.IsPayable())
}

func TestDepositStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to domain.DepositStatus
		want     bool
	}{
		{domain.DepositNone, domain.DepositHoldCreated, true},
		{domain.DepositHoldCreated, domain.DepositAuthorized, true},
		{domain.DepositHoldCreated, domain.DepositFailed, true},
		{domain.DepositHoldCreated, domain.DepositReleased, true},
		{domain.DepositHoldCreated, domain.DepositCaptured, false},
		{domain.DepositAuthorized, domain.DepositCaptured, true},
		{domain.DepositAuthorized, domain.DepositReleased, true},
		{domain.DepositAuthorized, domain.DepositFailed, false},
		{domain.DepositCaptured, domain.DepositReleased, false},
		{domain.DepositCaptured, domain.DepositAuthorized, false},
		{domain.DepositReleased, domain.DepositCaptured, false},
		{domain.DepositFailed, domain.DepositAuthorized, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, domain.DepositCaptured.IsTerminal())
	assert.True(t, domain.DepositReleased.IsTerminal())
	assert.False(t, domain.DepositAuthorized.IsTerminal())
}

func TestBooking_Parties(t *testing.T) {
	b := domain.Booking{GuestID: "g1", HostID: "h1", Currency: "EUR", GrossCents: 10000, HostFeeCents: 1500}

	assert.True(t, b.IsParty(domain.Caller{ID: "g1", Role: domain.RoleGuest}))
	assert.True(t, b.IsParty(domain.Caller{ID: "h1", Role: domain.RoleHost}))
	assert.False(t, b.IsParty(domain.Caller{ID: "h1", Role: domain.RoleGuest}))
	assert.True(t, b.IsOwningHost(domain.Caller{ID: "h1", Role: domain.RoleHost}))
	assert.False(t, b.IsOwningHost(domain.Caller{ID: "g1", Role: domain.RoleGuest}))
	assert.Equal(t, int64(8500), b.HostPayout().Cents())
}

func TestSecurityDeposit_IdempotencyKey(t *testing.T) {
	d := domain.SecurityDeposit{DepositID: "d1"}
	assert.Equal(t, "deposit:d1", d.IdempotencyKey(""))
	assert.Equal(t, "deposit:d1:capture", d.IdempotencyKey("capture"))
}
