package processor

import (
	"context"
	"testing"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubProcessor_HoldLifecycleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stub := NewStubProcessor()
	amount := domain.MustMoney(20000, "EUR")

	ref, err := stub.CreateHold(ctx, amount, nil, "deposit:d1")
	require.NoError(t, err)
	again, err := stub.CreateHold(ctx, amount, nil, "deposit:d1")
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	hold, err := stub.LookupHold(ctx, "deposit:d1")
	require.NoError(t, err)
	assert.Equal(t, gateways.HoldStateAuthorized, hold.State)

	capture := domain.MustMoney(5000, "EUR")
	require.NoError(t, stub.CaptureHold(ctx, ref, capture, "deposit:d1:capture"))
	require.NoError(t, stub.CaptureHold(ctx, ref, capture, "deposit:d1:capture"))

	hold, err = stub.LookupHold(ctx, "deposit:d1")
	require.NoError(t, err)
	assert.Equal(t, gateways.HoldStateCaptured, hold.State)
	assert.Equal(t, int64(5000), hold.CapturedCents)

	err = stub.ReleaseHold(ctx, ref, "deposit:d1:release")
	assert.ErrorIs(t, err, gateways.ErrProcessorDeclined)

	_, err = stub.LookupHold(ctx, "deposit:unknown")
	assert.ErrorIs(t, err, gateways.ErrHoldNotFound)
}

func TestStubProcessor_DeclineAndFailure(t *testing.T) {
	ctx := context.Background()
	stub := NewStubProcessor()
	stub.DeclineAmountCents = 666

	_, err := stub.CreateCharge(ctx, domain.MustMoney(666, "USD"), nil, "booking:b1")
	assert.ErrorIs(t, err, gateways.ErrProcessorDeclined)

	stub.FailWith = gateways.ErrProcessorUnavailable
	_, err = stub.Transfer(ctx, "acct_1", domain.MustMoney(100, "USD"), "payout:b1")
	assert.ErrorIs(t, err, gateways.ErrProcessorUnavailable)
	assert.Equal(t, 1, stub.Calls("Transfer"))
}
