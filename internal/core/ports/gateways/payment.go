package gateways

import (
	"context"
	"errors"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

var (
	// ErrProcessorDeclined means the processor answered and refused the request.
	// Nothing moved.
	ErrProcessorDeclined = errors.New("processor declined the request")
	// ErrProcessorUnavailable means the outcome is unknown (timeout, transport error, 5xx).
	ErrProcessorUnavailable = errors.New("processor outcome unknown")
	// ErrHoldNotFound is returned by LookupHold when the processor has no hold for the key.
	ErrHoldNotFound = errors.New("processor has no hold for key")
)

// HoldState is the processor-side view of a hold.
type HoldState string

const (
	HoldStatePending    HoldState = "pending"
	HoldStateAuthorized HoldState = "authorized"
	HoldStateCaptured   HoldState = "captured"
	HoldStateReleased   HoldState = "released"
	HoldStateFailed     HoldState = "failed"
)

// Hold is the result of a hold lookup.
type Hold struct {
	Reference     string
	State         HoldState
	CapturedCents int64
	FailureReason string
}

// PaymentChargeGateway collects booking payments.
type PaymentChargeGateway interface {
	CreateCharge(ctx context.Context, amount domain.Money, metadata map[string]string, idempotencyKey string) (chargeRef string, err error)
}

// PaymentHoldGateway places and settles refundable holds.
type PaymentHoldGateway interface {
	CreateHold(ctx context.Context, amount domain.Money, metadata map[string]string, idempotencyKey string) (holdRef string, err error)
	CaptureHold(ctx context.Context, holdRef string, amount domain.Money, idempotencyKey string) error
	ReleaseHold(ctx context.Context, holdRef string, idempotencyKey string) error
	// LookupHold finds a hold by the idempotency key it was created with.
	LookupHold(ctx context.Context, idempotencyKey string) (*Hold, error)
}

// PaymentTransferGateway pushes funds to a host's external account.
type PaymentTransferGateway interface {
	Transfer(ctx context.Context, account string, amount domain.Money, idempotencyKey string) (transferRef string, err error)
}

// PaymentProcessor is the full processor capability.
type PaymentProcessor interface {
	PaymentChargeGateway
	PaymentHoldGateway
	PaymentTransferGateway
}
