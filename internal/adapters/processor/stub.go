package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	"github.com/google/uuid"
)

// StubProcessor is an in-memory processor for development and tests.
// Holds are authorized immediately. Repeating a call with the same
// idempotency key returns the first result.
type StubProcessor struct {
	mu        sync.Mutex
	charges   map[string]string
	holds     map[string]*gateways.Hold // keyed by idempotency key
	holdKeys  map[string]string         // hold reference -> idempotency key
	transfers map[string]string
	calls     map[string]int

	// DeclineAmountCents makes any call for exactly this amount fail with a decline.
	DeclineAmountCents int64
	// FailWith, when set, is returned by every call instead of the normal result.
	FailWith error
}

var _ gateways.PaymentProcessor = (*StubProcessor)(nil)

func NewStubProcessor() *StubProcessor {
	return &StubProcessor{
		charges:   make(map[string]string),
		holds:     make(map[string]*gateways.Hold),
		holdKeys:  make(map[string]string),
		transfers: make(map[string]string),
		calls:     make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked.
func (s *StubProcessor) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *StubProcessor) begin(op string, amount *domain.Money) error {
	s.calls[op]++
	if s.FailWith != nil {
		return s.FailWith
	}
	if amount != nil && s.DeclineAmountCents != 0 && amount.Cents() == s.DeclineAmountCents {
		return fmt.Errorf("%w: stub declines %s", gateways.ErrProcessorDeclined, amount)
	}
	return nil
}

func (s *StubProcessor) CreateCharge(_ context.Context, amount domain.Money, _ map[string]string, idempotencyKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("CreateCharge", &amount); err != nil {
		return "", err
	}
	if ref, ok := s.charges[idempotencyKey]; ok {
		return ref, nil
	}
	ref := "ch_stub_" + uuid.NewString()
	s.charges[idempotencyKey] = ref
	return ref, nil
}

func (s *StubProcessor) CreateHold(_ context.Context, amount domain.Money, _ map[string]string, idempotencyKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("CreateHold", &amount); err != nil {
		return "", err
	}
	if hold, ok := s.holds[idempotencyKey]; ok {
		return hold.Reference, nil
	}
	hold := &gateways.Hold{Reference: "hold_stub_" + uuid.NewString(), State: gateways.HoldStateAuthorized}
	s.holds[idempotencyKey] = hold
	s.holdKeys[hold.Reference] = idempotencyKey
	return hold.Reference, nil
}

func (s *StubProcessor) CaptureHold(_ context.Context, holdRef string, amount domain.Money, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("CaptureHold", &amount); err != nil {
		return err
	}
	hold, err := s.holdByRef(holdRef)
	if err != nil {
		return err
	}
	switch hold.State {
	case gateways.HoldStateCaptured:
		return nil
	case gateways.HoldStateAuthorized:
		hold.State = gateways.HoldStateCaptured
		hold.CapturedCents = amount.Cents()
		return nil
	default:
		return fmt.Errorf("%w: hold %s is %s", gateways.ErrProcessorDeclined, holdRef, hold.State)
	}
}

func (s *StubProcessor) ReleaseHold(_ context.Context, holdRef string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("ReleaseHold", nil); err != nil {
		return err
	}
	hold, err := s.holdByRef(holdRef)
	if err != nil {
		return err
	}
	switch hold.State {
	case gateways.HoldStateReleased:
		return nil
	case gateways.HoldStateAuthorized, gateways.HoldStatePending:
		hold.State = gateways.HoldStateReleased
		return nil
	default:
		return fmt.Errorf("%w: hold %s is %s", gateways.ErrProcessorDeclined, holdRef, hold.State)
	}
}

func (s *StubProcessor) LookupHold(_ context.Context, idempotencyKey string) (*gateways.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("LookupHold", nil); err != nil {
		return nil, err
	}
	hold, ok := s.holds[idempotencyKey]
	if !ok {
		return nil, gateways.ErrHoldNotFound
	}
	cp := *hold
	return &cp, nil
}

func (s *StubProcessor) Transfer(_ context.Context, _ string, amount domain.Money, idempotencyKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("Transfer", &amount); err != nil {
		return "", err
	}
	if ref, ok := s.transfers[idempotencyKey]; ok {
		return ref, nil
	}
	ref := "tr_stub_" + uuid.NewString()
	s.transfers[idempotencyKey] = ref
	return ref, nil
}

func (s *StubProcessor) holdByRef(holdRef string) (*gateways.Hold, error) {
	key, ok := s.holdKeys[holdRef]
	if !ok {
		return nil, fmt.Errorf("%w: unknown hold %s", gateways.ErrProcessorDeclined, holdRef)
	}
	return s.holds[key], nil
}
