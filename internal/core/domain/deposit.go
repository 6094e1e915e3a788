package domain

import "time"

// DepositStatus is the status of a security deposit hold.
type DepositStatus string

const (
	DepositNone        DepositStatus = "NONE"
	DepositHoldCreated DepositStatus = "HOLD_CREATED"
	DepositAuthorized  DepositStatus = "AUTHORIZED"
	DepositCaptured    DepositStatus = "CAPTURED"
	DepositReleased    DepositStatus = "RELEASED"
	DepositFailed      DepositStatus = "FAILED"
)

var depositEdges = map[DepositStatus][]DepositStatus{
	DepositNone:        {DepositHoldCreated},
	DepositHoldCreated: {DepositAuthorized, DepositFailed, DepositReleased},
	DepositAuthorized:  {DepositCaptured, DepositReleased},
}

// CanTransitionTo reports whether the deposit state machine allows s -> next.
func (s DepositStatus) CanTransitionTo(next DepositStatus) bool {
	for _, allowed := range depositEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s DepositStatus) IsTerminal() bool {
	return s == DepositCaptured || s == DepositReleased
}

// PendingAction marks a deposit whose capture or release call to the
// processor is in flight or ended with an unknown outcome.
type PendingAction string

const (
	PendingNone    PendingAction = ""
	PendingCapture PendingAction = "CAPTURE"
	PendingRelease PendingAction = "RELEASE"
)

// SecurityDeposit is a refundable hold attached to one booking.
type SecurityDeposit struct {
	DepositID          string        `json:"depositID"`
	BookingID          string        `json:"bookingID"`
	AmountCents        int64         `json:"amountCents"`
	Currency           Currency      `json:"currency"`
	Status             DepositStatus `json:"status"`
	CapturedCents      *int64        `json:"capturedCents,omitempty"` // Set only when CAPTURED
	HoldReference      string        `json:"holdReference"`
	PendingAction      PendingAction `json:"pendingAction,omitempty"`
	PendingAmountCents int64         `json:"pendingAmountCents,omitempty"`
	FailureReason      string        `json:"failureReason,omitempty"`
	DiscardedAt        *time.Time    `json:"discardedAt,omitempty"`
	AuditFields
}

// Amount returns the authorized amount as Money.
func (d SecurityDeposit) Amount() Money {
	return Money{cents: d.AmountCents, currency: d.Currency}
}

// HasPendingAction reports whether a capture or release claim is outstanding.
func (d SecurityDeposit) HasPendingAction() bool {
	return d.PendingAction != PendingNone
}

// IdempotencyKey is the key used for processor calls on this deposit.
func (d SecurityDeposit) IdempotencyKey(action string) string {
	if action == "" {
		return "deposit:" + d.DepositID
	}
	return "deposit:" + d.DepositID + ":" + action
}

// DepositPolicy is the listing-level deposit configuration, owned by the listing service.
type DepositPolicy struct {
	ListingID   string   `json:"listingID"`
	Enabled     bool     `json:"enabled"`
	AmountCents int64    `json:"amountCents"`
	Currency    Currency `json:"currency"`
}
