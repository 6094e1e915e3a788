package domain

import "time"

// EventType is the processor event type as delivered on the webhook feed.
type EventType string

const (
	EventPaymentSucceeded     EventType = "payment.succeeded"
	EventPaymentFailed        EventType = "payment.failed"
	EventDepositHoldConfirmed EventType = "deposit.hold_confirmed"
	EventDepositHoldFailed    EventType = "deposit.hold_failed"
	EventDepositCaptured      EventType = "deposit.captured"
	EventDepositReleased      EventType = "deposit.released"
	EventTransferCompleted    EventType = "transfer.completed"
	EventTransferFailed       EventType = "transfer.failed"
)

// ReconciliationOutcome is the stored result of handling an external event.
type ReconciliationOutcome string

const (
	OutcomeApplied ReconciliationOutcome = "APPLIED"
	OutcomeIgnored ReconciliationOutcome = "IGNORED" // Valid event, nothing to change
	OutcomeAnomaly ReconciliationOutcome = "ANOMALY" // Rejected because it would break the state machine
	OutcomeFailed  ReconciliationOutcome = "FAILED"
)

// ReconciledEvent records that an external event id has been handled.
type ReconciledEvent struct {
	EventID     string                `json:"eventID"`
	EventType   EventType             `json:"eventType"`
	Outcome     ReconciliationOutcome `json:"outcome"`
	Detail      string                `json:"detail,omitempty"`
	ProcessedAt time.Time             `json:"processedAt"`
}

// ProcessorEvent is the closed set of typed processor events.
type ProcessorEvent interface {
	EventID() string
	Type() EventType
	processorEvent()
}

// EventMeta carries the fields shared by every processor event.
type EventMeta struct {
	ID         string
	OccurredAt time.Time
}

func (m EventMeta) EventID() string { return m.ID }
func (EventMeta) processorEvent() {}

// PaymentSucceeded reports that the booking charge was collected.
type PaymentSucceeded struct {
	EventMeta
	BookingID        string
	PaymentReference string
}

func (PaymentSucceeded) Type() EventType { return EventPaymentSucceeded }

// PaymentFailed reports that the booking charge was declined.
type PaymentFailed struct {
	EventMeta
	BookingID string
	Reason    string
}

func (PaymentFailed) Type() EventType { return EventPaymentFailed }

// DepositHoldConfirmed reports that a deposit hold is live at the processor.
type DepositHoldConfirmed struct {
	EventMeta
	DepositID     string
	HoldReference string
}

func (DepositHoldConfirmed) Type() EventType { return EventDepositHoldConfirmed }

// DepositHoldFailed reports that a deposit hold could not be placed.
type DepositHoldFailed struct {
	EventMeta
	DepositID string
	Reason    string
}

func (DepositHoldFailed) Type() EventType { return EventDepositHoldFailed }

// DepositCapturedEvent reports a completed capture on a hold.
type DepositCapturedEvent struct {
	EventMeta
	DepositID     string
	HoldReference string
	AmountCents   int64
}

func (DepositCapturedEvent) Type() EventType { return EventDepositCaptured }

// DepositReleasedEvent reports that a hold was released or expired at the processor.
type DepositReleasedEvent struct {
	EventMeta
	DepositID     string
	HoldReference string
}

func (DepositReleasedEvent) Type() EventType { return EventDepositReleased }

// TransferCompleted reports a host payout transfer landed.
type TransferCompleted struct {
	EventMeta
	TransferReference string
}

func (TransferCompleted) Type() EventType { return EventTransferCompleted }

// TransferFailed reports a host payout transfer was returned.
type TransferFailed struct {
	EventMeta
	TransferReference string
	Reason            string
}

func (TransferFailed) Type() EventType { return EventTransferFailed }
