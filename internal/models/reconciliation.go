package models

import "time"

// ReconciledEvent is a row of the reconciled_events table.
type ReconciledEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	Outcome     string    `db:"outcome"`
	Detail      string    `db:"detail"`
	ProcessedAt time.Time `db:"processed_at"`
}
