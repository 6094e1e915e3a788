package services

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// ReconciliationSvc applies processor events at most once per event ID.
type ReconciliationSvc interface {
	// Process returns the stored record when the event was already handled.
	// An error means nothing was recorded and the delivery should be retried.
	Process(ctx context.Context, event domain.ProcessorEvent) (domain.ReconciledEvent, error)
}
