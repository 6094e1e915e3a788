package repositories

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// ReconciledEventRepository is the single source of truth for which external
// events have been applied.
type ReconciledEventRepository interface {
	// FindReconciledEvent retrieves a processed event. Returns apperrors.ErrNotFound if unseen.
	FindReconciledEvent(ctx context.Context, eventID string) (*domain.ReconciledEvent, error)

	// InsertReconciledEvent atomically inserts the record unless the event ID exists.
	// inserted is false when another delivery already claimed the ID.
	InsertReconciledEvent(ctx context.Context, event domain.ReconciledEvent) (inserted bool, err error)

	// UpdateReconciledEventOutcome sets the final outcome of a claimed event.
	UpdateReconciledEventOutcome(ctx context.Context, eventID string, outcome domain.ReconciliationOutcome, detail string) error
}
