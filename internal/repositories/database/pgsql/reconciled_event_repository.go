package pgsql

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	"github.com/SscSPs/booking_settlement/internal/models"
	"github.com/SscSPs/booking_settlement/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxReconciledEventRepository struct {
	BaseRepository
}

func newPgxReconciledEventRepository(base BaseRepository) portsrepo.ReconciledEventRepository {
	return &PgxReconciledEventRepository{BaseRepository: base}
}

var _ portsrepo.ReconciledEventRepository = (*PgxReconciledEventRepository)(nil)

func (r *PgxReconciledEventRepository) FindReconciledEvent(ctx context.Context, eventID string) (*domain.ReconciledEvent, error) {
	query := `
		SELECT event_id, event_type, outcome, detail, processed_at
		FROM reconciled_events
		WHERE event_id = $1;
	`
	rows, err := r.db(ctx).Query(ctx, query, eventID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query reconciled event "+eventID, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.ReconciledEvent])
	if err != nil {
		return nil, notFoundOr(err, "reconciled event "+eventID)
	}
	event := mapping.ToDomainReconciledEvent(m)
	return &event, nil
}

// InsertReconciledEvent claims the event id. The primary key makes concurrent
// deliveries of the same event race on this insert, and exactly one wins.
func (r *PgxReconciledEventRepository) InsertReconciledEvent(ctx context.Context, event domain.ReconciledEvent) (bool, error) {
	query := `
		INSERT INTO reconciled_events (event_id, event_type, outcome, detail, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING;
	`
	result, err := r.db(ctx).Exec(ctx, query, event.EventID, event.EventType, event.Outcome, event.Detail, event.ProcessedAt)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to record reconciled event "+event.EventID, err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *PgxReconciledEventRepository) UpdateReconciledEventOutcome(ctx context.Context, eventID string, outcome domain.ReconciliationOutcome, detail string) error {
	query := `UPDATE reconciled_events SET outcome = $1, detail = $2 WHERE event_id = $3;`
	result, err := r.db(ctx).Exec(ctx, query, outcome, detail, eventID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update reconciled event "+eventID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("reconciled event " + eventID + " not found")
	}
	return nil
}
