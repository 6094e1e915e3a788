package services

import (
	"context"
	"errors"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
)

const conflictAttempts = 3

// retryOnConflict re-runs fn while it loses optimistic version checks.
// fn must re-read the state it changes.
func retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for range conflictAttempts {
		err = fn()
		if !errors.Is(err, apperrors.ErrConcurrentModification) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
