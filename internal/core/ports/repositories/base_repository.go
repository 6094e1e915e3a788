package repositories

import "context"

// TransactionManager runs a function inside a database transaction.
// The transaction travels in the context, so repository calls made with the
// context passed to fn join it. Nested calls reuse the outer transaction.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
