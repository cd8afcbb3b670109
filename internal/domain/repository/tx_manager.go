package repository

import "context"

// TxManager runs a unit of work atomically. Repository calls made with the
// ctx passed to fn join the same transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
