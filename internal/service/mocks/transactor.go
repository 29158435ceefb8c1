package mocks

import "context"

// Transactor runs the callback inline with no rollback.
type Transactor struct{}

func (Transactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
