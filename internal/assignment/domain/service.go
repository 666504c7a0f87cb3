package domain

import "context"

type Service interface {
	// FindNext walks open orders newest-first and atomically reserves the
	// first one the account is eligible for.
	FindNext(ctx context.Context, req FindNextRequest) (*FindNextResult, error)

	// Skip records that the account declined an order so it is never
	// offered to that account again. Repeating a skip is a no-op.
	Skip(ctx context.Context, req SkipRequest) (*SkipResult, error)
}
