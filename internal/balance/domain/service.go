package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Credit adds a verified payout to the user's balance and the daily
	// aggregate in one transaction. Calling it twice for the same entry
	// is prevented upstream by the one-way pending transition.
	Credit(ctx context.Context, userID snowflake.ID, amount float64, at time.Time) error

	// Summarize returns the user's withdrawable balance plus the value
	// still locked in unverified entries.
	Summarize(ctx context.Context, userID snowflake.ID) (*Summary, error)

	// DailyTotal returns the user's accumulated amount for the bucket
	// containing at, zero when no credit landed yet.
	DailyTotal(ctx context.Context, userID snowflake.ID, at time.Time) (float64, error)

	// PurgeExpired drops daily aggregates whose bucket boundary passed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
