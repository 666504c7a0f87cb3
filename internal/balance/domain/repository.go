package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert adds amount to the (user, bucket) aggregate, creating the
	// row when the user has no credit in this bucket yet.
	Upsert(ctx context.Context, db *gorm.DB, earning *DailyEarning) error

	FindBucket(ctx context.Context, db *gorm.DB, userID snowflake.ID, expiresAt time.Time) (*DailyEarning, error)

	// TopForBucket returns the bucket's earners ordered by amount
	// descending, capped at limit.
	TopForBucket(ctx context.Context, db *gorm.DB, expiresAt time.Time, limit int) ([]DailyEarning, error)

	DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
