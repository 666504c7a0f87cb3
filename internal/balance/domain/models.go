package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DailyEarning accumulates one user's verified payouts for one daily
// bucket. ExpiresAt doubles as the bucket key: all credits landing
// before that instant share a row.
type DailyEarning struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:idx_daily_user_bucket" json:"user_id"`
	Amount    float64      `gorm:"not null;default:0" json:"amount"`
	ExpiresAt time.Time    `gorm:"not null;uniqueIndex:idx_daily_user_bucket;index" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (DailyEarning) TableName() string { return "daily_earnings" }

// BucketExpiry returns the daily bucket boundary for an instant: local
// midnight in America/Sao_Paulo (UTC-3), expressed as 03:00 UTC of the
// following day.
func BucketExpiry(at time.Time) time.Time {
	local := at.UTC().Add(-3 * time.Hour)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 3, 0, 0, 0, time.UTC)
}

// BucketDate is the calendar day a bucket accumulates for, in
// America/Sao_Paulo.
func BucketDate(at time.Time) string {
	return at.UTC().Add(-3 * time.Hour).Format("2006-01-02")
}

type Summary struct {
	Available float64 `json:"available"`
	Pending   float64 `json:"pending"`
}
