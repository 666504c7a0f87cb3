package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
)

// Entry is one account's claim against one order. Order ids are always
// stored in their canonical decimal-string form, never compared across
// representations.
type Entry struct {
	ID          snowflake.ID           `gorm:"primaryKey" json:"id"`
	ActionID    string                 `gorm:"not null;uniqueIndex" json:"action_id"`
	UserID      snowflake.ID           `gorm:"not null;index" json:"user_id"`
	AccountName string                 `gorm:"not null;index" json:"account_name"`
	OrderID     string                 `gorm:"not null;index" json:"order_id"`
	URL         string                 `gorm:"not null" json:"url"`
	Network     orderdomain.Network    `gorm:"not null;index" json:"network"`
	ActionType  orderdomain.ActionType `gorm:"not null;index" json:"action_type"`
	Value       float64                `gorm:"not null" json:"value"`
	Status      Status                 `gorm:"not null;default:pending;index" json:"status"`

	// Lease fields. A set Processing flag younger than the lease
	// timeout means some worker cycle owns this entry.
	Processing   bool       `gorm:"not null;default:false" json:"-"`
	ProcessingAt *time.Time `json:"-"`

	VerifyAttempts int        `gorm:"not null;default:0" json:"verify_attempts"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"created_at"`
}

func (Entry) TableName() string { return "action_entries" }

var (
	ErrNotFound = errors.New("action_not_found")
)
