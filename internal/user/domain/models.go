package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
)

type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Account is one social-network identity linked to a user.
type Account struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID        `gorm:"not null;index" json:"user_id"`
	Name          string              `gorm:"not null;index" json:"name"`
	Network       orderdomain.Network `gorm:"not null" json:"network"`
	Status        AccountStatus       `gorm:"not null;default:active" json:"status"`
	DeactivatedAt *time.Time          `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
}

func (Account) TableName() string { return "accounts" }

type User struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Email         string       `gorm:"not null;uniqueIndex" json:"email"`
	Name          string       `json:"name,omitempty"`
	Token         string       `gorm:"not null;uniqueIndex" json:"-"`
	Balance       float64      `gorm:"not null;default:0" json:"balance"`
	PixKey        *string      `json:"pix_key,omitempty"`
	PixKeyType    *string      `json:"pix_key_type,omitempty"`
	AffiliateCode *string      `gorm:"index" json:"affiliate_code,omitempty"`
	ReferredBy    *string      `json:"referred_by,omitempty"`
	Status        string       `gorm:"not null;default:active" json:"status"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`

	Accounts []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
}

func (User) TableName() string { return "users" }

var (
	ErrInvalidToken      = errors.New("invalid_token")
	ErrAccountNotLinked  = errors.New("account_not_linked")
	ErrAccountAmbiguous  = errors.New("account_ambiguous")
	ErrNotFound          = errors.New("user_not_found")
)
