package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Network is the social network a campaign order targets.
type Network string

const (
	NetworkInstagram Network = "instagram"
	NetworkTikTok    Network = "tiktok"
)

// ParseNetwork normalizes free-form network spellings ("Instagram",
// "TikTok", "tiktok") to a canonical value.
func ParseNetwork(raw string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "instagram":
		return NetworkInstagram, true
	case "tiktok":
		return NetworkTikTok, true
	default:
		return "", false
	}
}

// ActionType is what the campaign pays for. FollowLike is a request-time
// filter meaning "either"; stored orders carry follow or like only.
type ActionType string

const (
	ActionFollow     ActionType = "follow"
	ActionLike       ActionType = "like"
	ActionFollowLike ActionType = "follow_like"
)

func ParseActionType(raw string) (ActionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "follow", "seguir":
		return ActionFollow, true
	case "like", "curtir":
		return ActionLike, true
	case "follow_like", "seguir_curtir":
		return ActionFollowLike, true
	default:
		return "", false
	}
}

// Expand resolves the combined type into the stored types it matches.
func (t ActionType) Expand() []ActionType {
	if t == ActionFollowLike {
		return []ActionType{ActionFollow, ActionLike}
	}
	return []ActionType{t}
}

// DefaultValue is the payout used when an order carries no explicit
// per-action value, rounded to 3 decimals.
func (t ActionType) DefaultValue() float64 {
	switch t {
	case ActionLike:
		return 0.001
	default:
		return 0.006
	}
}

// RoundValue keeps payout values at 3 decimal places.
func RoundValue(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderReserved  OrderStatus = "reserved"
	OrderCompleted OrderStatus = "completed"
)

// Order is one paid campaign unit requesting Quantity actions on Link.
type Order struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Network    Network           `gorm:"not null;index" json:"network"`
	ActionType ActionType        `gorm:"not null;index" json:"action_type"`
	Name       string            `json:"name,omitempty"`
	Link       string            `gorm:"not null" json:"link"`
	Quantity   int               `gorm:"not null" json:"quantity"`
	Value      *float64          `json:"value,omitempty"`
	Status     OrderStatus       `gorm:"not null;default:pending;index" json:"status"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// PayoutValue returns the explicit per-action value when set, else the
// type default.
func (o Order) PayoutValue() float64 {
	if o.Value != nil && *o.Value > 0 {
		return RoundValue(*o.Value)
	}
	return o.ActionType.DefaultValue()
}

var (
	ErrInvalidNetwork    = errors.New("invalid_network")
	ErrInvalidActionType = errors.New("invalid_action_type")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidLink       = errors.New("invalid_link")
	ErrNotFound          = errors.New("order_not_found")
)
