package domain

import (
	"context"

	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type CreateOrderRequest struct {
	// ExternalID is the broker's order id. When it parses as a number
	// it becomes the order's canonical id and creation is idempotent
	// on it; otherwise a fresh id is generated.
	ExternalID string

	Network    string
	ActionType string
	Name       string
	Link       string
	Quantity   int
	Value      *float64
}

type Service interface {
	Create(context.Context, CreateOrderRequest) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, page pagination.Request) ([]Order, pagination.PageInfo, error)
}
