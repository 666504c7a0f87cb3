package domain

import (
	"context"

	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Order, error)
	// List pages through all orders newest first. A nil cursor starts at
	// the top; limit+1 rows are fetched so the caller can detect more.
	List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]Order, error)
	// ListCandidates returns orders still accepting work for the given
	// network and stored action types, newest first.
	ListCandidates(ctx context.Context, db *gorm.DB, network Network, types []ActionType) ([]Order, error)
	MarkCompleted(ctx context.Context, db *gorm.DB, id string) error
}
