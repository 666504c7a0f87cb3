package repository

import (
	"context"
	"strconv"

	"github.com/ganhesocial/ganhesocial/internal/order/domain"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ?`, id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]domain.Order, error) {
	q := db.WithContext(ctx).Model(&domain.Order{})
	if cursor != nil {
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, pagination.ErrInvalidToken
		}
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, id,
		)
	}

	var orders []domain.Order
	err := q.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListCandidates(ctx context.Context, db *gorm.DB, network domain.Network, types []domain.ActionType) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("network = ?", network).
		Where("action_type IN ?", types).
		Where("quantity > 0").
		Where("status IN ?", []domain.OrderStatus{domain.OrderPending, domain.OrderReserved}).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ? WHERE id = ? AND status <> ?`,
		domain.OrderCompleted, id, domain.OrderCompleted,
	).Error
}
