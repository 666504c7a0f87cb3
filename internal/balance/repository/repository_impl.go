package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ganhesocial/ganhesocial/internal/balance/domain"
)

type repositoryImpl struct{}

func Provide() domain.Repository { return &repositoryImpl{} }

func (r *repositoryImpl) Upsert(ctx context.Context, db *gorm.DB, earning *domain.DailyEarning) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "expires_at"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount":     gorm.Expr("daily_earnings.amount + ?", earning.Amount),
				"updated_at": earning.UpdatedAt,
			}),
		}).
		Create(earning).Error
}

func (r *repositoryImpl) FindBucket(ctx context.Context, db *gorm.DB, userID snowflake.ID, expiresAt time.Time) (*domain.DailyEarning, error) {
	var e domain.DailyEarning
	err := db.WithContext(ctx).
		Where("user_id = ? AND expires_at = ?", userID, expiresAt).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repositoryImpl) TopForBucket(ctx context.Context, db *gorm.DB, expiresAt time.Time, limit int) ([]domain.DailyEarning, error) {
	var earnings []domain.DailyEarning
	err := db.WithContext(ctx).
		Where("expires_at = ?", expiresAt).
		Order("amount desc, user_id asc").
		Limit(limit).
		Find(&earnings).Error
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

func (r *repositoryImpl) DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.DailyEarning{})
	return res.RowsAffected, res.Error
}
