package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/internal/user/domain"
)

type repositoryImpl struct{}

func Provide() domain.Repository { return &repositoryImpl{} }

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("token = ?", token).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) ListAccounts(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Account, error) {
	var accounts []domain.Account
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.AccountActive).
		Order("created_at asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repositoryImpl) FindAccount(ctx context.Context, db *gorm.DB, userID snowflake.ID, name string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotLinked
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repositoryImpl) InsertAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	return db.WithContext(ctx).Create(a).Error
}

func (r *repositoryImpl) AddBalance(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount float64) error {
	return db.WithContext(ctx).
		Exec(`UPDATE users SET balance = balance + ? WHERE id = ?`, amount, userID).Error
}
