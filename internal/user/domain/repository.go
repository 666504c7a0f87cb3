package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, u *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*User, error)
	ListAccounts(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Account, error)
	FindAccount(ctx context.Context, db *gorm.DB, userID snowflake.ID, name string) (*Account, error)
	InsertAccount(ctx context.Context, db *gorm.DB, a *Account) error
	AddBalance(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount float64) error
}
