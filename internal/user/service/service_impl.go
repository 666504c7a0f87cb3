package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/internal/user/domain"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type serviceImpl struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func Provide(p Params) domain.Service {
	return &serviceImpl{
		db:   p.DB,
		log:  p.Log.Named("user.service"),
		repo: p.Repo,
	}
}

func (s *serviceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	u, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *serviceImpl) ResolveAccount(ctx context.Context, u *domain.User, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		return s.repo.FindAccount(ctx, s.db, u.ID, name)
	}
	accounts, err := s.repo.ListAccounts(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		return nil, domain.ErrAccountAmbiguous
	}
	return &accounts[0], nil
}

func (s *serviceImpl) GetByID(ctx context.Context, id string) (*domain.User, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, s.db, snowflake.ID(n))
}
