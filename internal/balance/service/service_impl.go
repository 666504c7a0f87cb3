package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	"github.com/ganhesocial/ganhesocial/internal/balance/domain"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Redis   *redis.Client `optional:"true"`
	Users   userdomain.Repository
	Actions actiondomain.Repository
	Repo    domain.Repository
}

type serviceImpl struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	redis   *redis.Client
	users   userdomain.Repository
	actions actiondomain.Repository
	repo    domain.Repository
}

func Provide(p Params) domain.Service {
	return &serviceImpl{
		db:      p.DB,
		log:     p.Log.Named("balance.service"),
		genID:   p.GenID,
		redis:   p.Redis,
		users:   p.Users,
		actions: p.Actions,
		repo:    p.Repo,
	}
}

func (s *serviceImpl) Credit(ctx context.Context, userID snowflake.ID, amount float64, at time.Time) error {
	if amount <= 0 {
		return nil
	}
	expiresAt := domain.BucketExpiry(at)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.AddBalance(ctx, tx, userID, amount); err != nil {
			return err
		}
		return s.repo.Upsert(ctx, tx, &domain.DailyEarning{
			ID:        s.genID.Generate(),
			UserID:    userID,
			Amount:    amount,
			ExpiresAt: expiresAt,
			CreatedAt: at,
			UpdatedAt: at,
		})
	})
	if err != nil {
		return err
	}

	s.mirrorRanking(ctx, userID, amount, at, expiresAt)
	return nil
}

// mirrorRanking keeps the redis leaderboard in step with the daily
// aggregate. Best effort: the database row is the source of truth.
func (s *serviceImpl) mirrorRanking(ctx context.Context, userID snowflake.ID, amount float64, at, expiresAt time.Time) {
	if s.redis == nil {
		return
	}
	key := "ranking:" + domain.BucketDate(at)
	pipe := s.redis.Pipeline()
	pipe.ZIncrBy(ctx, key, amount, userID.String())
	pipe.ExpireAt(ctx, key, expiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("ranking mirror update", zap.String("key", key), zap.Error(err))
	}
}

func (s *serviceImpl) Summarize(ctx context.Context, userID snowflake.ID) (*domain.Summary, error) {
	u, err := s.users.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.actions.PendingValueSum(ctx, s.db, int64(userID))
	if err != nil {
		return nil, err
	}
	return &domain.Summary{
		Available: u.Balance,
		Pending:   pending,
	}, nil
}

func (s *serviceImpl) DailyTotal(ctx context.Context, userID snowflake.ID, at time.Time) (float64, error) {
	bucket, err := s.repo.FindBucket(ctx, s.db, userID, domain.BucketExpiry(at))
	if err != nil {
		return 0, err
	}
	if bucket == nil {
		return 0, nil
	}
	return bucket.Amount, nil
}

func (s *serviceImpl) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.db, now)
}
