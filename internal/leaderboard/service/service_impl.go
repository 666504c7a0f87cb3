package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	"github.com/ganhesocial/ganhesocial/internal/leaderboard/domain"
)

const DefaultLimit = 20

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Redis    *redis.Client `optional:"true"`
	Earnings balancedomain.Repository
}

type serviceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	redis    *redis.Client
	earnings balancedomain.Repository
}

func Provide(p Params) domain.Service {
	return &serviceImpl{
		db:       p.DB,
		log:      p.Log.Named("leaderboard.service"),
		redis:    p.Redis,
		earnings: p.Earnings,
	}
}

func (s *serviceImpl) Daily(ctx context.Context, callerID snowflake.ID, at time.Time, limit int) ([]domain.RankEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked, err := s.fromRedis(ctx, at, limit)
	if err != nil || ranked == nil {
		if err != nil {
			s.log.Warn("ranking mirror read, falling back to database", zap.Error(err))
		}
		ranked, err = s.fromDatabase(ctx, at, limit)
		if err != nil {
			return nil, err
		}
	}

	names, err := s.displayNames(ctx, ranked)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.RankEntry, 0, len(ranked))
	for i, row := range ranked {
		isCaller := row.userID == callerID
		name := names[row.userID]
		if !isCaller {
			name = domain.MaskName(name)
		}
		entries = append(entries, domain.RankEntry{
			Position: i + 1,
			Name:     name,
			Amount:   row.amount,
			IsCaller: isCaller,
		})
	}
	return entries, nil
}

type rankedRow struct {
	userID snowflake.ID
	amount float64
}

// fromRedis serves the ranking out of the mirror when one is wired.
// A nil slice with nil error means the mirror has nothing for today
// and the database should decide.
func (s *serviceImpl) fromRedis(ctx context.Context, at time.Time, limit int) ([]rankedRow, error) {
	if s.redis == nil {
		return nil, nil
	}
	key := "ranking:" + balancedomain.BucketDate(at)
	members, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	rows := make([]rankedRow, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		rows = append(rows, rankedRow{userID: snowflake.ID(id), amount: m.Score})
	}
	return rows, nil
}

func (s *serviceImpl) fromDatabase(ctx context.Context, at time.Time, limit int) ([]rankedRow, error) {
	earnings, err := s.earnings.TopForBucket(ctx, s.db, balancedomain.BucketExpiry(at), limit)
	if err != nil {
		return nil, err
	}
	rows := make([]rankedRow, 0, len(earnings))
	for _, e := range earnings {
		rows = append(rows, rankedRow{userID: e.UserID, amount: e.Amount})
	}
	return rows, nil
}

func (s *serviceImpl) displayNames(ctx context.Context, rows []rankedRow) (map[snowflake.ID]string, error) {
	if len(rows) == 0 {
		return map[snowflake.ID]string{}, nil
	}
	ids := make([]snowflake.ID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.userID)
	}
	var users []struct {
		ID    snowflake.ID
		Name  string
		Email string
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT id, name, email FROM users WHERE id IN ?`, ids).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(users))
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = u.Email
		}
		names[u.ID] = name
	}
	return names, nil
}
