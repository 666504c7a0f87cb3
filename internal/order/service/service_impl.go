package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/order/domain"
	"github.com/ganhesocial/ganhesocial/pkg/db"
	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	network, ok := domain.ParseNetwork(req.Network)
	if !ok {
		return domain.Order{}, domain.ErrInvalidNetwork
	}

	actionType, ok := domain.ParseActionType(req.ActionType)
	if !ok || actionType == domain.ActionFollowLike {
		return domain.Order{}, domain.ErrInvalidActionType
	}

	if req.Quantity <= 0 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}

	link := strings.TrimSpace(req.Link)
	if link == "" {
		return domain.Order{}, domain.ErrInvalidLink
	}

	id := s.genID.Generate()
	if external := strings.TrimSpace(req.ExternalID); external != "" {
		if n, err := strconv.ParseInt(external, 10, 64); err == nil && n > 0 {
			existing, err := s.repo.FindByID(ctx, s.db, external)
			if err != nil {
				return domain.Order{}, err
			}
			if existing != nil {
				return *existing, nil
			}
			id = snowflake.ID(n)
		}
	}

	order := domain.Order{
		ID:         id,
		Network:    network,
		ActionType: actionType,
		Name:       strings.TrimSpace(req.Name),
		Link:       link,
		Quantity:   req.Quantity,
		Value:      req.Value,
		Status:     domain.OrderPending,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		// Two concurrent submissions of the same broker id can both miss
		// the lookup above; the loser lands here and takes the stored row.
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByID(ctx, s.db, order.ID.String())
			if findErr == nil && existing != nil {
				return *existing, nil
			}
		}
		return domain.Order{}, err
	}

	return order, nil
}

func (s *Service) List(ctx context.Context, page pagination.Request) ([]domain.Order, pagination.PageInfo, error) {
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	limit := page.Limit()
	orders, err := s.repo.List(ctx, s.db, cursor, limit)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	orders, info := pagination.Trim(orders, limit, func(o domain.Order) pagination.Cursor {
		return pagination.Cursor{ID: o.ID.String(), CreatedAt: o.CreatedAt}
	})
	return orders, info, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, strings.TrimSpace(id))
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}
