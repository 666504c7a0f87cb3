package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	"github.com/ganhesocial/ganhesocial/internal/assignment/domain"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Users   userdomain.Service
	Orders  orderdomain.Repository
	Actions actiondomain.Repository
}

type serviceImpl struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	users   userdomain.Service
	orders  orderdomain.Repository
	actions actiondomain.Repository
}

func Provide(p Params) domain.Service {
	return &serviceImpl{
		db:      p.DB,
		log:     p.Log.Named("assignment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		users:   p.Users,
		orders:  p.Orders,
		actions: p.Actions,
	}
}

func (s *serviceImpl) FindNext(ctx context.Context, req domain.FindNextRequest) (*domain.FindNextResult, error) {
	user, err := s.users.Authenticate(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	account, err := s.users.ResolveAccount(ctx, user, req.AccountName)
	if err != nil {
		return nil, err
	}

	network := account.Network
	if raw := strings.TrimSpace(req.Network); raw != "" {
		n, ok := orderdomain.ParseNetwork(raw)
		if !ok {
			return nil, orderdomain.ErrInvalidNetwork
		}
		network = n
	}

	types, err := storedTypes(req.ActionTypes)
	if err != nil {
		return nil, err
	}

	candidates, err := s.orders.ListCandidates(ctx, s.db, network, types)
	if err != nil {
		return nil, err
	}

	// Statuses that make an order untouchable for this account: an open
	// or credited claim, or an earlier skip.
	excluded := append(actiondomain.LiveStatuses(), actiondomain.StatusSkipped)

	for _, order := range candidates {
		orderID := order.ID.String()

		validCount, err := s.actions.CountForOrder(ctx, s.db, orderID, []actiondomain.Status{actiondomain.StatusValid})
		if err != nil {
			return nil, err
		}
		if validCount >= int64(order.Quantity) {
			if err := s.orders.MarkCompleted(ctx, s.db, orderID); err != nil {
				s.log.Warn("mark order completed", zap.String("order_id", orderID), zap.Error(err))
			}
			continue
		}

		liveCount, err := s.actions.CountForOrder(ctx, s.db, orderID, actiondomain.LiveStatuses())
		if err != nil {
			return nil, err
		}
		if liveCount >= int64(order.Quantity) {
			continue
		}

		blocked, err := s.actions.ExistsForAccount(ctx, s.db, orderID, account.Name, excluded)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}

		value := order.PayoutValue()
		entry := &actiondomain.Entry{
			ID:          s.genID.Generate(),
			ActionID:    uuid.NewString(),
			UserID:      user.ID,
			AccountName: account.Name,
			OrderID:     orderID,
			URL:         order.Link,
			Network:     order.Network,
			ActionType:  order.ActionType,
			Value:       value,
			Status:      actiondomain.StatusPending,
			CreatedAt:   s.clock.Now(),
		}
		reserved, err := s.actions.Reserve(ctx, s.db, entry)
		if err != nil {
			return nil, err
		}
		if !reserved {
			// Lost the race to another request for this account.
			continue
		}

		return &domain.FindNextResult{
			Status:     domain.StatusFound,
			ActionID:   entry.ActionID,
			OrderID:    orderID,
			AccountID:  account.ID.String(),
			ActionType: string(order.ActionType),
			TargetName: targetHandle(order),
			URL:        order.Link,
			Quantity:   order.Quantity,
			Value:      fmt.Sprintf("%.3f", value),
		}, nil
	}

	return &domain.FindNextResult{Status: domain.StatusNotFound}, nil
}

func (s *serviceImpl) Skip(ctx context.Context, req domain.SkipRequest) (*domain.SkipResult, error) {
	user, err := s.users.Authenticate(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	account, err := s.users.ResolveAccount(ctx, user, req.AccountName)
	if err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, domain.ErrMissingOrderID
	}

	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}

	skipped, err := s.actions.ExistsForAccount(ctx, s.db, orderID, account.Name, []actiondomain.Status{actiondomain.StatusSkipped})
	if err != nil {
		return nil, err
	}
	if skipped {
		return &domain.SkipResult{Status: domain.SkipAlreadySkipped}, nil
	}

	entry := &actiondomain.Entry{
		ID:          s.genID.Generate(),
		ActionID:    uuid.NewString(),
		UserID:      user.ID,
		AccountName: account.Name,
		OrderID:     orderID,
		URL:         order.Link,
		Network:     order.Network,
		ActionType:  order.ActionType,
		Status:      actiondomain.StatusSkipped,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.actions.Insert(ctx, s.db, entry); err != nil {
		return nil, err
	}
	return &domain.SkipResult{Status: domain.SkipRecorded}, nil
}

// storedTypes resolves requested action type filters to the types orders
// are stored under, defaulting to both when none are given.
func storedTypes(raw []string) ([]orderdomain.ActionType, error) {
	if len(raw) == 0 {
		return []orderdomain.ActionType{orderdomain.ActionFollow, orderdomain.ActionLike}, nil
	}
	seen := map[orderdomain.ActionType]bool{}
	var types []orderdomain.ActionType
	for _, r := range raw {
		t, ok := orderdomain.ParseActionType(r)
		if !ok {
			return nil, orderdomain.ErrInvalidActionType
		}
		for _, st := range t.Expand() {
			if !seen[st] {
				seen[st] = true
				types = append(types, st)
			}
		}
	}
	return types, nil
}

// targetHandle derives the profile or post handle shown to the worker.
// An explicit @handle in the order name wins; otherwise the handle is
// pulled out of the order link.
func targetHandle(o orderdomain.Order) string {
	if h := handleFromText(o.Name); h != "" {
		return h
	}
	if h := handleFromText(o.Link); h != "" {
		return h
	}
	return handleFromURL(o.Link)
}

func handleFromText(s string) string {
	i := strings.LastIndex(s, "@")
	if i < 0 {
		return ""
	}
	rest := s[i+1:]
	if j := strings.IndexAny(rest, "/?# \t"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func handleFromURL(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}
	return strings.TrimPrefix(segments[0], "@")
}
