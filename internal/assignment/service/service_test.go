package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	actionrepository "github.com/ganhesocial/ganhesocial/internal/action/repository"
	"github.com/ganhesocial/ganhesocial/internal/assignment/domain"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	orderrepository "github.com/ganhesocial/ganhesocial/internal/order/repository"
	"github.com/ganhesocial/ganhesocial/internal/testutil"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
	userrepository "github.com/ganhesocial/ganhesocial/internal/user/repository"
	userservice "github.com/ganhesocial/ganhesocial/internal/user/service"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	svc     domain.Service
	actions actiondomain.Repository
	orders  orderdomain.Repository
	users   userdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	users := userrepository.Provide()
	orders := orderrepository.Provide()
	actions := actionrepository.Provide()

	userSvc := userservice.Provide(userservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: users,
	})

	svc := Provide(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Users:   userSvc,
		Orders:  orders,
		Actions: actions,
	})

	return &fixture{
		db:      db,
		node:    node,
		clock:   clk,
		svc:     svc,
		actions: actions,
		orders:  orders,
		users:   users,
	}
}

func (f *fixture) seedUser(t *testing.T, token, accountName string, network orderdomain.Network) (*userdomain.User, *userdomain.Account) {
	t.Helper()
	ctx := context.Background()
	u := &userdomain.User{
		ID:        f.node.Generate(),
		Email:     token + "@example.com",
		Name:      "Worker",
		Token:     token,
		Status:    "active",
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.users.Insert(ctx, f.db, u))
	a := &userdomain.Account{
		ID:        f.node.Generate(),
		UserID:    u.ID,
		Name:      accountName,
		Network:   network,
		Status:    userdomain.AccountActive,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.users.InsertAccount(ctx, f.db, a))
	return u, a
}

func (f *fixture) seedOrder(t *testing.T, network orderdomain.Network, actionType orderdomain.ActionType, link string, quantity int, createdAt time.Time) orderdomain.Order {
	t.Helper()
	o := orderdomain.Order{
		ID:         f.node.Generate(),
		Network:    network,
		ActionType: actionType,
		Link:       link,
		Quantity:   quantity,
		Status:     orderdomain.OrderPending,
		CreatedAt:  createdAt,
	}
	require.NoError(t, f.orders.Insert(context.Background(), f.db, &o))
	return o
}

func TestFindNext_ReservesNewestOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-1", "minha_conta", orderdomain.NetworkTikTok)

	older := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@perfil_antigo", 10, f.clock.Now().Add(-time.Hour))
	newer := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@perfil_novo", 10, f.clock.Now())

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, res.Status)
	assert.Equal(t, newer.ID.String(), res.OrderID)
	assert.Equal(t, "follow", res.ActionType)
	assert.Equal(t, "perfil_novo", res.TargetName)
	assert.Equal(t, newer.Link, res.URL)
	assert.Equal(t, "0.006", res.Value)
	assert.NotEmpty(t, res.ActionID)

	// The claim is live, so the same account moves on to the next order.
	res, err = f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, res.Status)
	assert.Equal(t, older.ID.String(), res.OrderID)
}

func TestFindNext_NotFoundWhenNothingMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-2", "conta", orderdomain.NetworkTikTok)

	// Only an instagram order exists; the account's network is tiktok.
	f.seedOrder(t, orderdomain.NetworkInstagram, orderdomain.ActionFollow,
		"https://www.instagram.com/alvo", 5, f.clock.Now())

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-2"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, res.Status)
	assert.Empty(t, res.OrderID)
}

func TestFindNext_ExplicitNetworkOverridesAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-3", "conta", orderdomain.NetworkTikTok)

	insta := f.seedOrder(t, orderdomain.NetworkInstagram, orderdomain.ActionLike,
		"https://www.instagram.com/p/ABCdef123/", 5, f.clock.Now())

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-3", Network: "Instagram"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, res.Status)
	assert.Equal(t, insta.ID.String(), res.OrderID)
	assert.Equal(t, "0.001", res.Value)

	_, err = f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-3", Network: "orkut"})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidNetwork)
}

func TestFindNext_ActionTypeFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-4", "conta", orderdomain.NetworkTikTok)

	f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@perfil", 5, f.clock.Now())
	like := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionLike,
		"https://www.tiktok.com/@perfil/video/7312345678901234567", 5, f.clock.Now().Add(-time.Minute))

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-4", ActionTypes: []string{"curtir"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, res.Status)
	assert.Equal(t, like.ID.String(), res.OrderID)

	_, err = f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-4", ActionTypes: []string{"dancar"}})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidActionType)
}

func TestFindNext_QuotaCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-5", "conta_nova", orderdomain.NetworkTikTok)

	order := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@alvo", 2, f.clock.Now())

	// Two other accounts hold live claims; the quota is exhausted.
	for _, name := range []string{"outra_a", "outra_b"} {
		entry := &actiondomain.Entry{
			ID:          f.node.Generate(),
			ActionID:    name,
			UserID:      f.node.Generate(),
			AccountName: name,
			OrderID:     order.ID.String(),
			URL:         order.Link,
			Network:     order.Network,
			ActionType:  order.ActionType,
			Value:       0.006,
			Status:      actiondomain.StatusPending,
			CreatedAt:   f.clock.Now(),
		}
		require.NoError(t, f.actions.Insert(ctx, f.db, entry))
	}

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-5"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, res.Status)
}

func TestFindNext_CompletedQuotaMarksOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-6", "conta", orderdomain.NetworkTikTok)

	order := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@alvo", 1, f.clock.Now())

	entry := &actiondomain.Entry{
		ID:          f.node.Generate(),
		ActionID:    "done",
		UserID:      f.node.Generate(),
		AccountName: "quem_fez",
		OrderID:     order.ID.String(),
		URL:         order.Link,
		Network:     order.Network,
		ActionType:  order.ActionType,
		Value:       0.006,
		Status:      actiondomain.StatusValid,
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.actions.Insert(ctx, f.db, entry))

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-6"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, res.Status)

	stored, err := f.orders.FindByID(ctx, f.db, order.ID.String())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, orderdomain.OrderCompleted, stored.Status)
}

func TestFindNext_SkippedOrderExcluded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, acct := f.seedUser(t, "tok-7", "conta", orderdomain.NetworkTikTok)

	order := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@alvo", 5, f.clock.Now())

	entry := &actiondomain.Entry{
		ID:          f.node.Generate(),
		ActionID:    "skip-1",
		UserID:      f.node.Generate(),
		AccountName: acct.Name,
		OrderID:     order.ID.String(),
		URL:         order.Link,
		Network:     order.Network,
		ActionType:  order.ActionType,
		Status:      actiondomain.StatusSkipped,
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.actions.Insert(ctx, f.db, entry))

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-7"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, res.Status)
}

func TestFindNext_InvalidEntryAllowsRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, acct := f.seedUser(t, "tok-8", "conta", orderdomain.NetworkTikTok)

	order := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@alvo", 5, f.clock.Now())

	entry := &actiondomain.Entry{
		ID:          f.node.Generate(),
		ActionID:    "inv-1",
		UserID:      f.node.Generate(),
		AccountName: acct.Name,
		OrderID:     order.ID.String(),
		URL:         order.Link,
		Network:     order.Network,
		ActionType:  order.ActionType,
		Status:      actiondomain.StatusInvalid,
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.actions.Insert(ctx, f.db, entry))

	res, err := f.svc.FindNext(ctx, domain.FindNextRequest{Token: "tok-8"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, res.Status)
	assert.Equal(t, order.ID.String(), res.OrderID)
}

func TestSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-9", "conta", orderdomain.NetworkTikTok)

	order := f.seedOrder(t, orderdomain.NetworkTikTok, orderdomain.ActionFollow,
		"https://www.tiktok.com/@alvo", 5, f.clock.Now())

	res, err := f.svc.Skip(ctx, domain.SkipRequest{Token: "tok-9", OrderID: order.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.SkipRecorded, res.Status)

	// Skipping again is an idempotent no-op.
	res, err = f.svc.Skip(ctx, domain.SkipRequest{Token: "tok-9", OrderID: order.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.SkipAlreadySkipped, res.Status)
}

func TestSkip_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "tok-10", "conta", orderdomain.NetworkTikTok)

	_, err := f.svc.Skip(ctx, domain.SkipRequest{Token: "tok-10", OrderID: "   "})
	assert.ErrorIs(t, err, domain.ErrMissingOrderID)

	_, err = f.svc.Skip(ctx, domain.SkipRequest{Token: "tok-10", OrderID: "99999999"})
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)

	_, err = f.svc.Skip(ctx, domain.SkipRequest{Token: "tok-bad", OrderID: "1"})
	assert.ErrorIs(t, err, userdomain.ErrInvalidToken)
}

func TestTargetHandle(t *testing.T) {
	tests := []struct {
		name  string
		order orderdomain.Order
		want  string
	}{
		{
			name:  "explicit handle in order name",
			order: orderdomain.Order{Name: "Seguir @Perfil_Oficial agora", Link: "https://www.tiktok.com/@outro"},
			want:  "Perfil_Oficial",
		},
		{
			name:  "handle in link",
			order: orderdomain.Order{Link: "https://www.tiktok.com/@conta.alvo?lang=pt"},
			want:  "conta.alvo",
		},
		{
			name:  "plain path segment",
			order: orderdomain.Order{Link: "https://www.instagram.com/perfilalvo/"},
			want:  "perfilalvo",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, targetHandle(tc.order))
		})
	}
}
