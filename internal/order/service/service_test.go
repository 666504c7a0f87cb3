package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/order/domain"
	orderrepository "github.com/ganhesocial/ganhesocial/internal/order/repository"
	"github.com/ganhesocial/ganhesocial/internal/testutil"
	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	return New(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Clock: clk,
		Repo:  orderrepository.Provide(),
	}), clk
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, domain.CreateOrderRequest{
		Network:    "tiktok",
		ActionType: "seguir",
		Link:       "https://www.tiktok.com/@alvo",
		Quantity:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NetworkTikTok, order.Network)
	assert.Equal(t, domain.ActionFollow, order.ActionType)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.InDelta(t, 0.006, order.PayoutValue(), 1e-9)

	stored, err := svc.GetByID(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateOrderRequest{
		Network: "orkut", ActionType: "follow", Link: "x", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidNetwork)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "dancar", Link: "x", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidActionType)

	// The combined filter type is never a stored order type.
	_, err = svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "follow_like", Link: "x", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidActionType)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "follow", Link: "x", Quantity: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "follow", Link: "  ", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLink)
}

func TestCreate_IdempotentOnExternalID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateOrderRequest{
		ExternalID: "123456",
		Network:    "instagram",
		ActionType: "curtir",
		Link:       "https://www.instagram.com/p/Cx1aB2cD3eF/",
		Quantity:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "123456", first.ID.String())

	// Resubmitting the broker id returns the stored order untouched.
	again, err := svc.Create(ctx, domain.CreateOrderRequest{
		ExternalID: "123456",
		Network:    "instagram",
		ActionType: "curtir",
		Link:       "https://www.instagram.com/p/OutroCode99/",
		Quantity:   99,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Link, again.Link)
	assert.Equal(t, 10, again.Quantity)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_TimestampFollowsClock(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "seguir",
		Link: "https://www.tiktok.com/@alvo", Quantity: 1,
	})
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(clk.Now()))

	clk.Advance(48 * time.Hour)
	second, err := svc.Create(ctx, domain.CreateOrderRequest{
		Network: "tiktok", ActionType: "seguir",
		Link: "https://www.tiktok.com/@outro", Quantity: 1,
	})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.Equal(clk.Now()))
}

// missOnceRepo hides an order from the first lookup so both sides of a
// concurrent duplicate submission can be replayed sequentially.
type missOnceRepo struct {
	domain.Repository
	missed bool
}

func (r *missOnceRepo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	if !r.missed {
		r.missed = true
		return nil, nil
	}
	return r.Repository.FindByID(ctx, db, id)
}

func TestCreate_ConcurrentDuplicateReturnsStoredOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	repo := orderrepository.Provide()
	ctx := context.Background()

	winner := New(Params{DB: db, Log: zap.NewNop(), GenID: testutil.Node(t), Clock: clk, Repo: repo})
	stored, err := winner.Create(ctx, domain.CreateOrderRequest{
		ExternalID: "555111",
		Network:    "tiktok",
		ActionType: "seguir",
		Link:       "https://www.tiktok.com/@alvo",
		Quantity:   20,
	})
	require.NoError(t, err)

	loser := New(Params{
		DB: db, Log: zap.NewNop(), GenID: testutil.Node(t), Clock: clk,
		Repo: &missOnceRepo{Repository: repo},
	})
	again, err := loser.Create(ctx, domain.CreateOrderRequest{
		ExternalID: "555111",
		Network:    "tiktok",
		ActionType: "seguir",
		Link:       "https://www.tiktok.com/@impostor",
		Quantity:   99,
	})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, stored.Link, again.Link)
	assert.Equal(t, 20, again.Quantity)
}

func TestList_PagesNewestFirst(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateOrderRequest{
			Network:    "tiktok",
			ActionType: "seguir",
			Link:       fmt.Sprintf("https://www.tiktok.com/@alvo%d", i),
			Quantity:   10,
		})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	first, info, err := svc.List(ctx, pagination.Request{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "https://www.tiktok.com/@alvo4", first[0].Link)
	assert.Equal(t, "https://www.tiktok.com/@alvo3", first[1].Link)

	second, info, err := svc.List(ctx, pagination.Request{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "https://www.tiktok.com/@alvo2", second[0].Link)

	last, info, err := svc.List(ctx, pagination.Request{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestList_RejectsBadToken(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.List(context.Background(), pagination.Request{PageToken: "rabisco"})
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}
