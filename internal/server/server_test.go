package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	actionrepository "github.com/ganhesocial/ganhesocial/internal/action/repository"
	assignmentservice "github.com/ganhesocial/ganhesocial/internal/assignment/service"
	balancerepository "github.com/ganhesocial/ganhesocial/internal/balance/repository"
	balanceservice "github.com/ganhesocial/ganhesocial/internal/balance/service"
	"github.com/ganhesocial/ganhesocial/internal/clock"
	"github.com/ganhesocial/ganhesocial/internal/config"
	leaderboardservice "github.com/ganhesocial/ganhesocial/internal/leaderboard/service"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	orderrepository "github.com/ganhesocial/ganhesocial/internal/order/repository"
	orderservice "github.com/ganhesocial/ganhesocial/internal/order/service"
	"github.com/ganhesocial/ganhesocial/internal/testutil"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
	userrepository "github.com/ganhesocial/ganhesocial/internal/user/repository"
	userservice "github.com/ganhesocial/ganhesocial/internal/user/service"
)

type serverFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	server *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	users := userrepository.Provide()
	orders := orderrepository.Provide()
	actions := actionrepository.Provide()
	earnings := balancerepository.Provide()

	userSvc := userservice.Provide(userservice.Params{DB: db, Log: log, Repo: users})
	orderSvc := orderservice.New(orderservice.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: orders})
	assignmentSvc := assignmentservice.Provide(assignmentservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Users: userSvc, Orders: orders, Actions: actions,
	})
	balanceSvc := balanceservice.Provide(balanceservice.Params{
		DB: db, Log: log, GenID: node,
		Users: users, Actions: actions, Repo: earnings,
	})
	leaderboardSvc := leaderboardservice.Provide(leaderboardservice.Params{
		DB: db, Log: log, Earnings: earnings,
	})

	engine := NewEngine()
	srv := NewServer(ServerParams{
		Engine:         engine,
		Config:         config.Config{HTTPAddr: ":0", BrokerAPIKey: "broker-secret"},
		DB:             db,
		Log:            log,
		Clock:          clk,
		UserSvc:        userSvc,
		OrderSvc:       orderSvc,
		AssignmentSvc:  assignmentSvc,
		BalanceSvc:     balanceSvc,
		LeaderboardSvc: leaderboardSvc,
	})

	return &serverFixture{db: db, node: node, clock: clk, server: srv}
}

func (f *serverFixture) seedUser(t *testing.T, token, accountName string) *userdomain.User {
	t.Helper()
	ctx := context.Background()
	users := userrepository.Provide()
	u := &userdomain.User{
		ID:        f.node.Generate(),
		Email:     token + "@example.com",
		Name:      "Trabalhador",
		Token:     token,
		Status:    "active",
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, users.Insert(ctx, f.db, u))
	a := &userdomain.Account{
		ID:        f.node.Generate(),
		UserID:    u.ID,
		Name:      accountName,
		Network:   orderdomain.NetworkTikTok,
		Status:    userdomain.AccountActive,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, users.InsertAccount(ctx, f.db, a))
	return u
}

func (f *serverFixture) seedOrder(t *testing.T, link string, quantity int) orderdomain.Order {
	t.Helper()
	o := orderdomain.Order{
		ID:         f.node.Generate(),
		Network:    orderdomain.NetworkTikTok,
		ActionType: orderdomain.ActionFollow,
		Link:       link,
		Quantity:   quantity,
		Status:     orderdomain.OrderPending,
		CreatedAt:  f.clock.Now(),
	}
	require.NoError(t, orderrepository.Provide().Insert(context.Background(), f.db, &o))
	return o
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNextAction(t *testing.T) {
	f := newServerFixture(t)
	f.seedUser(t, "tok-next", "conta")
	order := f.seedOrder(t, "https://www.tiktok.com/@alvo", 5)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/actions/next?token=tok-next", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "FOUND", body["status"])
	assert.Equal(t, order.ID.String(), body["order_id"])
	assert.Equal(t, "follow", body["action_type"])
	assert.Equal(t, "alvo", body["target_handle"])
	assert.Equal(t, order.Link, body["target_link"])
	assert.Equal(t, "0.006", body["payout"])
	assert.NotEmpty(t, body["action_id"])
}

func TestNextAction_NotFound(t *testing.T) {
	f := newServerFixture(t)
	f.seedUser(t, "tok-empty", "conta")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/actions/next?token=tok-empty", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["status"])
}

func TestNextAction_ErrorMapping(t *testing.T) {
	f := newServerFixture(t)

	// Missing token is a validation error.
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/actions/next", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "validation_error", errBody["type"])

	// An unknown token is unauthorized.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/actions/next?token=nope", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody = decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "unauthorized", errBody["type"])
}

func TestSkipAction(t *testing.T) {
	f := newServerFixture(t)
	f.seedUser(t, "tok-skip", "conta")
	order := f.seedOrder(t, "https://www.tiktok.com/@alvo", 5)

	payload := func() *bytes.Reader {
		b, _ := json.Marshal(map[string]string{
			"token":    "tok-skip",
			"order_id": order.ID.String(),
		})
		return bytes.NewReader(b)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/actions/skip", payload())
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RECORDED", decode(t, rec)["status"])

	req = httptest.NewRequest(http.MethodPost, "/api/actions/skip", payload())
	req.Header.Set("Content-Type", "application/json")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALREADY_SKIPPED", decode(t, rec)["status"])
}

func TestSkipAction_UnknownOrder(t *testing.T) {
	f := newServerFixture(t)
	f.seedUser(t, "tok-skip404", "conta")

	b, _ := json.Marshal(map[string]string{"token": "tok-skip404", "order_id": "987654"})
	req := httptest.NewRequest(http.MethodPost, "/api/actions/skip", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBalanceEndpoints(t *testing.T) {
	f := newServerFixture(t)
	u := f.seedUser(t, "tok-bal", "conta")

	balance := balanceservice.Provide(balanceservice.Params{
		DB: f.db, Log: zap.NewNop(), GenID: f.node,
		Users: userrepository.Provide(), Actions: actionrepository.Provide(),
		Repo: balancerepository.Provide(),
	})
	require.NoError(t, balance.Credit(context.Background(), u.ID, 0.042, f.clock.Now()))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/balance?token=tok-bal", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.InDelta(t, 0.042, body["available"].(float64), 1e-9)
	assert.Zero(t, body["pending"].(float64))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/earnings/daily?token=tok-bal", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "2026-03-10", body["date"])
	assert.InDelta(t, 0.042, body["amount"].(float64), 1e-9)
}

func TestDailyRankings(t *testing.T) {
	f := newServerFixture(t)
	u := f.seedUser(t, "tok-rank", "conta")

	balance := balanceservice.Provide(balanceservice.Params{
		DB: f.db, Log: zap.NewNop(), GenID: f.node,
		Users: userrepository.Provide(), Actions: actionrepository.Provide(),
		Repo: balancerepository.Provide(),
	})
	require.NoError(t, balance.Credit(context.Background(), u.ID, 0.042, f.clock.Now()))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/rankings/daily?token=tok-rank", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2026-03-10", body["date"])
	rankings := body["rankings"].([]any)
	require.Len(t, rankings, 1)
	first := rankings[0].(map[string]any)
	assert.Equal(t, "Trabalhador", first["name"])
	assert.Equal(t, true, first["is_caller"])

	// Limits outside 1..100 are rejected.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/rankings/daily?token=tok-rank&limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	f := newServerFixture(t)

	b, _ := json.Marshal(map[string]any{
		"order_id":    "778899",
		"action_type": "seguir_insta",
		"target_link": "https://www.instagram.com/alvo",
		"quantity":    25,
	})

	// Without the broker key the intake refuses.
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer broker-secret")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "778899", body["order_id"])

	// The "insta" marker in the action type drove network inference.
	stored, err := orderrepository.Provide().FindByID(context.Background(), f.db, "778899")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, orderdomain.NetworkInstagram, stored.Network)
}

func TestListOrders(t *testing.T) {
	f := newServerFixture(t)

	for i := 0; i < 3; i++ {
		f.seedOrder(t, fmt.Sprintf("https://www.tiktok.com/@alvo%d", i), 10)
		f.clock.Advance(time.Minute)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders?page_size=2", nil)
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders?page_size=2", nil)
	req.Header.Set("Authorization", "Bearer broker-secret")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	orders := body["orders"].([]any)
	require.Len(t, orders, 2)
	newest := orders[0].(map[string]any)
	assert.Equal(t, "https://www.tiktok.com/@alvo2", newest["target_link"])

	pageInfo := body["page_info"].(map[string]any)
	assert.Equal(t, true, pageInfo["has_more"])
	token := pageInfo["next_page_token"].(string)
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/api/orders?page_size=2&page_token="+url.QueryEscape(token), nil)
	req.Header.Set("Authorization", "Bearer broker-secret")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	body = decode(t, rec)
	orders = body["orders"].([]any)
	require.Len(t, orders, 1)
	oldest := orders[0].(map[string]any)
	assert.Equal(t, "https://www.tiktok.com/@alvo0", oldest["target_link"])
	pageInfo = body["page_info"].(map[string]any)
	assert.Equal(t, false, pageInfo["has_more"])

	// A mangled token maps to a validation error.
	req = httptest.NewRequest(http.MethodGet, "/api/orders?page_token=rabisco", nil)
	req.Header.Set("Authorization", "Bearer broker-secret")
	rec = f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNormalizeActionType(t *testing.T) {
	assert.Equal(t, "follow", normalizeActionType("Seguir_Insta"))
	assert.Equal(t, "follow", normalizeActionType("follow"))
	assert.Equal(t, "like", normalizeActionType("curtir_tiktok"))
	assert.Equal(t, "like", normalizeActionType("like"))
	assert.Equal(t, "dancar", normalizeActionType("dancar"))
}

func TestInferNetwork(t *testing.T) {
	assert.Equal(t, "instagram", inferNetwork("Instagram", "", ""))
	assert.Equal(t, "instagram", inferNetwork("", "Seguidores Insta", ""))
	assert.Equal(t, "instagram", inferNetwork("", "", "https://www.instagram.com/p/abc/"))
	assert.Equal(t, "tiktok", inferNetwork("", "curtir", "https://www.tiktok.com/@x"))
}
