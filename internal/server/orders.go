package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type createOrderRequest struct {
	OrderID    string   `json:"order_id"`
	Network    string   `json:"network"`
	ActionType string   `json:"action_type"`
	TargetName string   `json:"target_handle"`
	Link       string   `json:"target_link"`
	Quantity   int      `json:"quantity"`
	Value      *float64 `json:"value"`
}

// handleCreateOrder is the broker's intake: new campaign units arrive
// here, authenticated with the shared broker key. Resubmitting an
// order id is a no-op returning the stored order.
func (s *Server) handleCreateOrder(c *gin.Context) {
	if !s.brokerAuthorized(c) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		ExternalID: body.OrderID,
		Network:    inferNetwork(body.Network, body.ActionType, body.Link),
		ActionType: normalizeActionType(body.ActionType),
		Name:       body.TargetName,
		Link:       body.Link,
		Quantity:   body.Quantity,
		Value:      body.Value,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	})
}

// handleListOrders pages through campaign orders for the broker,
// newest first, using keyset page tokens.
func (s *Server) handleListOrders(c *gin.Context) {
	if !s.brokerAuthorized(c) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var page pagination.Request
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orders, info, err := s.orderSvc.List(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		items = append(items, gin.H{
			"order_id":    o.ID.String(),
			"network":     string(o.Network),
			"action_type": string(o.ActionType),
			"target_link": o.Link,
			"quantity":    o.Quantity,
			"status":      string(o.Status),
			"created_at":  o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":    items,
		"page_info": info,
	})
}

func (s *Server) brokerAuthorized(c *gin.Context) bool {
	if s.cfg.BrokerAPIKey == "" {
		return false
	}
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	return strings.TrimPrefix(auth, prefix) == s.cfg.BrokerAPIKey
}

// normalizeActionType strips the network suffix the broker embeds in
// its action types ("seguir_insta", "curtir_tiktok") down to the
// stored follow/like pair.
func normalizeActionType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(t, "seguir"), strings.Contains(t, "follow"):
		return "follow"
	case strings.Contains(t, "curtir"), strings.Contains(t, "like"):
		return "like"
	default:
		return t
	}
}

// inferNetwork picks the network when the broker leaves it implicit:
// explicit field first, then hints in the action type, then the link
// host. TikTok is the historical default.
func inferNetwork(network, actionType, link string) string {
	if n := strings.ToLower(strings.TrimSpace(network)); n == "instagram" || n == "tiktok" {
		return n
	}
	if strings.Contains(strings.ToLower(actionType), "insta") {
		return "instagram"
	}
	if strings.Contains(link, "instagram.com") {
		return "instagram"
	}
	return "tiktok"
}
