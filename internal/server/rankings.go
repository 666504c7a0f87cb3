package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
	leaderboardservice "github.com/ganhesocial/ganhesocial/internal/leaderboard/service"
)

func (s *Server) handleDailyRankings(c *gin.Context) {
	user, err := s.userSvc.Authenticate(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit := leaderboardservice.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = n
	}

	now := s.clock.Now()
	entries, err := s.leaderboardSvc.Daily(c.Request.Context(), user.ID, now, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     balancedomain.BucketDate(now),
		"rankings": entries,
	})
}
