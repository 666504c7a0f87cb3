package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	balancedomain "github.com/ganhesocial/ganhesocial/internal/balance/domain"
)

func (s *Server) handleBalance(c *gin.Context) {
	user, err := s.userSvc.Authenticate(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.balanceSvc.Summarize(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleDailyEarnings(c *gin.Context) {
	user, err := s.userSvc.Authenticate(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := s.clock.Now()
	total, err := s.balanceSvc.DailyTotal(c.Request.Context(), user.ID, now)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":   balancedomain.BucketDate(now),
		"amount": total,
	})
}
