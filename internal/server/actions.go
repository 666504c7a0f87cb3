package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	assignmentdomain "github.com/ganhesocial/ganhesocial/internal/assignment/domain"
)

func (s *Server) handleNextAction(c *gin.Context) {
	req := assignmentdomain.FindNextRequest{
		Token:       c.Query("token"),
		AccountName: c.Query("account"),
		Network:     c.Query("network"),
		ActionTypes: c.QueryArray("type"),
	}
	if req.Token == "" {
		AbortWithError(c, assignmentdomain.ErrMissingToken)
		return
	}

	result, err := s.assignmentSvc.FindNext(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type skipActionRequest struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	OrderID string `json:"order_id"`
}

func (s *Server) handleSkipAction(c *gin.Context) {
	var body skipActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if body.Token == "" {
		AbortWithError(c, assignmentdomain.ErrMissingToken)
		return
	}

	result, err := s.assignmentSvc.Skip(c.Request.Context(), assignmentdomain.SkipRequest{
		Token:       body.Token,
		AccountName: body.Account,
		OrderID:     body.OrderID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
