package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
)

type createSubscriptionRequest struct {
	ClientName string `json:"client_name"`
	// Price accepts a number or a string; the desk falls back to the plan
	// price for anything it cannot read.
	Price any `json:"price"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.desk.AddSubscription(c.Request.Context(), subscriptiondomain.CreateSubscriptionRequest{
		ClientName: strings.TrimSpace(req.ClientName),
		Price:      rawPrice(req.Price),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Subscriptions()})
}

func rawPrice(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
