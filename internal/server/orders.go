package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
)

type createOrderRequest struct {
	ClientName string `json:"client_name"`
	Item       string `json:"item"`
	Category   string `json:"category"`
	Price      int64  `json:"price"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.desk.AddOrder(c.Request.Context(), orderdomain.CreateOrderRequest{
		ClientName: strings.TrimSpace(req.ClientName),
		Item:       strings.TrimSpace(req.Item),
		Category:   strings.TrimSpace(req.Category),
		Price:      req.Price,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Orders()})
}
