package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
)

type configureBusinessRequest struct {
	Owner            string `json:"owner"`
	OwnerPhoto       string `json:"owner_photo"`
	Name             string `json:"name"`
	Logo             string `json:"logo"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	NIF              string `json:"nif"`
	STAT             string `json:"stat"`
	CyberPricePerMin int64  `json:"cyber_price_per_min"`
	GamePricePerMin  int64  `json:"game_price_per_min"`
	Currency         string `json:"currency"`
}

func (s *Server) GetBusiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Business()})
}

func (s *Server) ConfigureBusiness(c *gin.Context) {
	var req configureBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.desk.ConfigureBusiness(c.Request.Context(), businessdomain.ConfigureRequest{
		Owner:            strings.TrimSpace(req.Owner),
		OwnerPhoto:       req.OwnerPhoto,
		Name:             strings.TrimSpace(req.Name),
		Logo:             req.Logo,
		Address:          strings.TrimSpace(req.Address),
		Phone:            strings.TrimSpace(req.Phone),
		Email:            strings.TrimSpace(req.Email),
		NIF:              strings.TrimSpace(req.NIF),
		STAT:             strings.TrimSpace(req.STAT),
		CyberPricePerMin: req.CyberPricePerMin,
		GamePricePerMin:  req.GamePricePerMin,
		Currency:         strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReconfigureBusiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Reconfigure(c.Request.Context())})
}

func (s *Server) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Catalog()})
}
