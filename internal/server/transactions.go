package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
)

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		Type   string `form:"type"`
		Source string `form:"source"`
		From   string `form:"from"`
		To     string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := ledgerdomain.Filter{}
	switch txType := ledgerdomain.TransactionType(strings.ToUpper(strings.TrimSpace(query.Type))); txType {
	case "":
	case ledgerdomain.TransactionTypeIncome, ledgerdomain.TransactionTypeExpense:
		filter.Type = txType
	default:
		AbortWithError(c, ledgerdomain.ErrInvalidType)
		return
	}

	switch source := ledgerdomain.SourceType(strings.ToLower(strings.TrimSpace(query.Source))); source {
	case "":
	case ledgerdomain.SourceTypeSession, ledgerdomain.SourceTypeSubscription, ledgerdomain.SourceTypeOrder:
		filter.Source = source
	default:
		AbortWithError(c, newValidationError("source", "invalid_source", "invalid source"))
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}
	filter.From = from
	filter.To = to

	items := s.desk.Transactions(filter)
	var total int64
	for _, tx := range items {
		total += tx.SignedAmount()
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "total": total})
}

func (s *Server) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.Dashboard()})
}
