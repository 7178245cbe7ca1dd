package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/cyberdesk/internal/billing"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	receiptdomain "github.com/smallbiznis/cyberdesk/internal/receipt/domain"
)

// GetReceipt renders the receipt of a finished session, a subscription or an
// order as HTML (default), PDF or JSON.
func (s *Server) GetReceipt(c *gin.Context) {
	kind, err := parseKind(c.Param("kind"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}
	format, err := receiptdomain.ParseFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	doc, err := s.receipts.Build(ctx, kind, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch format {
	case receiptdomain.FormatJSON:
		c.JSON(http.StatusOK, gin.H{"data": doc})
	case receiptdomain.FormatPDF:
		body, err := s.receipts.RenderPDF(ctx, doc)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filename := slug.Make(fmt.Sprintf("%s %s %s", doc.Title, doc.Number, doc.ClientName)) + ".pdf"
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", body)
	default:
		html, err := s.receipts.RenderHTML(doc)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

func (s *Server) GetStatement(c *gin.Context) {
	format, err := receiptdomain.ParseFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	doc := s.receipts.BuildStatement()

	switch format {
	case receiptdomain.FormatJSON:
		c.JSON(http.StatusOK, gin.H{"data": doc})
	case receiptdomain.FormatPDF:
		body, err := s.receipts.RenderStatementPDF(ctx, doc)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filename := slug.Make("releve "+doc.Business.Name+" "+doc.IssuedAt.Format("2006-01-02")) + ".pdf"
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", body)
	default:
		html, err := s.receipts.RenderStatementHTML(doc)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

func parseKind(raw string) (billing.Kind, error) {
	switch kind := billing.Kind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case billing.KindSession, billing.KindSubscription, billing.KindOrder:
		return kind, nil
	default:
		return "", deskdomain.ErrInvalidKind
	}
}
