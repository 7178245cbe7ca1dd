package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
)

type startSessionRequest struct {
	Type            string `json:"type"`
	ClientName      string `json:"client_name"`
	DurationMinutes int64  `json:"duration_minutes"`
}

func (s *Server) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.desk.StartSession(c.Request.Context(), sessiondomain.StartSessionRequest{
		Type:            strings.TrimSpace(req.Type),
		ClientName:      strings.TrimSpace(req.ClientName),
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListSessions filters by type and by status (active or finished).
func (s *Server) ListSessions(c *gin.Context) {
	var query struct {
		Type   string `form:"type"`
		Status string `form:"status"`
		Limit  string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var sessionType sessiondomain.Type
	if raw := strings.TrimSpace(query.Type); raw != "" {
		parsed, ok := sessiondomain.ParseType(raw)
		if !ok {
			AbortWithError(c, sessiondomain.ErrInvalidType)
			return
		}
		sessionType = parsed
	}

	status := strings.ToLower(strings.TrimSpace(query.Status))
	switch status {
	case "", "active", "finished":
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
		return
	}

	limit, err := parseOptionalInt(query.Limit)
	if err != nil || (limit != nil && *limit < 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	size := 0
	if limit != nil {
		size = *limit
	}
	if status == "finished" {
		c.JSON(http.StatusOK, gin.H{"data": s.desk.FinishedSessions(sessionType, size)})
		return
	}

	items := make([]sessiondomain.Session, 0)
	for _, session := range s.desk.Sessions() {
		if sessionType != "" && session.Type != sessionType {
			continue
		}
		if status == "active" && (!session.IsActive || session.IsFinished) {
			continue
		}
		items = append(items, session)
		if size > 0 && len(items) >= size {
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetSessionByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, sessiondomain.ErrInvalidID)
		return
	}

	resp, err := s.desk.Session(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinishSession(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, sessiondomain.ErrInvalidID)
		return
	}

	resp, err := s.desk.FinishSession(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSessionTimer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, sessiondomain.ErrInvalidID)
		return
	}

	resp, err := s.desk.SessionView(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTimers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.desk.ActiveViews()})
}
