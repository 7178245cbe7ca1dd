package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/smallbiznis/cyberdesk/internal/session/live"
)

// StreamSessionTimer pushes the countdown of one session as server-sent
// events. The stream ends once the session is no longer active.
func (s *Server) StreamSessionTimer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, sessiondomain.ErrInvalidID)
		return
	}

	current, err := s.desk.SessionView(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.streamViews(c, id, []sessiondomain.View{current}, true)
}

// StreamAllTimers pushes the countdown of every running session.
func (s *Server) StreamAllTimers(c *gin.Context) {
	s.streamViews(c, live.AllSessions, s.desk.ActiveViews(), false)
}

func (s *Server) streamViews(c *gin.Context, key string, initial []sessiondomain.View, stopWhenDone bool) {
	if s.live == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	subscription, backlog, err := s.live.Subscribe(key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	// The snapshot read before subscribing may be older than the backlog.
	views := initial
	if len(backlog) > 0 && key != live.AllSessions {
		views = backlog[len(backlog)-1:]
	}
	for _, view := range views {
		if err := writeTimerEvent(writer, view); err != nil {
			return
		}
		if stopWhenDone && !view.IsActive {
			flusher.Flush()
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case view := <-subscription.Views():
			if err := writeTimerEvent(writer, view); err != nil {
				return
			}
			flusher.Flush()
			if stopWhenDone && !view.IsActive {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeTimerEvent(w io.Writer, view sessiondomain.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: timer\ndata: %s\n\n", data)
	return err
}
