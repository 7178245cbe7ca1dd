package live

import (
	"errors"
	"strings"
	"sync"

	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
)

// AllSessions is the stream key that receives every session's updates.
const AllSessions = "*"

const (
	DefaultBufferSize       = 1
	DefaultSubscriberBuffer = 16
)

var (
	ErrHubUnavailable   = errors.New("hub_unavailable")
	ErrInvalidSessionID = errors.New("invalid_session_id")
)

// Hub fans timer views out to SSE subscribers. Each stream keeps its latest
// views so a new subscriber is painted immediately.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []sessiondomain.View
	subs   map[uint64]chan sessiondomain.View
	nextID uint64
}

type Subscription struct {
	hub  *Hub
	key  string
	id   uint64
	ch   chan sessiondomain.View
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers a view to the session's stream and to AllSessions. Slow
// subscribers drop updates rather than block the timer.
func (h *Hub) Publish(view sessiondomain.View) {
	if h == nil {
		return
	}
	id := strings.TrimSpace(view.SessionID)
	if id == "" {
		return
	}
	h.publish(id, view)
	h.publish(AllSessions, view)
}

func (h *Hub) publish(key string, view sessiondomain.View) {
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	if key != AllSessions {
		stream.buffer = append(stream.buffer, view)
		if len(stream.buffer) > h.bufferSize {
			stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
		}
	}
	subs := make([]chan sessiondomain.View, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- view:
		default:
		}
	}
}

func (h *Hub) Subscribe(sessionID string) (*Subscription, []sessiondomain.View, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return nil, nil, ErrInvalidSessionID
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	id := stream.nextID
	stream.nextID++
	ch := make(chan sessiondomain.View, h.subscriberBuffer)
	stream.subs[id] = ch
	buffer := append([]sessiondomain.View(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{hub: h, key: key, id: id, ch: ch}, buffer, nil
}

func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	stream := h.streams[strings.TrimSpace(sessionID)]
	h.mu.RUnlock()
	if stream == nil {
		return 0
	}
	stream.mu.Lock()
	defer stream.mu.Unlock()
	return len(stream.subs)
}

func (h *Hub) ensureStream(key string) *stream {
	h.mu.RLock()
	current := h.streams[key]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[key]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan sessiondomain.View)}
		h.streams[key] = current
	}
	return current
}

func (h *Hub) unsubscribe(key string, id uint64) {
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	delete(stream.subs, id)
	remaining := len(stream.subs)
	stream.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streams[key] != stream {
		return
	}
	stream.mu.Lock()
	empty := len(stream.subs) == 0
	stream.mu.Unlock()
	if empty {
		delete(h.streams, key)
	}
}

func (s *Subscription) Views() <-chan sessiondomain.View {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.key, s.id)
	})
}
