package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// SessionKey is the gin context key holding the caller's session id.
const SessionKey = "session_id"

// StateEvent represents an SSE payload telling a page its view state moved on.
type StateEvent struct {
	Type       string `json:"type"`
	Phase      string `json:"phase"`
	Loading    bool   `json:"loading"`
	VideoCount int    `json:"video_count"`
	Expanded   string `json:"expanded,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SnapshotFunc returns the current state of a session, if it is known.
type SnapshotFunc func(sessionID string) (StateEvent, bool)

// Hub maintains per-session subscribers listening for state events.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[chan StateEvent]struct{}
	snapshot SnapshotFunc
}

func NewStateHub() *Hub {
	return &Hub{sessions: make(map[string]map[chan StateEvent]struct{})}
}

// WithSnapshot sets the source of the state sent to a stream as soon as it opens (fluent)
func (h *Hub) WithSnapshot(fn SnapshotFunc) *Hub {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
	return h
}

// Serve registers an SSE stream for the session set by the session middleware.
func (h *Hub) Serve(c *gin.Context) {
	sessionID := c.GetString(SessionKey)
	if sessionID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan StateEvent, 8)
	h.addSubscriber(sessionID, ch)
	defer h.removeSubscriber(sessionID, ch)

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	// Changes made before the page subscribed would otherwise never reach it.
	h.mu.RLock()
	snapshot := h.snapshot
	h.mu.RUnlock()
	if snapshot != nil {
		if evt, ok := snapshot(sessionID); ok {
			writeEvent(c, evt)
		}
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			writeEvent(c, evt)
		}
	}
}

func writeEvent(c *gin.Context, evt StateEvent) {
	if evt.Type == "" {
		evt.Type = "state"
	}
	data, _ := json.Marshal(evt)
	_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
	_, _ = c.Writer.Write([]byte("data: "))
	_, _ = c.Writer.Write(data)
	_, _ = c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

// Subscribers reports how many streams are open for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) addSubscriber(sessionID string, ch chan StateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[chan StateEvent]struct{})
	}
	h.sessions[sessionID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(sessionID string, ch chan StateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.sessions[sessionID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// Broadcast sends evt to every open stream of the session. Slow readers miss events.
func (h *Hub) Broadcast(sessionID string, evt StateEvent) {
	if evt.Type == "" {
		evt.Type = "state"
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.sessions[sessionID] {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
}
