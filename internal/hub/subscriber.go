package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interview/internal/metrics"
	"interview/internal/models"
)

const (
	// Bound on the per-subscriber outbound queue. When it overflows the
	// oldest event is dropped and the subscriber is marked stale, so the
	// client knows to resynchronize via snapshot.
	queueSize = 16

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4096
)

// Subscriber ties one live connection to a session id. It holds no session
// state, only a delivery queue.
type Subscriber struct {
	SessionID string

	hub  *Hub
	conn *websocket.Conn
	out  chan models.SessionEvent
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	hook  func(models.SessionEvent)
	stale bool
}

func newSubscriber(h *Hub, sessionID string, conn *websocket.Conn) *Subscriber {
	return &Subscriber{
		SessionID: sessionID,
		hub:       h,
		conn:      conn,
		out:       make(chan models.SessionEvent, queueSize),
		done:      make(chan struct{}),
	}
}

// SetSendHook replaces the default WebSocket sender (used in tests and for
// in-process observers).
func (s *Subscriber) SetSendHook(fn func(models.SessionEvent)) {
	s.mu.Lock()
	s.hook = fn
	s.mu.Unlock()
}

// Stale reports whether events were dropped for this subscriber since it
// connected. A stale subscriber should reconnect and fetch a fresh snapshot.
func (s *Subscriber) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Subscriber) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// enqueue never blocks: on a full queue the oldest event is discarded.
func (s *Subscriber) enqueue(event models.SessionEvent) {
	for {
		select {
		case s.out <- event:
			return
		default:
		}
		select {
		case <-s.out:
			metrics.DroppedEvents.Inc()
			s.markStale()
		default:
		}
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

func (s *Subscriber) send(event models.SessionEvent) error {
	s.mu.Lock()
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(event)
		return nil
	}
	if s.conn == nil {
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(event)
}

// writePump drains the outbound queue in FIFO order, one writer per
// connection, which preserves per-subscriber event ordering.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.out:
			if err := s.send(event); err != nil {
				s.hub.log.Debug("subscriber write failed",
					zap.String("sessionId", s.SessionID), zap.Error(err))
				s.hub.Unsubscribe(s)
				return
			}
		case <-ticker.C:
			if s.conn == nil {
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.Unsubscribe(s)
				return
			}
		case <-s.done:
			return
		}
	}
}

// readPump consumes client frames: pongs refresh the read deadline, a
// {"type":"ping"} text frame gets a pong event back, everything else is
// discarded (subscribers have no authority over session state).
func (s *Subscriber) readPump() {
	defer s.hub.Unsubscribe(s)

	s.conn.SetReadLimit(maxMsgSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			s.enqueue(models.SessionEvent{
				Type:      "pong",
				SessionID: s.SessionID,
				At:        time.Now(),
			})
		}
	}
}
