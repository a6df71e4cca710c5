// Package hub fans session events out to every live subscription of a
// session: the candidate's own connection plus any interviewer dashboards.
// Delivery is best-effort and at-most-once; a reconnecting client must
// resynchronize from a snapshot, events are never replayed.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"interview/internal/metrics"
	"interview/internal/models"
)

// EventsChannel is the redis channel events are mirrored to when a redis
// client is attached, so external consumers can follow transitions without a
// websocket into this process.
const EventsChannel = "interview:events"

// Hub manages the subscriber registry for all sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Subscriber]struct{}
	log      *zap.Logger
	rdb      *redis.Client
	ctx      context.Context
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Subscriber]struct{}),
		log:      log,
		ctx:      context.Background(),
	}
}

// AttachRedis enables the pub/sub event mirror. In-process delivery never
// depends on it.
func (h *Hub) AttachRedis(rdb *redis.Client) {
	h.mu.Lock()
	h.rdb = rdb
	h.mu.Unlock()
}

// Subscribe registers a connection for a session's events. conn may be nil
// for in-process subscribers that receive through a send hook.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) *Subscriber {
	sub := newSubscriber(h, sessionID, conn)

	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.sessions[sessionID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	metrics.Subscribers.Inc()
	go sub.writePump()
	if conn != nil {
		go sub.readPump()
	}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	subs, ok := h.sessions[sub.SessionID]
	if ok {
		if _, present := subs[sub]; present {
			delete(subs, sub)
			metrics.Subscribers.Dec()
		}
		if len(subs) == 0 {
			delete(h.sessions, sub.SessionID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Publish delivers an event to all current subscribers of the session. A
// slow or dead subscriber never blocks delivery to the others or the caller.
func (h *Hub) Publish(sessionID string, event models.SessionEvent) {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.sessions[sessionID]))
	for sub := range h.sessions[sessionID] {
		targets = append(targets, sub)
	}
	rdb := h.rdb
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.enqueue(event)
	}

	if rdb != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			h.log.Error("failed to marshal event for redis mirror", zap.Error(err))
			return
		}
		if err := rdb.Publish(h.ctx, EventsChannel, payload).Err(); err != nil {
			h.log.Warn("redis event mirror publish failed", zap.Error(err))
		}
	}
}

// SubscriberCount reports how many live subscriptions a session has.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
