package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview/internal/models"
)

type eventCapture struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (c *eventCapture) hook(event models.SessionEvent) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *eventCapture) list() []models.SessionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.SessionEvent, len(c.events))
	copy(out, c.events)
	return out
}

func eventTypes(events []models.SessionEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestPublishReachesAllSubscribersInOrder(t *testing.T) {
	h := NewHub(zap.NewNop())

	cap1, cap2 := &eventCapture{}, &eventCapture{}
	sub1 := h.Subscribe("sess-1", nil)
	sub1.SetSendHook(cap1.hook)
	sub2 := h.Subscribe("sess-1", nil)
	sub2.SetSendHook(cap2.hook)
	other := h.Subscribe("sess-2", nil)
	otherCap := &eventCapture{}
	other.SetSendHook(otherCap.hook)

	want := []string{
		models.EventSessionStarted,
		models.EventQuestionActivated,
		models.EventQuestionResolved,
		models.EventQuestionActivated,
	}
	for _, typ := range want {
		h.Publish("sess-1", models.SessionEvent{Type: typ, SessionID: "sess-1", At: time.Now()})
	}

	require.Eventually(t, func() bool {
		return len(cap1.list()) == len(want) && len(cap2.list()) == len(want)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, want, eventTypes(cap1.list()))
	assert.Equal(t, want, eventTypes(cap2.list()))
	assert.Empty(t, otherCap.list(), "events must not leak across sessions")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(zap.NewNop())

	capture := &eventCapture{}
	sub := h.Subscribe("sess-1", nil)
	sub.SetSendHook(capture.hook)

	assert.Equal(t, 1, h.SubscriberCount("sess-1"))
	h.Unsubscribe(sub)
	assert.Equal(t, 0, h.SubscriberCount("sess-1"))

	h.Publish("sess-1", models.SessionEvent{Type: models.EventQuestionActivated})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, capture.list())
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	// Built directly so no write pump drains the queue.
	sub := newSubscriber(NewHub(zap.NewNop()), "sess-1", nil)

	for i := 0; i < queueSize+3; i++ {
		sub.enqueue(models.SessionEvent{Type: fmt.Sprintf("ev-%d", i)})
	}

	assert.True(t, sub.Stale())
	assert.Len(t, sub.out, queueSize)

	first := <-sub.out
	assert.Equal(t, "ev-3", first.Type, "oldest events should have been dropped")
}

func TestRedisEventMirror(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	pubsub := rdb.Subscribe(ctx, EventsChannel)
	t.Cleanup(func() { pubsub.Close() })
	ch := pubsub.Channel()

	h := NewHub(zap.NewNop())
	h.AttachRedis(rdb)
	h.Publish("sess-1", models.SessionEvent{
		Type:      models.EventSessionCompleted,
		SessionID: "sess-1",
		At:        time.Now(),
	})

	select {
	case msg := <-ch:
		var event models.SessionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, models.EventSessionCompleted, event.Type)
		assert.Equal(t, "sess-1", event.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mirrored event")
	}
}
