package session_management

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"interview/internal/models"
	"interview/internal/store"
)

// arm schedules the single-shot deadline callback for a slot, replacing any
// previously armed timer for the session. Callers hold the session lock.
func (m *InterviewManager) arm(c *sessionCtx, sessionID string, slotIndex int, deadline time.Time) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerSlot = slotIndex

	d := deadline.Sub(m.now())
	if d < 0 {
		d = 0
	}
	c.timer = time.AfterFunc(d, func() {
		m.onDeadline(sessionID, slotIndex)
	})
}

// disarm cancels the pending callback. Disarming after the callback fired is
// a harmless no-op; the callback hits the idempotent resolution path anyway.
func (m *InterviewManager) disarm(c *sessionCtx) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSlot = -1
}

// onDeadline is the timeout trigger. It funnels into the same idempotent
// SubmitAnswer entry point the manual path uses; if the manual submission won
// the race this is a no-op. Failed resolutions are retried with backoff so an
// oracle hiccup cannot strand a session in an expired slot.
func (m *InterviewManager) onDeadline(sessionID string, slotIndex int) {
	backoff := m.retryBase
	for attempt := 1; ; attempt++ {
		_, err := m.SubmitAnswer(context.Background(), sessionID, slotIndex, "", 0, models.ReasonTimeout)
		if err == nil {
			return
		}
		if errors.Is(err, ErrInvalidState) || errors.Is(err, store.ErrSessionNotFound) {
			return
		}
		if attempt >= timeoutMaxRetries {
			m.log.Error("giving up on timeout resolution",
				zap.String("sessionId", sessionID),
				zap.Int("slot", slotIndex),
				zap.Error(err))
			// Surrender the fired timer so the reconcile sweep does not
			// count the slot as covered and re-fires this resolution.
			c := m.cctx(sessionID)
			c.mu.Lock()
			if c.timerSlot == slotIndex {
				c.timer = nil
				c.timerSlot = -1
			}
			c.mu.Unlock()
			return
		}
		m.log.Warn("timeout resolution failed, retrying",
			zap.String("sessionId", sessionID),
			zap.Int("slot", slotIndex),
			zap.Int("attempt", attempt),
			zap.Error(err))
		time.Sleep(backoff)
		backoff *= 2
	}
}

// Reconcile sweeps persisted in-progress sessions and repairs timer state:
// deadlines still ahead get re-armed (lost on restart), deadlines already
// passed get their timeout resolution fired. Runs at startup and on a cron
// schedule.
func (m *InterviewManager) Reconcile() {
	sessions, err := m.store.ListInProgressSessions()
	if err != nil {
		m.log.Error("reconcile sweep failed to list sessions", zap.Error(err))
		return
	}

	for i := range sessions {
		session := &sessions[i]
		if session.CurrentSlot < 0 || session.CurrentSlot >= len(session.Slots) {
			continue
		}
		slot := session.Slots[session.CurrentSlot]
		if slot.Resolved() || slot.Deadline == nil {
			continue
		}

		c := m.cctx(session.ID)
		c.mu.Lock()
		armed := c.timer != nil && c.timerSlot == slot.SlotIndex
		if !armed && m.now().Before(*slot.Deadline) {
			m.arm(c, session.ID, slot.SlotIndex, *slot.Deadline)
			armed = true
			m.log.Info("re-armed deadline after restart",
				zap.String("sessionId", session.ID),
				zap.Int("slot", slot.SlotIndex))
		}
		c.mu.Unlock()

		if !armed {
			go m.onDeadline(session.ID, slot.SlotIndex)
		}
	}
}
