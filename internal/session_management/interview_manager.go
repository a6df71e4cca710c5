// Package session_management is the interview orchestrator: a keyed registry
// of per-session execution contexts, each serializing its own transitions
// (start, manual submit, timer-fired timeout) behind a single mutex. The
// persisted session is the source of truth; a transition mutates a freshly
// loaded copy, persists it, and only then arms timers and broadcasts — so a
// failed oracle call or store write leaves no observable state change.
package session_management

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interview/internal/hub"
	"interview/internal/metrics"
	"interview/internal/models"
	"interview/internal/oracle"
	"interview/internal/policy"
	"interview/internal/store"
)

var (
	// ErrInvalidState rejects an operation the current session phase does not allow.
	ErrInvalidState = errors.New("operation not valid for current session state")
	// ErrEmptyAnswer rejects a manual submission with no answer text.
	ErrEmptyAnswer = errors.New("answer text required for manual submission")
	// ErrOracleUnavailable marks an aborted transition; the caller should retry.
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")
	// ErrStoreWrite marks a transition that could not be persisted and was not committed.
	ErrStoreWrite = errors.New("failed to persist session state")
	// ErrInfoNotConfirmed rejects starting before the candidate confirmed their details.
	ErrInfoNotConfirmed = errors.New("candidate info not confirmed")
)

const (
	timeoutMaxRetries = 5
	timeoutRetryBase  = 2 * time.Second
)

// sessionCtx serializes all transitions for one session and owns its single
// live timer.
type sessionCtx struct {
	mu        sync.Mutex
	timer     *time.Timer
	timerSlot int
}

type InterviewManager struct {
	store  *store.Store
	oracle oracle.Oracle
	hub    *hub.Hub
	log    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionCtx

	// test seams
	now       func() time.Time
	slotTime  func(int) time.Duration
	retryBase time.Duration
}

func NewInterviewManager(st *store.Store, orc oracle.Oracle, h *hub.Hub, log *zap.Logger) *InterviewManager {
	return &InterviewManager{
		store:     st,
		oracle:    orc,
		hub:       h,
		log:       log,
		sessions:  make(map[string]*sessionCtx),
		now:       time.Now,
		slotTime:  policy.SlotTime,
		retryBase: timeoutRetryBase,
	}
}

func (m *InterviewManager) cctx(sessionID string) *sessionCtx {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[sessionID]
	if !ok {
		c = &sessionCtx{timerSlot: -1}
		m.sessions[sessionID] = c
	}
	return c
}

func (m *InterviewManager) dropCtx(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// RegisterCandidate creates a candidate from parsed resume fields together
// with their (not yet started) session shell.
func (m *InterviewManager) RegisterCandidate(name, email, phone, resumeText string) (*models.Candidate, error) {
	now := m.now()
	candidate := &models.Candidate{
		ID:            uuid.New().String(),
		Name:          name,
		Email:         email,
		Phone:         phone,
		ResumeText:    resumeText,
		InfoConfirmed: name != "" && email != "",
		Status:        models.StatusNotStarted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.CreateCandidate(candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	session := &models.InterviewSession{
		ID:             uuid.New().String(),
		CandidateID:    candidate.ID,
		Status:         models.StatusNotStarted,
		CurrentSlot:    -1,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := m.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return candidate, nil
}

// ConfirmInfo fills in or corrects candidate fields before the interview.
// Identity becomes immutable once the interview is running.
func (m *InterviewManager) ConfirmInfo(candidateID, name, email, phone string) (*models.Candidate, error) {
	candidate, err := m.store.GetCandidate(candidateID)
	if err != nil {
		return nil, err
	}
	session, err := m.store.LoadSessionByCandidate(candidateID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusInProgress || session.Status == models.StatusCompleted {
		return nil, ErrInvalidState
	}

	if name != "" {
		candidate.Name = name
	}
	if email != "" {
		candidate.Email = email
	}
	if phone != "" {
		candidate.Phone = phone
	}
	candidate.InfoConfirmed = candidate.Name != "" && candidate.Email != ""
	candidate.UpdatedAt = m.now()
	session.Status = models.StatusCollectingInfo
	session.LastActivityAt = candidate.UpdatedAt

	if err := m.store.SaveSessionAndCandidate(session, candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return candidate, nil
}

// StartSession activates slot 0: question fetched, deadline armed, state
// persisted, subscribers notified. Fails with ErrInvalidState when a session
// is already running or finished for this candidate.
func (m *InterviewManager) StartSession(ctx context.Context, candidateID string) (*models.StartResult, error) {
	shell, err := m.store.LoadSessionByCandidate(candidateID)
	if err != nil {
		return nil, err
	}

	c := m.cctx(shell.ID)
	c.mu.Lock()
	defer c.mu.Unlock()

	// Reload under the session lock; another caller may have raced us here.
	session, err := m.store.LoadSession(shell.ID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusInProgress || session.Status == models.StatusCompleted {
		return nil, ErrInvalidState
	}

	candidate, err := m.store.GetCandidate(candidateID)
	if err != nil {
		return nil, err
	}
	if !candidate.InfoConfirmed {
		return nil, ErrInfoNotConfirmed
	}

	question, err := m.oracle.NextQuestion(ctx, 1, policy.SlotDifficulty(0), oracle.CandidateProfile{Name: candidate.Name})
	if err != nil {
		metrics.OracleFailures.WithLabelValues("next_question").Inc()
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	now := m.now()
	allocated := int(m.slotTime(0) / time.Second)
	deadline := now.Add(m.slotTime(0))

	session.Status = models.StatusInProgress
	session.CurrentSlot = 0
	session.StartedAt = &now
	session.LastActivityAt = now
	session.Slots = append(session.Slots, models.QuestionSlot{
		SessionID:     session.ID,
		SlotIndex:     0,
		Difficulty:    policy.SlotDifficulty(0),
		TimeAllocated: allocated,
		QuestionText:  question,
		Deadline:      &deadline,
		Resolution:    models.ResolutionPending,
		AskedAt:       &now,
	})
	candidate.Status = models.StatusInProgress
	candidate.UpdatedAt = now

	if err := m.store.SaveSessionAndCandidate(session, candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	m.arm(c, session.ID, 0, deadline)
	metrics.SessionsStarted.Inc()

	m.publish(session.ID, models.EventSessionStarted, map[string]any{
		"candidateId": candidate.ID,
		"candidate":   candidate.Name,
	})
	m.publishActivated(session.ID, 0, question, allocated, deadline)

	return &models.StartResult{
		SessionID:      session.ID,
		Question:       question,
		QuestionNumber: 1,
		Difficulty:     policy.SlotDifficulty(0),
		TimeAllocated:  allocated,
	}, nil
}

// SubmitAnswer resolves a slot. Manual submission and the deadline timer race
// into this same entry point; whichever arrives second finds the slot already
// resolved and gets the recorded outcome back without a second oracle call.
// slotIndex < 0 means "the current active slot".
func (m *InterviewManager) SubmitAnswer(ctx context.Context, sessionID string, slotIndex int, answerText string, timeTaken int, reason string) (*models.SubmitResult, error) {
	c := m.cctx(sessionID)
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := m.store.LoadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}
	if slotIndex < 0 {
		slotIndex = session.CurrentSlot
	}
	if slotIndex > session.CurrentSlot || slotIndex >= models.TotalSlots || slotIndex >= len(session.Slots) {
		return nil, ErrInvalidState
	}

	slot := &session.Slots[slotIndex]
	if slot.Resolved() {
		return m.recordedResult(session, slot), nil
	}

	// Only the active slot can still be pending.
	if reason == models.ReasonManual && strings.TrimSpace(answerText) == "" {
		return nil, ErrEmptyAnswer
	}

	candidate, err := m.store.GetCandidate(session.CandidateID)
	if err != nil {
		return nil, err
	}

	score, err := m.oracle.Score(ctx, slot.QuestionText, answerText)
	if err != nil {
		metrics.OracleFailures.WithLabelValues("score").Inc()
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	score = policy.ClampScore(score)

	now := m.now()
	resolution := models.ResolutionAnsweredInTime
	if reason == models.ReasonTimeout {
		resolution = models.ResolutionAnsweredAfterTimeout
		if strings.TrimSpace(answerText) == "" {
			resolution = models.ResolutionUnanswered
		}
	}

	slot.AnswerText = answerText
	slot.TimeTaken = policy.ClampTimeTaken(timeTaken, slot.TimeAllocated)
	if reason == models.ReasonTimeout {
		// The server deadline is authoritative; the whole budget elapsed.
		slot.TimeTaken = slot.TimeAllocated
	}
	slot.Score = &score
	slot.Resolution = resolution
	slot.AnsweredAt = &now
	session.TotalScore += score
	session.LastActivityAt = now

	result := &models.SubmitResult{
		SlotIndex:  slotIndex,
		Score:      score,
		Resolution: resolution,
	}

	if slotIndex == models.TotalSlots-1 {
		summary, err := m.oracle.Summarize(ctx, slotResults(session.Slots), session.TotalScore)
		if err != nil {
			metrics.OracleFailures.WithLabelValues("summarize").Inc()
			return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}

		session.Status = models.StatusCompleted
		session.Summary = summary
		session.CompletedAt = &now
		candidate.Status = models.StatusCompleted
		candidate.TotalScore = session.TotalScore
		candidate.Summary = summary
		candidate.UpdatedAt = now

		if err := m.store.SaveSessionAndCandidate(session, candidate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
		}

		m.disarm(c)
		m.dropCtx(sessionID)
		metrics.SlotResolutions.WithLabelValues(reason).Inc()
		metrics.SessionsCompleted.Inc()

		m.publishResolved(session.ID, slotIndex, score, resolution)
		m.publish(session.ID, models.EventSessionCompleted, map[string]any{
			"totalScore": session.TotalScore,
			"summary":    summary,
		})

		result.Completed = true
		result.TotalScore = session.TotalScore
		result.Summary = summary
		return result, nil
	}

	nextIdx := slotIndex + 1
	nextDifficulty := policy.SlotDifficulty(nextIdx)
	question, err := m.oracle.NextQuestion(ctx, nextIdx+1, nextDifficulty, oracle.CandidateProfile{Name: candidate.Name})
	if err != nil {
		metrics.OracleFailures.WithLabelValues("next_question").Inc()
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	allocated := int(m.slotTime(nextIdx) / time.Second)
	deadline := now.Add(m.slotTime(nextIdx))
	session.CurrentSlot = nextIdx
	session.Slots = append(session.Slots, models.QuestionSlot{
		SessionID:     session.ID,
		SlotIndex:     nextIdx,
		Difficulty:    nextDifficulty,
		TimeAllocated: allocated,
		QuestionText:  question,
		Deadline:      &deadline,
		Resolution:    models.ResolutionPending,
		AskedAt:       &now,
	})

	if err := m.store.SaveSession(session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	// Arming the next slot supersedes the old timer atomically.
	m.arm(c, session.ID, nextIdx, deadline)
	metrics.SlotResolutions.WithLabelValues(reason).Inc()

	m.publishResolved(session.ID, slotIndex, score, resolution)
	m.publishActivated(session.ID, nextIdx, question, allocated, deadline)

	result.NextQuestion = question
	result.QuestionNumber = nextIdx + 1
	result.Difficulty = nextDifficulty
	result.TimeAllocated = allocated
	result.TotalScore = session.TotalScore
	return result, nil
}

// recordedResult echoes back an already-recorded resolution (timeout/manual
// race) together with whatever slot is active now.
func (m *InterviewManager) recordedResult(session *models.InterviewSession, slot *models.QuestionSlot) *models.SubmitResult {
	result := &models.SubmitResult{
		AlreadyResolved: true,
		SlotIndex:       slot.SlotIndex,
		Resolution:      slot.Resolution,
		TotalScore:      session.TotalScore,
	}
	if slot.Score != nil {
		result.Score = *slot.Score
	}
	if session.CurrentSlot < len(session.Slots) {
		active := session.Slots[session.CurrentSlot]
		if !active.Resolved() {
			result.NextQuestion = active.QuestionText
			result.QuestionNumber = active.SlotIndex + 1
			result.Difficulty = active.Difficulty
			result.TimeAllocated = active.TimeAllocated
		}
	}
	return result
}

// GetSnapshot returns the full current state for reconnect/recovery.
// Read-only, no side effects.
func (m *InterviewManager) GetSnapshot(sessionID string) (*models.SessionSnapshot, error) {
	session, err := m.store.LoadSession(sessionID)
	if err != nil {
		return nil, err
	}
	return m.snapshot(session), nil
}

// CheckSession answers "continue or start new" for a returning candidate.
func (m *InterviewManager) CheckSession(candidateID string) (*models.CheckResp, error) {
	candidate, err := m.store.GetCandidate(candidateID)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			return &models.CheckResp{HasSession: false}, nil
		}
		return nil, err
	}

	session, ok, err := m.store.HasActiveSession(candidateID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &models.CheckResp{HasSession: false}, nil
	}
	return &models.CheckResp{
		HasSession: true,
		Candidate:  candidate,
		Snapshot:   m.snapshot(session),
	}, nil
}

// ListCandidates feeds the interviewer dashboard, best score first.
func (m *InterviewManager) ListCandidates() ([]models.Candidate, error) {
	return m.store.ListCandidates()
}

// CandidateDetail returns a candidate with their full session history.
func (m *InterviewManager) CandidateDetail(candidateID string) (*models.Candidate, *models.InterviewSession, error) {
	candidate, err := m.store.GetCandidate(candidateID)
	if err != nil {
		return nil, nil, err
	}
	session, err := m.store.LoadSessionByCandidate(candidateID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return candidate, nil, nil
		}
		return nil, nil, err
	}
	return candidate, session, nil
}

func (m *InterviewManager) snapshot(session *models.InterviewSession) *models.SessionSnapshot {
	snap := &models.SessionSnapshot{
		SessionID:     session.ID,
		CandidateID:   session.CandidateID,
		Status:        session.Status,
		SlotsResolved: policy.ResolvedCount(session.Slots),
		TotalScore:    session.TotalScore,
	}
	if session.Status == models.StatusCompleted {
		snap.QuestionNumber = models.TotalSlots
		snap.Summary = session.Summary
		return snap
	}
	if session.Status != models.StatusInProgress || session.CurrentSlot < 0 || session.CurrentSlot >= len(session.Slots) {
		return snap
	}

	active := session.Slots[session.CurrentSlot]
	snap.QuestionNumber = active.SlotIndex + 1
	snap.Question = active.QuestionText
	snap.Difficulty = active.Difficulty
	snap.TimeAllocated = active.TimeAllocated
	if active.Deadline != nil {
		remaining := int(active.Deadline.Sub(m.now()).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		snap.TimeRemaining = remaining
	}
	return snap
}

func slotResults(slots []models.QuestionSlot) []oracle.SlotResult {
	results := make([]oracle.SlotResult, 0, len(slots))
	for _, s := range slots {
		score := 0
		if s.Score != nil {
			score = *s.Score
		}
		results = append(results, oracle.SlotResult{
			Question:   s.QuestionText,
			Answer:     s.AnswerText,
			Difficulty: s.Difficulty,
			Score:      score,
		})
	}
	return results
}

func (m *InterviewManager) publish(sessionID, eventType string, payload map[string]any) {
	m.hub.Publish(sessionID, models.SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		At:        m.now(),
	})
}

func (m *InterviewManager) publishActivated(sessionID string, slotIndex int, question string, allocated int, deadline time.Time) {
	m.publish(sessionID, models.EventQuestionActivated, map[string]any{
		"questionNumber": slotIndex + 1,
		"difficulty":     policy.SlotDifficulty(slotIndex),
		"question":       question,
		"timeAllocated":  allocated,
		"deadline":       deadline,
	})
}

func (m *InterviewManager) publishResolved(sessionID string, slotIndex int, score int, resolution string) {
	m.publish(sessionID, models.EventQuestionResolved, map[string]any{
		"questionNumber": slotIndex + 1,
		"score":          score,
		"resolution":     resolution,
	})
}
