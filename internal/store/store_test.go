package store_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview/internal/models"
	"interview/internal/store"
	"interview/internal/testhelpers"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testhelpers.SetupTestDB(t))
}

func seedSession(t *testing.T, s *store.Store, status string) (*models.Candidate, *models.InterviewSession) {
	t.Helper()

	candidate := &models.Candidate{
		ID:     uuid.New().String(),
		Name:   "Jane Doe",
		Email:  "jane@example.com",
		Status: models.StatusNotStarted,
	}
	require.NoError(t, s.CreateCandidate(candidate))

	session := &models.InterviewSession{
		ID:             uuid.New().String(),
		CandidateID:    candidate.ID,
		Status:         status,
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	require.NoError(t, s.CreateSession(session))
	return candidate, session
}

func TestCandidateRoundTrip(t *testing.T) {
	s := newStore(t)
	candidate, _ := seedSession(t, s, models.StatusNotStarted)

	got, err := s.GetCandidate(candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)

	got.Phone = "5551234567"
	require.NoError(t, s.SaveCandidate(got))

	again, err := s.GetCandidate(candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, "5551234567", again.Phone)
}

func TestGetCandidateNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.GetCandidate("missing")
	assert.ErrorIs(t, err, store.ErrCandidateNotFound)
}

func TestSaveSessionPersistsSlots(t *testing.T) {
	s := newStore(t)
	_, session := seedSession(t, s, models.StatusInProgress)

	deadline := time.Now().Add(20 * time.Second)
	score := 8
	session.CurrentSlot = 1
	session.TotalScore = 8
	session.Slots = []models.QuestionSlot{
		{
			SessionID:     session.ID,
			SlotIndex:     0,
			Difficulty:    models.DifficultyEasy,
			TimeAllocated: 20,
			QuestionText:  "What is var hoisting?",
			AnswerText:    "Declarations move to the top of scope.",
			Score:         &score,
			Resolution:    models.ResolutionAnsweredInTime,
		},
		{
			SessionID:     session.ID,
			SlotIndex:     1,
			Difficulty:    models.DifficultyEasy,
			TimeAllocated: 20,
			QuestionText:  "What are React components?",
			Deadline:      &deadline,
			Resolution:    models.ResolutionPending,
		},
	}
	require.NoError(t, s.SaveSession(session))

	loaded, err := s.LoadSession(session.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Slots, 2)
	assert.Equal(t, 1, loaded.CurrentSlot)
	assert.Equal(t, 0, loaded.Slots[0].SlotIndex)
	assert.Equal(t, 8, *loaded.Slots[0].Score)
	assert.Equal(t, models.ResolutionPending, loaded.Slots[1].Resolution)
	assert.Equal(t, "What are React components?", loaded.Slots[1].QuestionText)

	// Saving again must update in place, not duplicate slot rows.
	loaded.Slots[1].Resolution = models.ResolutionUnanswered
	require.NoError(t, s.SaveSession(loaded))
	reloaded, err := s.LoadSession(session.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Slots, 2)
	assert.Equal(t, models.ResolutionUnanswered, reloaded.Slots[1].Resolution)
}

func TestHasActiveSession(t *testing.T) {
	s := newStore(t)
	candidate, session := seedSession(t, s, models.StatusInProgress)

	got, ok, err := s.HasActiveSession(candidate.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, session.ID, got.ID)

	session.Status = models.StatusCompleted
	require.NoError(t, s.SaveSession(session))

	_, ok, err = s.HasActiveSession(candidate.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.HasActiveSession("unknown-candidate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCandidatesOrdering(t *testing.T) {
	s := newStore(t)

	for i, score := range []int{10, 55, 30} {
		require.NoError(t, s.CreateCandidate(&models.Candidate{
			ID:         uuid.New().String(),
			Name:       "Candidate",
			Email:      "c@example.com",
			Status:     models.StatusCompleted,
			TotalScore: score,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	candidates, err := s.ListCandidates()
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, 55, candidates[0].TotalScore)
	assert.Equal(t, 30, candidates[1].TotalScore)
	assert.Equal(t, 10, candidates[2].TotalScore)
}

func TestListInProgressSessions(t *testing.T) {
	s := newStore(t)
	seedSession(t, s, models.StatusInProgress)
	seedSession(t, s, models.StatusCompleted)
	seedSession(t, s, models.StatusNotStarted)

	sessions, err := s.ListInProgressSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.StatusInProgress, sessions[0].Status)
}
