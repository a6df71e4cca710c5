// Package store persists the candidate/session/slot aggregate. It is only
// ever driven by the orchestrator; transport code never touches it directly.
package store

import (
	"errors"

	"gorm.io/gorm"

	"interview/internal/models"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrSessionNotFound   = errors.New("session not found")
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate creates/updates the schema for the interview aggregate.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Candidate{}, &models.InterviewSession{}, &models.QuestionSlot{})
}

func (s *Store) CreateCandidate(candidate *models.Candidate) error {
	return s.DB.Create(candidate).Error
}

func (s *Store) GetCandidate(candidateID string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.DB.First(&candidate, "id = ?", candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	return &candidate, err
}

func (s *Store) SaveCandidate(candidate *models.Candidate) error {
	return s.DB.Save(candidate).Error
}

// ListCandidates returns all candidates, best total score first.
func (s *Store) ListCandidates() ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := s.DB.Order("total_score DESC, created_at DESC").Find(&candidates).Error
	return candidates, err
}

func (s *Store) CreateSession(session *models.InterviewSession) error {
	return s.DB.Create(session).Error
}

// SaveSession writes the session row and every slot in one transaction. The
// orchestrator treats a transition as committed only once this returns nil.
func (s *Store) SaveSession(session *models.InterviewSession) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Slots").Save(session).Error; err != nil {
			return err
		}
		for i := range session.Slots {
			if err := tx.Save(&session.Slots[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSessionAndCandidate commits a transition that touches both records
// (start, completion) atomically.
func (s *Store) SaveSessionAndCandidate(session *models.InterviewSession, candidate *models.Candidate) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Slots").Save(session).Error; err != nil {
			return err
		}
		for i := range session.Slots {
			if err := tx.Save(&session.Slots[i]).Error; err != nil {
				return err
			}
		}
		return tx.Save(candidate).Error
	})
}

func (s *Store) LoadSession(sessionID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := s.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return &session, err
}

func (s *Store) LoadSessionByCandidate(candidateID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := s.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).First(&session, "candidate_id = ?", candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return &session, err
}

// HasActiveSession answers the "continue or start new" recovery query.
func (s *Store) HasActiveSession(candidateID string) (*models.InterviewSession, bool, error) {
	session, err := s.LoadSessionByCandidate(candidateID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if session.Status == models.StatusCompleted {
		return nil, false, nil
	}
	return session, true, nil
}

// ListInProgressSessions feeds the timer reconciliation sweep after a restart.
func (s *Store) ListInProgressSessions() ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := s.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).Where("status = ?", models.StatusInProgress).Find(&sessions).Error
	return sessions, err
}
