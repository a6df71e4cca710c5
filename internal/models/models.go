package models

import (
	"time"
)

// Difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Session lifecycle states. A session only ever moves forward through these.
const (
	StatusNotStarted     = "not_started"
	StatusCollectingInfo = "collecting_info"
	StatusInProgress     = "in_progress"
	StatusCompleted      = "completed"
)

// Slot resolution outcomes
const (
	ResolutionPending              = "pending"
	ResolutionAnsweredInTime       = "answered_in_time"
	ResolutionAnsweredAfterTimeout = "answered_after_timeout"
	ResolutionUnanswered           = "unanswered"
)

// Submission triggers
const (
	ReasonManual  = "manual"
	ReasonTimeout = "timeout"
)

const (
	TotalSlots   = 6
	MaxSlotScore = 10
)

// Candidate represents an interviewee created from a resume upload.
type Candidate struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100" json:"name"`
	Email         string    `gorm:"size:254" json:"email"`
	Phone         string    `gorm:"size:20" json:"phone"`
	ResumeText    string    `gorm:"type:text" json:"-"`
	InfoConfirmed bool      `json:"infoConfirmed"`
	Status        string    `gorm:"size:20;index" json:"status"`
	TotalScore    int       `json:"totalScore"`
	Summary       string    `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// InterviewSession is the per-candidate aggregate owned by the orchestrator.
// At most one non-completed session exists per candidate.
type InterviewSession struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	CandidateID    string         `gorm:"uniqueIndex;not null" json:"candidateId"`
	Status         string         `gorm:"size:20;index" json:"status"`
	CurrentSlot    int            `json:"currentSlot"`
	TotalScore     int            `json:"totalScore"`
	Summary        string         `gorm:"type:text" json:"summary,omitempty"`
	Slots          []QuestionSlot `gorm:"foreignKey:SessionID" json:"slots"`
	StartedAt      *time.Time     `json:"startedAt,omitempty"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastActivityAt time.Time      `json:"lastActivityAt"`
}

// QuestionSlot is one of the six ordered question/answer units. Question text
// and deadline are written once, when the slot becomes active; answer, score
// and resolution are written once, when the slot is resolved.
type QuestionSlot struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	SessionID     string     `gorm:"index:idx_session_slot,unique;not null" json:"-"`
	SlotIndex     int        `gorm:"index:idx_session_slot,unique" json:"slotIndex"`
	Difficulty    string     `gorm:"size:10" json:"difficulty"`
	TimeAllocated int        `json:"timeAllocated"` // seconds
	QuestionText  string     `gorm:"type:text" json:"questionText"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	AnswerText    string     `gorm:"type:text" json:"answerText"`
	TimeTaken     int        `json:"timeTaken"` // client-reported, advisory only
	Score         *int       `json:"score,omitempty"`
	Resolution    string     `gorm:"size:30" json:"resolution"`
	AskedAt       *time.Time `json:"askedAt,omitempty"`
	AnsweredAt    *time.Time `json:"answeredAt,omitempty"`
}

// Resolved reports whether the slot outcome has been recorded.
func (q *QuestionSlot) Resolved() bool {
	return q.Resolution != "" && q.Resolution != ResolutionPending
}

// SessionSnapshot is the read-only view a reconnecting client resynchronizes from.
type SessionSnapshot struct {
	SessionID      string `json:"sessionId"`
	CandidateID    string `json:"candidateId"`
	Status         string `json:"status"`
	QuestionNumber int    `json:"questionNumber"` // 1-based, 0 before start
	Question       string `json:"question,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	TimeAllocated  int    `json:"timeAllocated,omitempty"`
	TimeRemaining  int    `json:"timeRemaining,omitempty"` // seconds until deadline
	SlotsResolved  int    `json:"slotsResolved"`
	TotalScore     int    `json:"totalScore"`
	Summary        string `json:"summary,omitempty"`
}

// Session event types published through the hub.
const (
	EventSessionStarted    = "session_started"
	EventQuestionActivated = "question_activated"
	EventQuestionResolved  = "question_resolved"
	EventSessionCompleted  = "session_completed"
	EventSnapshot          = "snapshot" // catch-up frame on (re)connect
)

type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// StartResult is returned when slot 0 is activated.
type StartResult struct {
	SessionID      string `json:"sessionId"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"questionNumber"`
	Difficulty     string `json:"difficulty"`
	TimeAllocated  int    `json:"timeAllocated"`
	SessionToken   string `json:"sessionToken,omitempty"`
}

// SubmitResult describes the outcome of resolving a slot. When the resolution
// already happened (timeout/manual race) AlreadyResolved is true and the
// recorded values are echoed back unchanged.
type SubmitResult struct {
	Completed       bool   `json:"completed"`
	AlreadyResolved bool   `json:"alreadyResolved,omitempty"`
	SlotIndex       int    `json:"slotIndex"`
	Score           int    `json:"score"`
	Resolution      string `json:"resolution"`
	NextQuestion    string `json:"nextQuestion,omitempty"`
	QuestionNumber  int    `json:"questionNumber,omitempty"`
	Difficulty      string `json:"difficulty,omitempty"`
	TimeAllocated   int    `json:"timeAllocated,omitempty"`
	TotalScore      int    `json:"totalScore,omitempty"`
	Summary         string `json:"summary,omitempty"`
}

// CheckResp answers the "continue or start new" question for a returning client.
type CheckResp struct {
	HasSession bool             `json:"hasSession"`
	Candidate  *Candidate       `json:"candidate,omitempty"`
	Snapshot   *SessionSnapshot `json:"snapshot,omitempty"`
}

type UploadResp struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
