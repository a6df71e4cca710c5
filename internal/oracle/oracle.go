// Package oracle defines the scoring-oracle contract: question generation,
// answer scoring and final summaries are remote, fallible calls made by the
// orchestrator but never owned by it.
package oracle

import "context"

// CandidateProfile is the slice of candidate identity the oracle may use to
// tailor questions.
type CandidateProfile struct {
	Name string
}

// SlotResult is one question/answer/score triple fed into the final summary.
type SlotResult struct {
	Question   string
	Answer     string
	Difficulty string
	Score      int
}

// Oracle generates questions, scores answers (0-10) and writes the closing
// summary. All methods are treated as fallible remote calls.
type Oracle interface {
	NextQuestion(ctx context.Context, questionNumber int, difficulty string, profile CandidateProfile) (string, error)
	Score(ctx context.Context, question, answer string) (int, error)
	Summarize(ctx context.Context, results []SlotResult, totalScore int) (string, error)
	ProviderName() string
}

// ProviderError represents an error from an oracle provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
