// Package static is an offline oracle provider. It serves a fixed question
// bank, a length/keyword scoring heuristic and a banded summary, so the
// service stays usable without an LLM API key (local runs, tests, demos).
package static

import (
	"context"
	"fmt"
	"strings"

	"interview/internal/models"
	"interview/internal/oracle"
)

var questionBank = map[string][]string{
	models.DifficultyEasy: {
		"What is the difference between let, const, and var in JavaScript?",
		"Explain what React components are and their purpose.",
		"What is the purpose of package.json in a Node.js project?",
	},
	models.DifficultyMedium: {
		"How would you handle state management in a React application? Explain different approaches.",
		"Describe the event loop in Node.js and how it handles asynchronous operations.",
		"What are REST APIs and what makes an API RESTful?",
	},
	models.DifficultyHard: {
		"Design a system architecture for a social media application. Consider scalability and performance.",
		"Explain how you would implement authentication and authorization in a full-stack application.",
		"How would you optimize a React application for performance? Discuss various techniques.",
	},
}

var scoringKeywords = []string{"react", "javascript", "node", "api", "database"}

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) NextQuestion(_ context.Context, questionNumber int, difficulty string, _ oracle.CandidateProfile) (string, error) {
	bank, ok := questionBank[difficulty]
	if !ok {
		bank = questionBank[models.DifficultyEasy]
	}
	return bank[(questionNumber-1)%len(bank)], nil
}

// Score grades by answer length with a keyword bonus. An empty answer scores 0.
func (p *Provider) Score(_ context.Context, _ string, answer string) (int, error) {
	if strings.TrimSpace(answer) == "" {
		return 0, nil
	}

	score := float64(len(strings.Fields(answer))) * 0.1
	if score > float64(models.MaxSlotScore)*0.3 {
		score = float64(models.MaxSlotScore) * 0.3
	}
	lower := strings.ToLower(answer)
	for _, kw := range scoringKeywords {
		if strings.Contains(lower, kw) {
			score += float64(models.MaxSlotScore) * 0.2
			break
		}
	}

	n := int(score + 0.5)
	if n > models.MaxSlotScore {
		n = models.MaxSlotScore
	}
	return n, nil
}

func (p *Provider) Summarize(_ context.Context, results []oracle.SlotResult, totalScore int) (string, error) {
	performance := "Poor"
	switch {
	case totalScore >= 45:
		performance = "Excellent"
	case totalScore >= 35:
		performance = "Good"
	case totalScore >= 25:
		performance = "Average"
	case totalScore >= 15:
		performance = "Below Average"
	}

	recommendation := "No hire"
	if totalScore >= 35 {
		recommendation = "Hire"
	} else if totalScore >= 25 {
		recommendation = "Further evaluation recommended"
	}

	return fmt.Sprintf(
		"Interview Summary:\n\n"+
			"Overall Performance: %s (%d/60 points)\n\n"+
			"The candidate completed %d questions across easy, medium, and hard difficulty levels.\n"+
			"Based on the responses provided, the candidate demonstrated varying levels of technical knowledge.\n\n"+
			"Recommendation: %s\n\n"+
			"Note: This is an automated summary. Human review recommended for final hiring decisions.",
		performance, totalScore, len(results), recommendation), nil
}

func (p *Provider) ProviderName() string { return "static" }

func init() {
	oracle.RegisterProvider("static", func() (oracle.Oracle, error) {
		return New(), nil
	})
}
